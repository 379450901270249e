// Package dashboard holds the fixed sample content shown on the two
// dashboards. None of it is backed by live data.
package dashboard

// Tone drives the badge colour in the templates.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
	TonePrimary Tone = "primary"
)

type StatCard struct {
	Title string
	Value string
	Tone  Tone
}

type Activity struct {
	Bus     string
	Student string
	Status  string
	Time    string
}

type BusStatus struct {
	Bus      string
	Route    string
	Students int
	Status   string
	Tone     Tone
}

type Child struct {
	Name   string
	Grade  string
	Bus    string
	Status string
	Time   string
}

type Notification struct {
	Message string
	Time    string
	Tone    Tone
}

type Admin struct {
	Title      string
	Stats      []StatCard
	Activities []Activity
	Buses      []BusStatus
}

type Parent struct {
	Title         string
	Cards         []StatCard
	Children      []Child
	Notifications []Notification
}

// AdminOverview returns a fresh copy of the administrator sample data.
func AdminOverview() Admin {
	return Admin{
		Title: "School Bus Safety Dashboard",
		Stats: []StatCard{
			{Title: "Active Buses", Value: "12", Tone: TonePrimary},
			{Title: "Students On Board", Value: "156", Tone: ToneSuccess},
			{Title: "Pending Notifications", Value: "8", Tone: ToneWarning},
			{Title: "System Status", Value: "All Active", Tone: ToneSuccess},
		},
		Activities: []Activity{
			{Bus: "Bus #12", Student: "John Smith", Status: "Boarded", Time: "8:15 AM"},
			{Bus: "Bus #8", Student: "Emma Johnson", Status: "Disembarked", Time: "8:20 AM"},
			{Bus: "Bus #5", Student: "Michael Brown", Status: "Boarded", Time: "8:25 AM"},
		},
		Buses: []BusStatus{
			{Bus: "Bus #12", Route: "North Campus", Students: 45, Status: "On Route", Tone: ToneSuccess},
			{Bus: "Bus #8", Route: "South Campus", Students: 38, Status: "Delayed", Tone: ToneWarning},
			{Bus: "Bus #5", Route: "East Campus", Students: 42, Status: "On Time", Tone: ToneInfo},
		},
	}
}

// ParentOverview returns a fresh copy of the parent sample data.
func ParentOverview() Parent {
	return Parent{
		Title: "Parent Dashboard",
		Cards: []StatCard{
			{Title: "Active Notifications", Value: "3 new updates", Tone: TonePrimary},
			{Title: "Bus Status", Value: "All buses on schedule", Tone: ToneSuccess},
			{Title: "Children Status", Value: "2 children tracked", Tone: ToneInfo},
		},
		Children: []Child{
			{Name: "Emma Johnson", Grade: "3rd Grade", Bus: "Bus #8", Status: "On Board", Time: "8:15 AM"},
			{Name: "Michael Johnson", Grade: "5th Grade", Bus: "Bus #12", Status: "Boarding", Time: "8:30 AM"},
		},
		Notifications: []Notification{
			{Message: "Emma has boarded Bus #8", Time: "8:15 AM", Tone: ToneSuccess},
			{Message: "Bus #8 is running 5 minutes late", Time: "8:10 AM", Tone: ToneWarning},
			{Message: "Michael's bus is approaching the stop", Time: "8:25 AM", Tone: ToneInfo},
		},
	}
}

// StatusTone maps an activity or child status to a badge tone.
func StatusTone(status string) Tone {
	switch status {
	case "Boarded", "On Board":
		return ToneSuccess
	case "Disembarked", "Boarding":
		return ToneInfo
	default:
		return ToneWarning
	}
}
