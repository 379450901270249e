package dashboard

import "testing"

func TestOverviewsAreIndependentCopies(t *testing.T) {
	a := AdminOverview()
	a.Stats[0].Value = "99"

	if got := AdminOverview().Stats[0].Value; got != "12" {
		t.Fatalf("admin sample data was mutated: %q", got)
	}

	p := ParentOverview()
	if len(p.Cards) != 3 || len(p.Children) != 2 || len(p.Notifications) != 3 {
		t.Fatalf("unexpected parent overview shape: %+v", p)
	}
}

func TestStatusTone(t *testing.T) {
	tests := map[string]Tone{
		"Boarded":     ToneSuccess,
		"On Board":    ToneSuccess,
		"Disembarked": ToneInfo,
		"Boarding":    ToneInfo,
		"Missing":     ToneWarning,
	}

	for status, want := range tests {
		if got := StatusTone(status); got != want {
			t.Errorf("StatusTone(%q) = %q, want %q", status, got, want)
		}
	}
}
