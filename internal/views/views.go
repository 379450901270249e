// Package views renders the server-side pages from embedded templates.
package views

import (
	"embed"
	"html/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/geocoder89/busguard/internal/dashboard"
	"github.com/geocoder89/busguard/internal/domain/session"
)

const (
	LoginPage    = "login.tmpl"
	AdminPage    = "admin.tmpl"
	CustomerPage = "customer.tmpl"
	NotFoundPage = "not_found.tmpl"
)

//go:embed templates/*.tmpl
var files embed.FS

// AccountOption is one entry of the login form's account type selector.
type AccountOption struct {
	Value string
	Label string
}

var accountOptions = []AccountOption{
	{Value: string(session.AccountParent), Label: "Parent"},
	{Value: string(session.AccountAdmin), Label: "School Administrator"},
	{Value: string(session.AccountDriver), Label: "Bus Driver"},
}

// LoginForm is what the login page needs to redisplay a submission.
type LoginForm struct {
	Email       string
	AccountType string
	Error       string
	Expired     bool
	Options     []AccountOption
}

// Page is the data passed to every template.
type Page struct {
	Title   string
	Session session.Session
	Path    string

	Login  *LoginForm
	Admin  *dashboard.Admin
	Parent *dashboard.Parent
}

// NewLoginForm prefills the selector with the parent account type.
func NewLoginForm() *LoginForm {
	return &LoginForm{
		AccountType: string(session.AccountParent),
		Options:     accountOptions,
	}
}

func funcs() template.FuncMap {
	fm := sprig.FuncMap()
	fm["statusTone"] = func(status string) string { return string(dashboard.StatusTone(status)) }
	return fm
}

// Templates parses every embedded page. gin renders them by file name.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs()).ParseFS(files, "templates/*.tmpl")
}
