package emails

import (
	"bytes"
	"html/template"
)

/* =========================================================
   Template data (murni: data masuk, HTML keluar)
========================================================= */

type SessionLine struct {
	Name     string
	Location string
	When     string // "Saturdays 09:00-10:00" / "Saturday 14 March 2026"
}

type ConfirmationData struct {
	ParentName string
	ChildName  string
	Reference  string
	Sessions   []SessionLine
	AmountPaid string
	Discount   string // kosong = tanpa diskon
	BalanceDue string // kosong = lunas
	DueDate    string
	BookingURL string
}

type BalanceReminderData struct {
	ParentName string
	ChildName  string
	Reference  string
	BalanceDue string
	DueDate    string
	PayURL     string
}

type SessionReminderData struct {
	ParentName string
	ChildName  string
	Date       string
	Sessions   []SessionLine
}

type PaymentLinkData struct {
	ParentName string
	Reference  string
	Amount     string
	PayURL     string
}

const layoutHTML = `{{define "layout"}}<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#1a1a1a;max-width:600px;margin:auto">
<h2 style="color:#0b6b3a">{{template "title" .}}</h2>
{{template "body" .}}
<p style="font-size:12px;color:#777">TTNTS Football Academy</p>
</body></html>{{end}}
{{define "sessions"}}<ul>{{range .}}<li><strong>{{.Name}}</strong>{{if .When}}, {{.When}}{{end}}{{if .Location}} ({{.Location}}){{end}}</li>{{end}}</ul>{{end}}`

var (
	confirmationTmpl = mustParse(`
{{define "title"}}Booking confirmed: {{.Reference}}{{end}}
{{define "body"}}<p>Hi {{.ParentName}},</p>
<p>{{.ChildName}} is booked in. Your reference is <strong>{{.Reference}}</strong>.</p>
{{template "sessions" .Sessions}}
<p>Paid: {{.AmountPaid}}{{if .Discount}} (discount {{.Discount}}){{end}}</p>
{{if .BalanceDue}}<p>Remaining balance <strong>{{.BalanceDue}}</strong>{{if .DueDate}} due by {{.DueDate}}{{end}}.</p>{{end}}
{{if .BookingURL}}<p><a href="{{.BookingURL}}">View your booking</a></p>{{end}}{{end}}`)

	balanceReminderTmpl = mustParse(`
{{define "title"}}Balance due for {{.Reference}}{{end}}
{{define "body"}}<p>Hi {{.ParentName}},</p>
<p>The remaining balance of <strong>{{.BalanceDue}}</strong> for {{.ChildName}} is due by {{.DueDate}}.</p>
{{if .PayURL}}<p><a href="{{.PayURL}}">Pay now</a></p>{{end}}{{end}}`)

	sessionReminderTmpl = mustParse(`
{{define "title"}}See you {{.Date}}{{end}}
{{define "body"}}<p>Hi {{.ParentName}},</p>
<p>A reminder that {{.ChildName}} is training on {{.Date}}:</p>
{{template "sessions" .Sessions}}
<p>Please bring water, shin pads and suitable boots.</p>{{end}}`)

	paymentLinkTmpl = mustParse(`
{{define "title"}}Payment request for {{.Reference}}{{end}}
{{define "body"}}<p>Hi {{.ParentName}},</p>
<p>Please use the link below to pay <strong>{{.Amount}}</strong> towards booking {{.Reference}}.</p>
<p><a href="{{.PayURL}}">{{.PayURL}}</a></p>{{end}}`)
)

func mustParse(body string) *template.Template {
	return template.Must(template.Must(template.New("email").Parse(layoutHTML)).Parse(body))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderConfirmation(d ConfirmationData) (string, string, error) {
	html, err := render(confirmationTmpl, d)
	return "Booking confirmed - " + d.Reference, html, err
}

func RenderBalanceReminder(d BalanceReminderData) (string, string, error) {
	html, err := render(balanceReminderTmpl, d)
	return "Balance reminder - " + d.Reference, html, err
}

func RenderSessionReminder(d SessionReminderData) (string, string, error) {
	html, err := render(sessionReminderTmpl, d)
	return "Session reminder - " + d.Date, html, err
}

func RenderPaymentLink(d PaymentLinkData) (string, string, error) {
	html, err := render(paymentLinkTmpl, d)
	return "Payment request - " + d.Reference, html, err
}
