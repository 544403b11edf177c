package notifier

import (
	"bytes"
	"fmt"
	"html/template"
)

var tmpl = template.Must(template.New("emails").Parse(`
{{define "layout_top"}}<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;padding:20px;color:#1a1a1a;">{{end}}
{{define "layout_bottom"}}<p style="color:#888;font-size:12px;margin-top:32px;">{{.FromName}}</p></body></html>{{end}}

{{define "pending"}}{{template "layout_top" .}}
<h2>Registration received</h2>
<p>Hi {{.Name}},</p>
<p>We received your registration for <strong>{{.SessionTitle}}</strong> on {{.SessionDate}}.
Your spot is pending approval; we will email you once it is confirmed.</p>
{{template "layout_bottom" .}}{{end}}

{{define "confirmed"}}{{template "layout_top" .}}
<h2>You're in!</h2>
<p>Hi {{.Name}},</p>
<p>Your registration for <strong>{{.SessionTitle}}</strong> on {{.SessionDate}} is confirmed.</p>
{{if .Location}}<p>Location: {{.Location}}</p>{{end}}
{{if .CustomMessage}}<p>{{.CustomMessage}}</p>{{end}}
{{if .QRDataURI}}<p>Show this code at the door to check in:</p>
<img src="{{.QRDataURI}}" alt="check-in code" width="256" height="256"/>{{end}}
{{template "layout_bottom" .}}{{end}}

{{define "companion"}}{{template "layout_top" .}}
<h2>You've been added as a companion</h2>
<p>Hi {{.Name}},</p>
<p>{{.HostName}} added you as a companion for <strong>{{.SessionTitle}}</strong> on {{.SessionDate}}.</p>
{{if .Location}}<p>Location: {{.Location}}</p>{{end}}
{{template "layout_bottom" .}}{{end}}

{{define "password_reset"}}{{template "layout_top" .}}
<h2>Reset your password</h2>
<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="{{.ResetURL}}">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>
{{template "layout_bottom" .}}{{end}}

{{define "invitation"}}{{template "layout_top" .}}
<h2>You're invited</h2>
<p>You have been invited to <strong>{{.SessionTitle}}</strong> on {{.SessionDate}}.</p>
{{if .CustomMessage}}<p>{{.CustomMessage}}</p>{{end}}
<p><a href="{{.InviteURL}}">Accept your invitation</a></p>
<p>This invitation expires on {{.ExpiresAt}} and can be used once.</p>
{{template "layout_bottom" .}}{{end}}

{{define "welcome"}}{{template "layout_top" .}}
<h2>Welcome, {{.Name}}!</h2>
<p>Your account is ready. Your public profile lives at
<a href="{{.ProfileURL}}">{{.ProfileURL}}</a>.</p>
<p>Past guest registrations made with this email or phone number are now linked to your account.</p>
{{template "layout_bottom" .}}{{end}}
`))

type templateData struct {
	FromName      string
	Name          string
	HostName      string
	SessionTitle  string
	SessionDate   string
	Location      string
	CustomMessage string
	QRDataURI     template.URL
	ResetURL      string
	InviteURL     string
	ProfileURL    string
	ExpiresAt     string
}

func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
