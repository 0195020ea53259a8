package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
)

type mailTemplate struct {
	subject string
	text    string
	html    *template.Template
}

const layout = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #2C3E50; color: white; padding: 20px; text-align: center; }
    .content { background-color: #f9f9f9; padding: 30px; }
    .code { background-color: {{.Accent}}; color: white; font-size: 28px; font-weight: bold;
            padding: 18px; text-align: center; letter-spacing: 4px; margin: 20px 0; }
    .footer { text-align: center; color: #7f8c8d; padding: 20px; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>{{.App}}</h1></div>
    <div class="content">
      <h2>Hello {{.Name}}!</h2>
      {{template "body" .}}
    </div>
    <div class="footer"><p>&copy; {{.Year}} {{.App}}. All rights reserved.</p></div>
  </div>
</body>
</html>`

func newTemplate(kind Kind, body string) *template.Template {
	t := template.Must(template.New(string(kind)).Parse(layout))
	template.Must(t.New("body").Parse(body))
	return t
}

var templates = map[Kind]mailTemplate{
	KindVerificationCode: {
		subject: "Verify Your Email Address",
		text:    "Your verification code is {{code}}. It expires in 10 minutes.",
		html: newTemplate(KindVerificationCode, `
      <p>Please verify your email address to complete your registration.</p>
      <p>Your verification code is:</p>
      <div class="code">{{.Data.code}}</div>
      <p>This code will expire in 10 minutes.</p>
      <p>If you didn't create an account, please ignore this email.</p>`),
	},
	KindResetCode: {
		subject: "Password Reset Request",
		text:    "Your password reset code is {{code}}. It expires in 1 hour.",
		html: newTemplate(KindResetCode, `
      <p>We received a request to reset your password. Use this code:</p>
      <div class="code">{{.Data.code}}</div>
      <p>This code will expire in 1 hour.</p>
      <p>If you didn't request a reset, your password stays unchanged.</p>`),
	},
	KindTemporaryPassword: {
		subject: "Your Password",
		text:    "Your new password is {{password}}. Change it after signing in.",
		html: newTemplate(KindTemporaryPassword, `
      <p>A new password was generated for your account:</p>
      <div class="code">{{.Data.password}}</div>
      <p>Sign in with it and change it from your account settings.</p>`),
	},
	KindWelcome: {
		subject: "Welcome to Real Estate App!",
		text:    "Your email is verified. Welcome aboard!",
		html: newTemplate(KindWelcome, `
      <p>Your email address is verified. You can now list properties, save searches and book visits.</p>`),
	},
	KindPasswordChanged: {
		subject: "Password Changed Successfully",
		text:    "Your password was changed. If this wasn't you, reset it right away.",
		html: newTemplate(KindPasswordChanged, `
      <p>Your password was changed successfully.</p>
      <p>If you did not make this change, reset your password immediately.</p>`),
	},
	KindSavedSearchMatch: {
		subject: "New property matching your saved search",
		text:    "{{title}} in {{city}} matches your saved search \"{{search}}\": {{link}}",
		html: newTemplate(KindSavedSearchMatch, `
      <p>A new listing matches your saved search <strong>{{.Data.search}}</strong>:</p>
      <p><strong>{{.Data.title}}</strong> in {{.Data.city}} for {{.Data.price}}</p>
      <p><a href="{{.Data.link}}">View the property</a></p>`),
	},
}

type renderData struct {
	App    string
	Name   string
	Year   int
	Accent string
	Data   map[string]string
}

// Renderer builds the subject, plain text and minified HTML of a message.
type Renderer struct {
	app      string
	minifier *minify.M
	now      func() time.Time
}

func NewRenderer(appName string) *Renderer {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	if appName == "" {
		appName = "Real Estate App"
	}
	return &Renderer{app: appName, minifier: m, now: time.Now}
}

type rendered struct {
	Subject string
	Text    string
	HTML    string
}

func (r *Renderer) Render(msg Message) (rendered, error) {
	if err := msg.validate(); err != nil {
		return rendered{}, err
	}
	tpl := templates[msg.Kind]

	accent := "#3498DB"
	if msg.Kind == KindResetCode || msg.Kind == KindTemporaryPassword {
		accent = "#E74C3C"
	}
	name := msg.Name
	if name == "" {
		name = "there"
	}

	var buf bytes.Buffer
	if err := tpl.html.Execute(&buf, renderData{App: r.app, Name: name, Year: r.now().Year(), Accent: accent, Data: msg.Data}); err != nil {
		return rendered{}, fmt.Errorf("render %s: %w", msg.Kind, err)
	}
	body, err := r.minifier.String("text/html", buf.String())
	if err != nil {
		body = buf.String()
	}
	return rendered{Subject: tpl.subject, Text: fillText(tpl.text, msg.Data), HTML: body}, nil
}

func fillText(text string, data map[string]string) string {
	for k, v := range data {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}
	return text
}
