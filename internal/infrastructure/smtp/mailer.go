package smtp

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"github.com/go-email-otp/internal/config"
)

// DefaultTemplate renders the OTP email body when no hosted template is
// configured.
const DefaultTemplate = `Your one-time passcode is {{.Code}}.

It expires in {{.Validity}}. If you did not request it, ignore this email.`

// Mailer delivers a plaintext OTP out-of-band. This is the only way a code
// ever leaves the system.
type Mailer interface {
	SendOTP(to, code string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	tmpl     *template.Template
	validity time.Duration
}

// NewMailer builds a Mailer that renders the given template body. The
// template receives {{.Code}} and {{.Validity}}.
func NewMailer(cfg *config.Config, body string) (Mailer, error) {
	tmpl, err := template.New("otp_email").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse otp email template: %w", err)
	}
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		tmpl:     tmpl,
		validity: cfg.OTPValidity,
	}, nil
}

func (m *mailer) SendOTP(to, code string) error {
	var body bytes.Buffer
	err := m.tmpl.Execute(&body, struct {
		Code     string
		Validity time.Duration
	}{Code: code, Validity: m.validity.Round(time.Second)})
	if err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, to, "Your one-time passcode", body.String())
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
