// Package mail sends transactional email.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"bill-mart/internal/config"
	"bill-mart/pkg/logger"

	"github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"
)

type Mailer interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}

// OTPData feeds the OTP template.
type OTPData struct {
	AppName string
	Code    string
	Minutes int
}

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; background: #f6f6f6; padding: 24px;">
    <div style="max-width: 480px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
      <h2 style="margin-top: 0;">{{.AppName}} verification code</h2>
      <p>Use the code below to confirm your purchase.</p>
      <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center;">{{.Code}}</p>
      <p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
    </div>
  </body>
</html>
`))

// RenderOTP renders the HTML body of the OTP email.
func RenderOTP(data OTPData) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sender is the part of the go-mail client the mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTP delivers mail through a submission server, with PLAIN auth when a username is set.
type SMTP struct {
	cfg     config.SMTPConfig
	appName string
	client  sender
}

// New returns an SMTP mailer, or a Log mailer when no host is configured.
func New(cfg config.SMTPConfig, appName string) (Mailer, error) {
	if !cfg.Enabled() {
		return Log{}, nil
	}
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("smtp port %q: %w", cfg.Port, err)
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{cfg: cfg, appName: appName, client: client}, nil
}

func (m *SMTP) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := RenderOTP(OTPData{AppName: m.appName, Code: code, Minutes: int(ttl.Minutes())})
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("otp mail sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("otp mail recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("%s verification code", m.appName))
	msg.SetBodyString(gomail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

// Log writes the code to the application log instead of sending it.
// Only meant for local development.
type Log struct{}

func (Log) SendOTP(_ context.Context, to, code string, ttl time.Duration) error {
	logger.Get().WithFields(logrus.Fields{
		"module": "mail",
		"to":     to,
		"code":   code,
		"ttl":    ttl.String(),
	}).Warn("SMTP not configured, OTP not emailed")
	return nil
}
