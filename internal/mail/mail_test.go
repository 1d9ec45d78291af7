package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"bill-mart/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

type fakeSender struct {
	msgs []*gomail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
	f.msgs = append(f.msgs, messages...)
	return f.err
}

func TestRenderOTP(t *testing.T) {
	html, err := RenderOTP(OTPData{AppName: "Bill Mart", Code: "042917", Minutes: 5})
	require.NoError(t, err)
	assert.Contains(t, html, "042917")
	assert.Contains(t, html, "expires in 5 minutes")
}

func TestSMTP_SendOTP(t *testing.T) {
	client := &fakeSender{}
	m := &SMTP{
		cfg:     config.SMTPConfig{Host: "smtp.example.com", Port: "587", From: "shop@example.com"},
		appName: "Bill Mart",
		client:  client,
	}

	require.NoError(t, m.SendOTP(context.Background(), "buyer@example.com", "123456", 5*time.Minute))
	require.Len(t, client.msgs, 1)
	msg := client.msgs[0]

	from, err := msg.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "shop@example.com", from)
	to, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"buyer@example.com"}, to)
	assert.Equal(t, []string{"Bill Mart verification code"}, msg.GetGenHeader(gomail.HeaderSubject))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
	assert.Contains(t, buf.String(), "123456")
}

func TestSMTP_SendOTPFailure(t *testing.T) {
	m := &SMTP{
		cfg:    config.SMTPConfig{Host: "h", Port: "25", From: "shop@example.com"},
		client: &fakeSender{err: errors.New("connection refused")},
	}
	err := m.SendOTP(context.Background(), "a@b.c", "000000", time.Minute)
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTP_SendOTPBadRecipient(t *testing.T) {
	client := &fakeSender{}
	m := &SMTP{cfg: config.SMTPConfig{Host: "h", Port: "25", From: "shop@example.com"}, client: client}
	assert.Error(t, m.SendOTP(context.Background(), "not an address", "000000", time.Minute))
	assert.Empty(t, client.msgs)
}

func TestNew(t *testing.T) {
	m, err := New(config.SMTPConfig{}, "Bill Mart")
	require.NoError(t, err)
	assert.IsType(t, Log{}, m)
	assert.NoError(t, m.SendOTP(context.Background(), "a@b.c", "111111", time.Minute))

	m, err = New(config.SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p", From: "shop@example.com"}, "Bill Mart")
	require.NoError(t, err)
	assert.IsType(t, &SMTP{}, m)

	_, err = New(config.SMTPConfig{Host: "smtp.example.com", Port: "smtp"}, "Bill Mart")
	assert.Error(t, err)
}
