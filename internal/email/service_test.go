package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	messages []*gomail.Message
	err      error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.messages = append(c.messages, m...)
	return c.err
}

func TestSendWelcome(t *testing.T) {
	capture := &captureSender{}
	svc := &smtpService{from: "no-reply@clinic.local", dialer: capture}

	require.NoError(t, svc.SendWelcome(context.Background(), "dr@clinic.io", "Dr. Who", "Sunrise Clinic"))
	require.Len(t, capture.messages, 1)

	var buf bytes.Buffer
	_, err := capture.messages[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "To: dr@clinic.io")
	assert.Contains(t, buf.String(), "Subject: Welcome to Sunrise Clinic")
	assert.Contains(t, buf.String(), "Hello Dr. Who")
}

func TestSendWrapsDialError(t *testing.T) {
	svc := &smtpService{from: "a@b.c", dialer: &captureSender{err: errors.New("refused")}}
	err := svc.SendPasswordChanged(context.Background(), "x@y.z", "X")
	assert.ErrorContains(t, err, "failed to send email")
}

func TestLogServiceNeverFails(t *testing.T) {
	svc := NewLogService()
	assert.NoError(t, svc.SendWelcome(context.Background(), "a@b.c", "A", "C"))
	assert.NoError(t, svc.SendPasswordChanged(context.Background(), "a@b.c", "A"))
}
