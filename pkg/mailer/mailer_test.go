package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"ecom-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPMailer_BuildsMessage(t *testing.T) {
	d := &recordingDialer{}
	m := NewSMTPMailer(utils.EmailConfig{Host: "smtp.example.com", Port: 587, User: "bot@example.com"}, zap.NewNop())
	m.dialer = d

	err := m.Send(context.Background(), Message{To: "a@x.com", Subject: "Password Reset Request", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	assert.Equal(t, []string{"bot@example.com"}, d.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"a@x.com"}, d.sent[0].GetHeader("To"))

	var buf bytes.Buffer
	_, err = d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<p>hi</p>")
}

func TestSMTPMailer_DeliveryFailure(t *testing.T) {
	d := &recordingDialer{err: errors.New("connection refused")}
	m := NewSMTPMailer(utils.EmailConfig{Host: "smtp.example.com", Port: 587, From: "shop@example.com"}, zap.NewNop())
	m.dialer = d

	err := m.Send(context.Background(), Message{To: "a@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNew_FallsBackToLogMailerInDebug(t *testing.T) {
	m, err := New(utils.EmailConfig{}, true, zap.NewNop())
	require.NoError(t, err)
	_, ok := m.(*LogMailer)
	assert.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@x.com"}))
}

func TestNew_RequiresSMTPOutsideDebug(t *testing.T) {
	m, err := New(utils.EmailConfig{}, false, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoSMTP)
	assert.Nil(t, m)
}

func TestNew_PicksSMTPWhenConfigured(t *testing.T) {
	m, err := New(utils.EmailConfig{Host: "smtp.example.com", Port: 587}, false, zap.NewNop())
	require.NoError(t, err)
	_, ok := m.(*SMTPMailer)
	assert.True(t, ok)
}
