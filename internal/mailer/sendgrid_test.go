package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent      []*mail.SGMailV3
	responses []*rest.Response
	errs      []error
}

func (f *fakeSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	i := len(f.sent)
	f.sent = append(f.sent, email)
	var resp *rest.Response
	if i < len(f.responses) {
		resp = f.responses[i]
	} else {
		resp = &rest.Response{StatusCode: 202}
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func validMessage() ContactMessage {
	return ContactMessage{Name: "Sam", Email: "sam@example.com", Message: "Great app, thank you!"}
}

func TestContactMessage_Validate(t *testing.T) {
	tests := []struct {
		name string
		msg  ContactMessage
		ok   bool
	}{
		{"valid", validMessage(), true},
		{"trims whitespace", ContactMessage{Name: "  Sam ", Email: " sam@example.com ", Message: "  Great app, thank you! "}, true},
		{"missing field", ContactMessage{Name: "Sam", Email: "sam@example.com"}, false},
		{"short name", ContactMessage{Name: "S", Email: "sam@example.com", Message: "Great app, thank you!"}, false},
		{"bad email", ContactMessage{Name: "Sam", Email: "sam@example", Message: "Great app, thank you!"}, false},
		{"email with space", ContactMessage{Name: "Sam", Email: "sam @example.com", Message: "Great app, thank you!"}, false},
		{"short message", ContactMessage{Name: "Sam", Email: "sam@example.com", Message: "hi"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			err := msg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}
}

func TestSendContact_NotConfigured(t *testing.T) {
	m := NewSendGridMailer(Options{From: "owner@example.com"})
	require.False(t, m.Configured())
	require.ErrorIs(t, m.SendContact(context.Background(), validMessage()), ErrNotConfigured)

	require.ErrorIs(t, m.SendContact(context.Background(), ContactMessage{}), ErrInvalidInput, "validation runs first")
}

func TestSendContact_SendsOwnerAndConfirmation(t *testing.T) {
	fake := &fakeSender{}
	m := &SendGridMailer{client: fake, from: "owner@example.com", to: "inbox@example.com"}

	msg := validMessage()
	msg.Message = "<script>alert(1)</script> hello there"
	require.NoError(t, m.SendContact(context.Background(), msg))
	require.Len(t, fake.sent, 2)

	owner := fake.sent[0]
	require.Equal(t, "New Contact Message from Sam", owner.Subject)
	require.Equal(t, "inbox@example.com", owner.Personalizations[0].To[0].Address)
	require.Equal(t, "sam@example.com", owner.ReplyTo.Address)
	require.NotContains(t, owner.Content[1].Value, "<script>")

	confirmation := fake.sent[1]
	require.Equal(t, "sam@example.com", confirmation.Personalizations[0].To[0].Address)
	require.Equal(t, "owner@example.com", confirmation.From.Address)
}

func TestSendContact_Failures(t *testing.T) {
	fake := &fakeSender{responses: []*rest.Response{{StatusCode: 401, Body: `{"errors":[{"message":"bad key"}]}`}}}
	m := &SendGridMailer{client: fake, from: "owner@example.com", to: "owner@example.com"}

	err := m.SendContact(context.Background(), validMessage())
	require.Error(t, err)
	require.False(t, IsConfirmationFailure(err))
	require.Len(t, fake.sent, 1, "no confirmation without owner notification")

	fake = &fakeSender{errs: []error{nil, errors.New("timeout")}}
	m.client = fake
	err = m.SendContact(context.Background(), validMessage())
	require.Error(t, err)
	require.True(t, IsConfirmationFailure(err))
}
