// Package mailer delivers contact form messages through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const senderName = "Podium App"

var (
	ErrNotConfigured = errors.New("email delivery is not configured")
	ErrInvalidInput  = errors.New("invalid contact message")

	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

type ContactMessage struct {
	Name    string `json:"name" example:"Sam Doe"`
	Email   string `json:"email" example:"sam@example.com"`
	Message string `json:"message" example:"I love the leaderboard, any plans for teams?"`
}

// Validate trims the fields in place and checks the minimum lengths.
func (m *ContactMessage) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)

	switch {
	case m.Name == "" || m.Email == "" || m.Message == "":
		return fmt.Errorf("%w: please fill out all fields", ErrInvalidInput)
	case len([]rune(m.Name)) < 2:
		return fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidInput)
	case !emailPattern.MatchString(m.Email):
		return fmt.Errorf("%w: please enter a valid email address", ErrInvalidInput)
	case len([]rune(m.Message)) < 10:
		return fmt.Errorf("%w: message must be at least 10 characters", ErrInvalidInput)
	}
	return nil
}

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type Options struct {
	APIKey string
	// From is the verified sender address; To receives contact messages and
	// defaults to From.
	From string
	To   string
}

type SendGridMailer struct {
	client sender
	from   string
	to     string
}

// NewSendGridMailer returns a mailer that reports ErrNotConfigured on every
// send when the API key or sender address is missing.
func NewSendGridMailer(opts Options) *SendGridMailer {
	m := &SendGridMailer{
		from: strings.TrimSpace(opts.From),
		to:   strings.TrimSpace(opts.To),
	}
	if m.to == "" {
		m.to = m.from
	}
	if key := strings.TrimSpace(opts.APIKey); key != "" && m.from != "" {
		m.client = sendgrid.NewSendClient(key)
	}
	return m
}

func (m *SendGridMailer) Configured() bool {
	return m.client != nil
}

// SendContact forwards the message to the site owner and sends the author a
// confirmation. Only a failed owner notification is an error.
func (m *SendGridMailer) SendContact(ctx context.Context, msg ContactMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if m.client == nil {
		return ErrNotConfigured
	}

	from := mail.NewEmail(senderName, m.from)

	ownerMail := mail.NewSingleEmail(
		from,
		fmt.Sprintf("New Contact Message from %s", msg.Name),
		mail.NewEmail("Podium", m.to),
		ownerText(msg),
		ownerHTML(msg),
	)
	ownerMail.SetReplyTo(mail.NewEmail(msg.Name, msg.Email))
	if err := m.send(ctx, ownerMail); err != nil {
		return fmt.Errorf("notify owner: %w", err)
	}

	confirmation := mail.NewSingleEmail(
		from,
		"Thanks for contacting Podium",
		mail.NewEmail(msg.Name, msg.Email),
		confirmationText(msg),
		confirmationHTML(msg),
	)
	if err := m.send(ctx, confirmation); err != nil {
		return fmt.Errorf("%w: confirmation: %v", errConfirmation, err)
	}
	return nil
}

var errConfirmation = errors.New("confirmation email not sent")

// IsConfirmationFailure reports whether only the courtesy copy failed.
func IsConfirmationFailure(err error) bool {
	return errors.Is(err, errConfirmation)
}

func (m *SendGridMailer) send(ctx context.Context, message *mail.SGMailV3) error {
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	return nil
}

func ownerText(msg ContactMessage) string {
	return fmt.Sprintf("You have a new message from the Podium contact form:\n\nName: %s\nEmail: %s\n\nMessage:\n%s\n",
		msg.Name, msg.Email, msg.Message)
}

func ownerHTML(msg ContactMessage) string {
	return fmt.Sprintf(`<h2>You have a new message from the Podium contact form:</h2>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>`,
		html.EscapeString(msg.Name), html.EscapeString(msg.Email), html.EscapeString(msg.Message))
}

func confirmationText(msg ContactMessage) string {
	return fmt.Sprintf("Hi %s,\n\nThanks for reaching out. We received your message and will get back to you soon.\n\nYour message:\n%s\n\nThe Podium team\n",
		msg.Name, msg.Message)
}

func confirmationHTML(msg ContactMessage) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for reaching out. We received your message and will get back to you soon.</p>
<blockquote>%s</blockquote>
<p>The Podium team</p>`,
		html.EscapeString(msg.Name), html.EscapeString(msg.Message))
}
