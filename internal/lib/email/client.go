// Package email provides an email sending client.
//
// It uses Resend (resend-go) as the provider and renders HTML bodies
// from templates on disk.
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/kterra/authbridge/internal/config"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

const (
	senderName    = "AuthBridge"
	senderAddress = "onboarding@resend.dev"
	templateDir   = "templates/emails"
)

// Client wraps the Resend client and a logger.
type Client struct {
	client *resend.Client
	logger *zerolog.Logger
}

// NewClient creates an email Client with the API key from config.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		client: resend.NewClient(cfg.Integration.ResendAPIKey),
		logger: logger,
	}
}

// SendEmail renders the named template with data and sends it.
//
// Template files live under templates/emails/<name>.html; the data map
// keys must match what the template references.
func (c *Client) SendEmail(to, subject string, templateName Template, data map[string]string) error {
	tmplPath := fmt.Sprintf("%s/%s.html", templateDir, templateName)

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return errors.Wrapf(err, "failed to parse email template %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return errors.Wrapf(err, "failed to execute email template %s", templateName)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", senderName, senderAddress),
		To:      []string{to},
		Subject: subject,
		Html:    body.String(),
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Debug().
		Str("to", to).
		Str("template", string(templateName)).
		Msg("email sent")

	return nil
}
