package email

// SendWelcomeEmail sends a welcome email to a newly registered user.
func (c *Client) SendWelcomeEmail(to, firstName string) error {
	data := map[string]string{
		"UserFirstName": firstName,
	}

	return c.SendEmail(
		to,
		"Welcome to AuthBridge!",
		TemplateWelcome,
		data,
	)
}
