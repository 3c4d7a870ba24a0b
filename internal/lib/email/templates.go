package email

// Template identifies an email template by the base name of its file
// under templates/emails.
type Template string

const (
	// TemplateWelcome is the post-registration welcome message.
	TemplateWelcome Template = "welcome"
)
