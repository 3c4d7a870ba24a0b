package email

// PreviewData contains sample template data for local preview/testing,
// keyed by template name.
var PreviewData = map[string]map[string]string{
	"welcome": {
		"UserFirstName": "John",
	},
}
