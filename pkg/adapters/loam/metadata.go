package loam

// TemplateMetadata is the front matter of a template document.
// It uses "mapstructure" tags to match the YAML keys.
type TemplateMetadata struct {
	// Intent defaults to the file name without extension.
	Intent string `json:"intent" mapstructure:"intent"`

	// FollowUp is appended on its own line after a successful render.
	FollowUp string `json:"followup" mapstructure:"followup"`
}
