package models

// SeoMeta is the logical SEO record of a post, independent of the plugin that stores it.
// Empty strings mean absent.
type SeoMeta struct {
	FocusKeyword    string `json:"focus_keyword,omitempty"`
	MetaDescription string `json:"description,omitempty"`
}

// HasKeyword reports whether a focus keyword is set.
func (m SeoMeta) HasKeyword() bool {
	return m.FocusKeyword != ""
}

// HasDescription reports whether a meta description is set.
func (m SeoMeta) HasDescription() bool {
	return m.MetaDescription != ""
}
