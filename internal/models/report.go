package models

import "time"

// ReportRecord is one row of the run report.
type ReportRecord struct {
	Slug                   string
	Title                  string
	UpdatedTitle           string
	Error                  string
	PostID                 int
	MetaDescriptionUpdated bool
	KeywordUpdated         bool
	TitleUpdated           bool
	ParagraphUpdated       bool
}

// Changed reports whether anything was written for the post.
func (r ReportRecord) Changed() bool {
	return r.MetaDescriptionUpdated || r.KeywordUpdated || r.TitleUpdated || r.ParagraphUpdated
}

// Failed reports whether processing the post hit an error.
func (r ReportRecord) Failed() bool {
	return r.Error != ""
}

// ErrorLogEntry is one line of the error log. PostID 0 marks a global error.
type ErrorLogEntry struct {
	Timestamp time.Time
	Kind      string
	Message   string
	PostID    int
}

// IsGlobal reports whether the entry is not tied to a post.
func (e ErrorLogEntry) IsGlobal() bool {
	return e.PostID == 0
}
