// Package validator checks a computed post update before it is written.
package validator

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"

	"wpseo/internal/config"
	"wpseo/internal/models"
	"wpseo/pkg/utils"
)

// Validation errors.
var (
	ErrMarkupChanged       = errors.New("markup outside the inserted text changed")
	ErrContentNotPreserved = errors.New("original content is not preserved")
	ErrTitleNotPreserved   = errors.New("original title is not preserved")
	ErrKeywordMissing      = errors.New("keyword is missing")
	ErrKeywordDuplicated   = errors.New("keyword appears more than once")
	ErrKeywordTooLong      = errors.New("keyword has too many words")
	ErrDescriptionTooLong  = errors.New("meta description is too long")
	ErrDescriptionEmpty    = errors.New("meta description is empty")
	ErrContentUnparseable  = errors.New("content could not be tokenized")
)

// Validated fields.
const (
	FieldTitle       = "title"
	FieldContent     = "content"
	FieldKeyword     = "focus_keyword"
	FieldDescription = "meta_description"
)

// recommendedTitleChars is where search results start truncating titles.
const recommendedTitleChars = 60

// ValidationError represents a validation error with context.
type ValidationError struct {
	Err     error
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Field, e.Err, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	IsValid  bool
}

// HasError reports whether field failed validation.
func (r *ValidationResult) HasError(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}

	return false
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "✅ VALID"
	if !r.IsValid {
		status = "❌ INVALID"
	}

	return fmt.Sprintf("%s | Errors: %d | Warnings: %d", status, len(r.Errors), len(r.Warnings))
}

// Proposal is an update together with the values it replaces.
type Proposal struct {
	Keyword    string
	OldTitle   string
	OldContent string
	Update     models.PostUpdate
	Seo        models.SeoMeta
}

// UpdateValidator validates proposals against the generation limits.
type UpdateValidator struct {
	maxKeywordWords     int
	maxDescriptionChars int
}

// NewUpdateValidator creates a validator using the configured limits.
func NewUpdateValidator(cfg *config.Config) *UpdateValidator {
	return &UpdateValidator{
		maxKeywordWords:     cfg.Generation.MaxKeywordWords,
		maxDescriptionChars: cfg.Generation.MaxDescriptionChars,
	}
}

// Validate checks every field the proposal writes.
func (v *UpdateValidator) Validate(p Proposal) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	add := func(field string, err error, value string) {
		if err == nil {
			return
		}

		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{
			Field: field,
			Err:   err,
			Value: utils.TruncateRunes(value, 80, "..."),
		})
	}

	if p.Update.Title != nil {
		add(FieldTitle, ValidateTitle(p.OldTitle, *p.Update.Title, p.Keyword), *p.Update.Title)

		if utf8.RuneCountInString(*p.Update.Title) > recommendedTitleChars {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("title exceeds %d characters", recommendedTitleChars))
		}
	}

	if p.Update.Content != nil {
		add(FieldContent, ValidateContent(p.OldContent, *p.Update.Content), "")
	}

	if p.Seo.HasKeyword() {
		add(FieldKeyword, v.validateKeyword(p.Seo.FocusKeyword), p.Seo.FocusKeyword)
	}

	if p.Seo.HasDescription() {
		add(FieldDescription, v.validateDescription(p.Seo.MetaDescription), p.Seo.MetaDescription)
	}

	return result
}

func (v *UpdateValidator) validateKeyword(keyword string) error {
	if v.maxKeywordWords > 0 && utils.WordCount(keyword) > v.maxKeywordWords {
		return ErrKeywordTooLong
	}

	return nil
}

func (v *UpdateValidator) validateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return ErrDescriptionEmpty
	}

	if v.maxDescriptionChars > 0 && utf8.RuneCountInString(description) > v.maxDescriptionChars {
		return ErrDescriptionTooLong
	}

	return nil
}

// ValidateTitle checks that after keeps the original title text and holds the keyword exactly once.
func ValidateTitle(before, after, keyword string) error {
	base := strings.TrimRightFunc(strings.TrimSpace(before), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})

	if !strings.HasPrefix(after, base) {
		return ErrTitleNotPreserved
	}

	switch strings.Count(strings.ToLower(after), strings.ToLower(strings.TrimSpace(keyword))) {
	case 0:
		return ErrKeywordMissing
	case 1:
		return nil
	default:
		return ErrKeywordDuplicated
	}
}

// ValidateContent checks that after equals before plus one inserted run of
// plain text, leaving every tag byte-identical.
func ValidateContent(before, after string) error {
	if len(after) <= len(before) {
		return ErrContentNotPreserved
	}

	prefix := commonPrefix(before, after)
	if !strings.HasSuffix(after, before[prefix:]) {
		return ErrContentNotPreserved
	}

	beforeTags, err := tagSequence(before)
	if err != nil {
		return err
	}

	afterTags, err := tagSequence(after)
	if err != nil {
		return err
	}

	if len(beforeTags) != len(afterTags) {
		return fmt.Errorf("%w: %d tags became %d", ErrMarkupChanged, len(beforeTags), len(afterTags))
	}

	for i := range beforeTags {
		if beforeTags[i] != afterTags[i] {
			return fmt.Errorf("%w: %q became %q", ErrMarkupChanged, beforeTags[i], afterTags[i])
		}
	}

	return nil
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))

	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}

	return n
}

// tagSequence returns the raw bytes of every non-text token.
func tagSequence(content string) ([]string, error) {
	z := nethtml.NewTokenizer(strings.NewReader(content))

	var tags []string

	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				return nil, fmt.Errorf("%w: %w", ErrContentUnparseable, z.Err())
			}

			return tags, nil
		case nethtml.TextToken:
			continue
		default:
			tags = append(tags, string(z.Raw()))
		}
	}
}
