package validator

import (
	"errors"
	"strings"
	"testing"

	"wpseo/internal/config"
	"wpseo/internal/models"
)

func strPtr(s string) *string { return &s }

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		before  string
		after   string
		keyword string
		wantErr error
	}{
		{"appended", "Best Grinders", "Best Grinders: Burr Grinders", "burr grinders", nil},
		{"before punctuation", "Is It Worth It?", "Is It Worth It — Moka Pot?", "moka pot", nil},
		{"rewritten", "Best Grinders", "Top Grinders: Burr Grinders", "burr grinders", ErrTitleNotPreserved},
		{"missing keyword", "Best Grinders", "Best Grinders: Coffee", "burr grinders", ErrKeywordMissing},
		{"duplicated", "Best Grinders", "Best Grinders: Burr Grinders Burr Grinders", "burr grinders", ErrKeywordDuplicated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.before, tt.after, tt.keyword)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTitle() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateContent(t *testing.T) {
	before := "<!-- wp:paragraph -->\n<p>Hello</p>\n<!-- /wp:paragraph -->\n<p>Rest</p>"

	tests := []struct {
		name    string
		after   string
		wantErr error
	}{
		{"text inserted", strings.Replace(before, "Hello", "Hello. This relates to tea.", 1), nil},
		{"unchanged", before, ErrContentNotPreserved},
		{"second paragraph rewritten", strings.Replace(before, "Rest", "Best and more", 1), ErrContentNotPreserved},
		{"tag inserted", strings.Replace(before, "Hello", "Hello<br>", 1), ErrMarkupChanged},
		{"attribute added", strings.Replace(before, "<p>Hello", "<p class=\"x\">Hello", 1), ErrMarkupChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(before, tt.after)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateContent() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateValidator_Validate(t *testing.T) {
	v := NewUpdateValidator(config.Default())

	result := v.Validate(Proposal{
		Keyword:    "cold brew",
		OldTitle:   "Summer Drinks",
		OldContent: "<p>Ice.</p>",
		Update: models.PostUpdate{
			Title:   strPtr("Summer Drinks: Cold Brew"),
			Content: strPtr("<p>Ice. This relates to cold brew.</p>"),
		},
		Seo: models.SeoMeta{FocusKeyword: "cold brew", MetaDescription: "Cold brew at home."},
	})

	if !result.IsValid {
		t.Fatalf("expected valid result, got %v", result.Errors)
	}

	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestUpdateValidator_ValidateReportsEachField(t *testing.T) {
	v := NewUpdateValidator(config.Default())

	result := v.Validate(Proposal{
		Keyword:    "cold brew",
		OldTitle:   "Summer Drinks",
		OldContent: "<p>Ice.</p>",
		Update: models.PostUpdate{
			Title:   strPtr("Winter Drinks: Cold Brew"),
			Content: strPtr("<p>Ice.</p><p>Cold brew.</p>"),
		},
		Seo: models.SeoMeta{
			FocusKeyword:    "a b c d e f g",
			MetaDescription: strings.Repeat("x", 161),
		},
	})

	if result.IsValid {
		t.Fatal("expected invalid result")
	}

	for _, field := range []string{FieldTitle, FieldContent, FieldKeyword, FieldDescription} {
		if !result.HasError(field) {
			t.Errorf("expected error for %s, got %v", field, result.Errors)
		}
	}

	if !strings.Contains(result.String(), "INVALID") {
		t.Errorf("String() = %s", result.String())
	}
}

func TestUpdateValidator_LongTitleWarns(t *testing.T) {
	v := NewUpdateValidator(config.Default())
	old := strings.Repeat("Very long title ", 4)
	title := strings.TrimSpace(old) + ": Cold Brew"

	result := v.Validate(Proposal{
		Keyword:  "cold brew",
		OldTitle: old,
		Update:   models.PostUpdate{Title: &title},
	})

	if !result.IsValid {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if len(result.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", result.Warnings)
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := error(ValidationError{Field: FieldKeyword, Err: ErrKeywordTooLong})

	if !errors.Is(err, ErrKeywordTooLong) {
		t.Error("ValidationError does not unwrap to its cause")
	}

	if err.Error() != "focus_keyword: keyword has too many words" {
		t.Errorf("Error() = %q", err.Error())
	}
}
