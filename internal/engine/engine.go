// Package engine decides which SEO fields a post needs and computes the new values.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wpseo/internal/logger"
	"wpseo/internal/models"
)

// Generation failures, wrapped around the generator's own error.
var (
	ErrKeywordGeneration     = errors.New("keyword generation failed")
	ErrDescriptionGeneration = errors.New("meta description generation failed")
)

// Generator produces focus keywords and meta descriptions.
type Generator interface {
	GenerateKeyword(ctx context.Context, title, excerpt string) (string, error)
	GenerateMetaDescription(ctx context.Context, title, keyword, excerpt string) (string, error)
}

// Input is everything the engine knows about one post.
type Input struct {
	// Title and Content are the raw (edit context) values.
	Title   string
	Content string
	// Seo holds the logical Rank Math fields.
	Seo models.SeoMeta
	// YoastDescription is non-empty when Yoast already provides a description.
	YoastDescription string
}

// Decision records what a post needs and the values to write.
type Decision struct {
	NeedsKeyword         bool
	NeedsMetaDescription bool
	NeedsTitleUpdate     bool
	NeedsParagraphUpdate bool

	// Keyword is the resolved focus keyword, existing or generated.
	Keyword        string
	NewTitle       string
	NewContent     string
	NewDescription string

	// Warnings are accepted oddities such as a description without the keyword.
	Warnings []string
	// DescriptionErr is set when the description was needed but could not be generated.
	DescriptionErr error
}

// SeoUpdate returns the logical SEO fields this decision writes.
func (d *Decision) SeoUpdate() models.SeoMeta {
	var m models.SeoMeta

	if d.NeedsKeyword {
		m.FocusKeyword = d.Keyword
	}

	if d.NeedsMetaDescription && d.NewDescription != "" {
		m.MetaDescription = d.NewDescription
	}

	return m
}

// Engine evaluates posts against the keyword rules.
type Engine struct {
	generator    Generator
	excerptChars int
	logger       *logger.Logger
}

// New creates an engine. excerptChars bounds the content passed to the generator.
func New(generator Generator, excerptChars int, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}

	return &Engine{
		generator:    generator,
		excerptChars: excerptChars,
		logger:       log,
	}
}

// Decide applies the decision rules for an already resolved keyword.
// It performs no generation and no transforms.
func Decide(in Input, keyword string) Decision {
	keyword = strings.TrimSpace(keyword)

	d := Decision{
		NeedsKeyword: !in.Seo.HasKeyword(),
		Keyword:      keyword,
	}

	d.NeedsMetaDescription = NeedsMetaDescription(in.YoastDescription, in.Seo.MetaDescription, keyword)

	if keyword == "" {
		return d
	}

	d.NeedsTitleUpdate = !ContainsKeyword(PlainText(in.Title), keyword)

	if first, ok := FirstParagraph(in.Content); ok {
		d.NeedsParagraphUpdate = !ContainsKeyword(first, keyword)
	}

	return d
}

// NeedsMetaDescription reports whether a Rank Math description must be generated.
// A Yoast description always wins.
func NeedsMetaDescription(yoastDescription, description, keyword string) bool {
	if strings.TrimSpace(yoastDescription) != "" {
		return false
	}

	if strings.TrimSpace(description) == "" {
		return true
	}

	return !ContainsKeyword(description, keyword)
}

// Evaluate resolves the keyword, applies the decision rules and computes new values.
// A keyword generation failure returns an error and no decision; a description
// failure is recorded on the decision so the other fields can still be written.
func (e *Engine) Evaluate(ctx context.Context, in Input) (*Decision, error) {
	title := PlainText(in.Title)
	excerpt := Excerpt(in.Content, e.excerptChars)

	keyword := strings.TrimSpace(in.Seo.FocusKeyword)
	if keyword == "" {
		generated, err := e.generator.GenerateKeyword(ctx, title, excerpt)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeywordGeneration, err)
		}

		keyword = strings.TrimSpace(generated)
		if keyword == "" {
			return nil, fmt.Errorf("%w: empty keyword", ErrKeywordGeneration)
		}

		e.logger.Debug("Generated focus keyword", "keyword", keyword)
	}

	d := Decide(in, keyword)

	if d.NeedsMetaDescription {
		description, err := e.generator.GenerateMetaDescription(ctx, title, keyword, excerpt)
		if err != nil {
			d.DescriptionErr = fmt.Errorf("%w: %w", ErrDescriptionGeneration, err)
		} else {
			d.NewDescription = strings.TrimSpace(description)
			if !ContainsKeyword(d.NewDescription, keyword) {
				d.Warnings = append(d.Warnings, "generated meta description omits the focus keyword")
				e.logger.Warn("Meta description omits focus keyword",
					"keyword", keyword,
					"description", d.NewDescription,
				)
			}
		}
	}

	if d.NeedsTitleUpdate {
		d.NewTitle = TransformTitle(in.Title, keyword)
	}

	if d.NeedsParagraphUpdate {
		content, changed := TransformFirstParagraph(in.Content, keyword)
		if changed {
			d.NewContent = content
		} else {
			d.NeedsParagraphUpdate = false
		}
	}

	return &d, nil
}

// TransformTitle appends the keyword to the title unless its plain text already contains it.
func TransformTitle(title, keyword string) string {
	if ContainsKeyword(PlainText(title), keyword) {
		return title
	}

	return InsertKeywordNaturally(title, keyword, PositionTitle)
}
