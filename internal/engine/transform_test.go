package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformTitle(t *testing.T) {
	tests := []struct {
		title   string
		keyword string
		want    string
	}{
		{"Best Coffee Makers", "french press", "Best Coffee Makers: French Press"},
		{"Is It Worth It?", "french press", "Is It Worth It — French Press?"},
		{"Wait...", "cold brew", "Wait — Cold Brew..."},
		{"Brewing Guide:", "pour over", "Brewing Guide: Pour Over"},
		{"  ", "pour over", "Pour Over"},
		{"SEO basics", "seo tips", "SEO basics: Seo Tips"},
		{"Our FRENCH PRESS review", "french press", "Our FRENCH PRESS review"},
		{"Tips &amp; Tricks", "coffee", "Tips &amp; Tricks: Coffee"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, TransformTitle(tt.title, tt.keyword))
		})
	}
}

func TestTransformTitle_NeverDuplicates(t *testing.T) {
	title := TransformTitle("Best Grinders", "burr grinders")
	again := TransformTitle(title, "burr grinders")

	assert.Equal(t, title, again)
	assert.Equal(t, 1, strings.Count(strings.ToLower(again), "burr grinders"))
}

func TestInsertKeywordNaturally_Paragraph(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Hello world", "Hello world. This relates to french press."},
		{"Hello world!", "Hello world! This relates to french press."},
		{"He said \"yes.\"  ", "He said \"yes.\" This relates to french press."},
		{"", "This relates to french press."},
		{"All about the French Press", "All about the French Press"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InsertKeywordNaturally(tt.text, "french press", PositionParagraph))
	}
}

func TestInsertKeywordNaturally_EmptyKeyword(t *testing.T) {
	assert.Equal(t, "Title", InsertKeywordNaturally("Title", "  ", PositionTitle))
}

func TestTransformFirstParagraph(t *testing.T) {
	tests := []struct {
		name    string
		content string
		keyword string
		want    string
		changed bool
	}{
		{
			name:    "simple",
			content: "<p>Hello world</p><p>Second</p>",
			keyword: "french press",
			want:    "<p>Hello world. This relates to french press.</p><p>Second</p>",
			changed: true,
		},
		{
			name:    "trailing inline element",
			content: `<p>Read <a href="/guide">this guide</a></p>`,
			keyword: "french press",
			want:    `<p>Read <a href="/guide">this guide</a>. This relates to french press.</p>`,
			changed: true,
		},
		{
			name:    "trailing whitespace kept after insertion",
			content: "<p class=\"intro\">Done. \n</p>",
			keyword: "cold brew",
			want:    "<p class=\"intro\">Done. This relates to cold brew. \n</p>",
			changed: true,
		},
		{
			name:    "keyword is escaped",
			content: "<p>Lab notes</p>",
			keyword: "R&D tools",
			want:    "<p>Lab notes. This relates to R&amp;D tools.</p>",
			changed: true,
		},
		{
			name:    "empty paragraphs are skipped",
			content: "<p></p><p>&nbsp;</p><p>Real text</p>",
			keyword: "latte",
			want:    "<p></p><p>&nbsp;</p><p>Real text. This relates to latte.</p>",
			changed: true,
		},
		{
			name:    "already present",
			content: "<p>The best Latte in town</p>",
			keyword: "latte",
			want:    "<p>The best Latte in town</p>",
		},
		{
			name:    "no paragraph",
			content: "<div>Only a div</div>",
			keyword: "latte",
			want:    "<div>Only a div</div>",
		},
		{
			name:    "unclosed paragraph",
			content: "<p>Never closed",
			keyword: "latte",
			want:    "<p>Never closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := TransformFirstParagraph(tt.content, tt.keyword)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransformFirstParagraph_OtherBlocksByteIdentical(t *testing.T) {
	head := "<!-- wp:heading -->\n<h2 class=\"wp-block-heading\">Intro</h2>\n<!-- /wp:heading -->\n\n<!-- wp:paragraph -->\n"
	first := "<p>Grind &amp; brew <em>fresh</em></p>"
	tail := "\n<!-- /wp:paragraph -->\n\n<!-- wp:paragraph -->\n<p>Keep <b>this</b>   exactly&nbsp;as is.</p>\n<!-- /wp:paragraph -->\n<script>var p = '<p>';</script>"

	got, changed := TransformFirstParagraph(head+first+tail, "burr grinder")

	assert.True(t, changed)
	assert.True(t, strings.HasPrefix(got, head))
	assert.True(t, strings.HasSuffix(got, tail))
	assert.Equal(t, "<p>Grind &amp; brew <em>fresh</em>. This relates to burr grinder.</p>", got[len(head):len(got)-len(tail)])
}

func TestFirstParagraph(t *testing.T) {
	text, ok := FirstParagraph("<h1>Title</h1><p>Hello <b>bold</b>   world</p><p>Next</p>")

	assert.True(t, ok)
	assert.Equal(t, "Hello bold world", text)

	_, ok = FirstParagraph("<pre>code</pre>")
	assert.False(t, ok)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Hello world", PlainText("<p>Hello&nbsp;<b>world</b></p><script>alert(1)</script>"))
	assert.Equal(t, "a b", PlainText("  a \n b "))
	assert.Equal(t, "Tips & Tricks", PlainText("Tips &amp; Tricks"))
}

func TestContainsKeyword(t *testing.T) {
	assert.True(t, ContainsKeyword("The Best  Coffee\nMakers", "coffee makers"))
	assert.False(t, ContainsKeyword("Tea kettles", "coffee"))
	assert.False(t, ContainsKeyword("anything", ""))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Hello", Excerpt("<p>Hello world</p>", 5))
	assert.Equal(t, "Hello world", Excerpt("<p>Hello world</p>", 100))
}
