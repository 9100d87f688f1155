package engine

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wpseo/pkg/utils"
)

// PlainText renders an HTML fragment as whitespace-normalised text.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return utils.NormalizeWhitespace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return utils.NormalizeWhitespace(fragment)
	}

	doc.Find("script, style, noscript").Remove()

	return utils.NormalizeWhitespace(doc.Text())
}

// Excerpt returns at most maxChars runes of the fragment's plain text.
func Excerpt(fragment string, maxChars int) string {
	return utils.TruncateRunes(PlainText(fragment), maxChars, "")
}

// ContainsKeyword reports whether keyword occurs in text, ignoring case and
// differences in whitespace. An empty keyword is never contained.
func ContainsKeyword(text, keyword string) bool {
	keyword = strings.ToLower(utils.NormalizeWhitespace(keyword))
	if keyword == "" {
		return false
	}

	return strings.Contains(strings.ToLower(utils.NormalizeWhitespace(text)), keyword)
}
