package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Position selects the insertion heuristic.
type Position int

const (
	// PositionTitle appends the keyword as a subtitle.
	PositionTitle Position = iota
	// PositionParagraph appends a closing sentence naming the keyword.
	PositionParagraph
)

// InsertKeywordNaturally adds keyword to text unless it is already there.
// The result is a best-effort phrasing; it never repeats the keyword.
func InsertKeywordNaturally(text, keyword string, position Position) string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || ContainsKeyword(text, keyword) {
		return text
	}

	switch position {
	case PositionTitle:
		return insertIntoTitle(text, keyword)
	case PositionParagraph:
		return strings.TrimRightFunc(text, unicode.IsSpace) + paragraphSuffix(text, keyword)
	}

	return text
}

// insertIntoTitle appends ": Keyword", or " — Keyword" ahead of trailing
// terminal punctuation, which is kept.
func insertIntoTitle(title, keyword string) string {
	// Casers carry state, so one is built per call.
	kw := cases.Title(language.English, cases.NoLower).String(keyword)

	title = strings.TrimSpace(title)
	if title == "" {
		return kw
	}

	base := strings.TrimRightFunc(title, isTerminal)
	if base != title {
		trailing := title[len(base):]
		return strings.TrimRightFunc(base, unicode.IsSpace) + " — " + kw + trailing
	}

	base = strings.TrimRightFunc(title, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(":;,-–—|", r)
	})

	return base + ": " + kw
}

// paragraphSuffix is the text appended to a paragraph: terminal punctuation if
// the paragraph lacks it, then a sentence naming the keyword.
func paragraphSuffix(text, keyword string) string {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if trimmed == "" {
		return "This relates to " + keyword + "."
	}

	last, _ := utf8.DecodeLastRuneInString(trimmed)
	if isTerminal(last) || isClosingQuote(last) {
		return " This relates to " + keyword + "."
	}

	return ". This relates to " + keyword + "."
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}

	return false
}

func isClosingQuote(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', ')':
		return true
	}

	return false
}
