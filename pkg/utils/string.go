package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeWhitespace replaces runs of whitespace with a single space.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateRunes cuts str to at most maxRunes runes, replacing the tail with suffix when it cuts.
// The suffix counts toward the limit.
func TruncateRunes(str string, maxRunes int, suffix string) string {
	if maxRunes <= 0 {
		return ""
	}

	if utf8.RuneCountInString(str) <= maxRunes {
		return str
	}

	keep := maxRunes - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
		suffix = string([]rune(suffix)[:maxRunes])
	}

	return strings.TrimRightFunc(string([]rune(str)[:keep]), unicode.IsSpace) + suffix
}

// WordCount returns the number of whitespace separated words.
func WordCount(str string) int {
	return len(strings.Fields(str))
}

// TrimWrapping strips quotes, backticks and surrounding punctuation a model tends to
// wrap short answers in.
func TrimWrapping(str string) string {
	return strings.TrimFunc(strings.TrimSpace(str), func(r rune) bool {
		switch r {
		case '"', '\'', '`', '*', '“', '”', '‘', '’', '«', '»':
			return true
		}

		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '%' && r != '&' && r != '#' && r != '+')
	})
}
