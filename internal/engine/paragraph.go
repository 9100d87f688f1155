package engine

import (
	"html"
	"strings"
	"unicode"

	nethtml "golang.org/x/net/html"

	"wpseo/pkg/utils"
)

// paragraph locates the first non-empty <p> element of an HTML document by byte offsets.
type paragraph struct {
	text     string
	insertAt int // after the last non-space text, or before </p>
}

// findFirstParagraph walks the token stream without re-rendering, so offsets
// refer to the original bytes.
func findFirstParagraph(content string) (paragraph, bool) {
	z := nethtml.NewTokenizer(strings.NewReader(content))

	var (
		offset  int
		inside  bool
		current paragraph
		text    strings.Builder
	)

	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			return paragraph{}, false
		}

		start := offset
		offset += len(z.Raw())

		switch tt {
		case nethtml.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "p" && !inside {
				inside = true
				current = paragraph{}
				text.Reset()
			}

		case nethtml.EndTagToken:
			if !inside {
				continue
			}

			name, _ := z.TagName()
			if string(name) != "p" {
				// Keep appended text outside inline elements such as links.
				if current.insertAt != 0 {
					current.insertAt = offset
				}

				continue
			}

			inside = false

			if strings.TrimSpace(text.String()) == "" {
				continue
			}

			current.text = text.String()

			if current.insertAt == 0 {
				current.insertAt = start
			}

			return current, true

		case nethtml.TextToken:
			if !inside {
				continue
			}

			text.Write(z.Text())

			trimmed := strings.TrimRightFunc(content[start:offset], unicode.IsSpace)
			if trimmed != "" {
				current.insertAt = start + len(trimmed)
			}
		}
	}
}

// FirstParagraph returns the plain text of the first non-empty paragraph.
func FirstParagraph(content string) (string, bool) {
	p, ok := findFirstParagraph(content)
	if !ok {
		return "", false
	}

	return utils.NormalizeWhitespace(p.text), true
}

// TransformFirstParagraph appends a keyword sentence to the first paragraph.
// Everything outside the inserted text is byte-identical to content.
// It reports false when there is no paragraph or the keyword is already present.
func TransformFirstParagraph(content, keyword string) (string, bool) {
	p, ok := findFirstParagraph(content)
	if !ok {
		return content, false
	}

	plain := utils.NormalizeWhitespace(p.text)

	updated := InsertKeywordNaturally(plain, keyword, PositionParagraph)
	if updated == plain {
		return content, false
	}

	suffix := paragraphSuffix(plain, strings.TrimSpace(keyword))

	var sb strings.Builder
	sb.Grow(len(content) + len(suffix) + 16)
	sb.WriteString(content[:p.insertAt])
	sb.WriteString(html.EscapeString(suffix))
	sb.WriteString(content[p.insertAt:])

	return sb.String(), true
}
