package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// renderTable lays out a header and rows as an aligned pipe table.
// Widths use display width so wide runes stay aligned.
func renderTable(header []string, rows [][]string) []string {
	colCount := len(header)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	measure := func(row []string) {
		for i := 0; i < len(row) && i < colCount; i++ {
			if w := runewidth.StringWidth(row[i]); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	measure(header)

	for _, row := range rows {
		measure(row)
	}

	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	separator := make([]string, colCount)
	for i, w := range colWidths {
		separator[i] = strings.Repeat("-", w)
	}

	result := []string{formatRow(header, colWidths), formatRow(separator, colWidths)}
	for _, row := range rows {
		result = append(result, formatRow(row, colWidths))
	}

	return result
}

func formatRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(content, width))
		sb.WriteString(" |")
	}

	return sb.String()
}

// truncateCell shortens s to maxWidth display columns.
func truncateCell(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "…")
}
