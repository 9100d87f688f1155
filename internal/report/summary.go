package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"wpseo/internal/models"
)

const titleColumnWidth = 48

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Summary counts the outcomes of a run.
type Summary struct {
	Processed           int
	Succeeded           int
	Failed              int
	Unchanged           int
	DescriptionsUpdated int
	KeywordsUpdated     int
	TitlesUpdated       int
	ParagraphsUpdated   int
	ErrorEntries        int
}

// Summary tallies the records collected so far. A post counts as failed when
// its record carries an error, even if some fields were written.
func (r *Reporter) Summary() Summary {
	s := Summary{
		Processed:    len(r.records),
		ErrorEntries: len(r.errors),
	}

	for _, rec := range r.records {
		if rec.Failed() {
			s.Failed++
		} else {
			s.Succeeded++
		}

		if !rec.Changed() && !rec.Failed() {
			s.Unchanged++
		}

		if rec.MetaDescriptionUpdated {
			s.DescriptionsUpdated++
		}

		if rec.KeywordUpdated {
			s.KeywordsUpdated++
		}

		if rec.TitleUpdated {
			s.TitlesUpdated++
		}

		if rec.ParagraphUpdated {
			s.ParagraphsUpdated++
		}
	}

	return s
}

// PrintSummary writes a per-post table, the totals and the output file paths.
func (r *Reporter) PrintSummary(w io.Writer, reportPath, errorLogPath string) {
	s := r.Summary()

	if len(r.records) > 0 {
		rows := make([][]string, 0, len(r.records))
		for _, rec := range r.records {
			rows = append(rows, []string{
				strconv.Itoa(rec.PostID),
				truncateCell(rec.Title, titleColumnWidth),
				mark(rec.MetaDescriptionUpdated),
				mark(rec.KeywordUpdated),
				mark(rec.TitleUpdated),
				mark(rec.ParagraphUpdated),
				status(rec),
			})
		}

		header := []string{"ID", "Title", "Desc", "Keyword", "Title", "Para", "Status"}
		for _, line := range renderTable(header, rows) {
			fmt.Fprintln(w, line)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, bold("📊 Optimization summary"))
	fmt.Fprintf(w, "   Processed:   %d\n", s.Processed)
	fmt.Fprintf(w, "   Succeeded:   %s\n", green(s.Succeeded))

	failed := fmt.Sprint(s.Failed)
	if s.Failed > 0 {
		failed = red(s.Failed)
	}

	fmt.Fprintf(w, "   Failed:      %s\n", failed)
	fmt.Fprintf(w, "   Unchanged:   %d\n", s.Unchanged)
	fmt.Fprintf(w, "   Updated:     %d descriptions, %d keywords, %d titles, %d paragraphs\n",
		s.DescriptionsUpdated, s.KeywordsUpdated, s.TitlesUpdated, s.ParagraphsUpdated)

	if s.ErrorEntries > 0 {
		fmt.Fprintf(w, "   Errors:      %s\n", yellow(s.ErrorEntries))
	}

	fmt.Fprintf(w, "📄 Report:    %s\n", reportPath)
	fmt.Fprintf(w, "📝 Error log: %s\n", errorLogPath)
}

func mark(updated bool) string {
	if updated {
		return "yes"
	}

	return "-"
}

func status(rec models.ReportRecord) string {
	switch {
	case rec.Failed():
		return "failed"
	case rec.Changed():
		return "updated"
	default:
		return "no changes"
	}
}
