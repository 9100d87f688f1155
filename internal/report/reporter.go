// Package report accumulates per-post outcomes and writes the CSV report and error log.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"wpseo/internal/models"
)

// Header is the CSV header row. The first six columns are the canonical report.
var Header = []string{
	"post_id",
	"title",
	"meta_description_updated",
	"keyword_updated",
	"title_updated",
	"paragraph_updated",
	"slug",
	"updated_title",
	"error",
}

// Reporter collects report records and error log entries for one run.
// It is only used from the processing goroutine.
type Reporter struct {
	now     func() time.Time
	records []models.ReportRecord
	errors  []models.ErrorLogEntry
}

// New creates an empty reporter.
func New() *Reporter {
	return &Reporter{now: time.Now}
}

// Add records the outcome of one post.
func (r *Reporter) Add(record models.ReportRecord) {
	r.records = append(r.records, record)
}

// LogError records an error entry. A zero timestamp is filled in.
func (r *Reporter) LogError(entry models.ErrorLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}

	r.errors = append(r.errors, entry)
}

// Records returns the accumulated report records.
func (r *Reporter) Records() []models.ReportRecord {
	return r.records
}

// Errors returns the accumulated error entries.
func (r *Reporter) Errors() []models.ErrorLogEntry {
	return r.errors
}

// WriteReport writes all records as CSV, replacing any existing file.
func (r *Reporter) WriteReport(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(Header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, rec := range r.records {
		if err := w.Write(recordRow(rec)); err != nil {
			return fmt.Errorf("failed to write report row for post %d: %w", rec.PostID, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}

	return f.Close()
}

// WriteErrorLog appends every error entry to path, one line each.
// The file is created even when there are no entries.
func (r *Reporter) WriteErrorLog(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open error log: %w", err)
	}
	defer f.Close()

	for _, entry := range r.errors {
		if _, err := fmt.Fprintln(f, FormatEntry(entry)); err != nil {
			return fmt.Errorf("failed to write error log: %w", err)
		}
	}

	return f.Close()
}

// FormatEntry renders one error log line:
// "<RFC3339 timestamp> post=<id>|global [<kind>] <message>".
func FormatEntry(entry models.ErrorLogEntry) string {
	subject := "global"
	if !entry.IsGlobal() {
		subject = "post=" + strconv.Itoa(entry.PostID)
	}

	kind := entry.Kind
	if kind == "" {
		kind = "error"
	}

	return fmt.Sprintf("%s %s [%s] %s", entry.Timestamp.Format(time.RFC3339), subject, kind, entry.Message)
}

func recordRow(rec models.ReportRecord) []string {
	return []string{
		strconv.Itoa(rec.PostID),
		rec.Title,
		strconv.FormatBool(rec.MetaDescriptionUpdated),
		strconv.FormatBool(rec.KeywordUpdated),
		strconv.FormatBool(rec.TitleUpdated),
		strconv.FormatBool(rec.ParagraphUpdated),
		rec.Slug,
		rec.UpdatedTitle,
		rec.Error,
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	return nil
}
