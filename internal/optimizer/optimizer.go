// Package optimizer runs the sequential batch over every published post.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wpseo/internal/engine"
	"wpseo/internal/logger"
	"wpseo/internal/models"
	"wpseo/internal/report"
	"wpseo/internal/seo"
	"wpseo/internal/validator"
	"wpseo/internal/wordpress"
)

// ErrAborted wraps failures that stop the run before any post is processed.
var ErrAborted = errors.New("optimization run aborted")

// ErrorKind classifies the entries written to the error log.
type ErrorKind string

// Error kinds recorded per post or globally.
const (
	KindFetch      ErrorKind = "fetch"
	KindGeneration ErrorKind = "generation"
	KindValidation ErrorKind = "validation"
	KindWrite      ErrorKind = "write"
	KindRun        ErrorKind = "run"
)

// Options control pacing, dry runs and output locations.
type Options struct {
	ReportPath   string
	ErrorLogPath string
	PostDelay    time.Duration
	DryRun       bool
}

// Optimizer wires the content client, the engine and the reporter together.
type Optimizer struct {
	wp        wordpress.Client
	engine    *engine.Engine
	adapter   *seo.Adapter
	validator *validator.UpdateValidator
	reporter  *report.Reporter
	logger    *logger.Logger
	opts      Options
	runID     string
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates an optimizer. Each optimizer gets its own run id for log correlation.
func New(wp wordpress.Client, eng *engine.Engine, v *validator.UpdateValidator, reporter *report.Reporter, opts Options, log *logger.Logger) *Optimizer {
	if log == nil {
		log = logger.Discard()
	}

	runID := uuid.NewString()

	return &Optimizer{
		wp:        wp,
		engine:    eng,
		adapter:   seo.NewAdapter(),
		validator: v,
		reporter:  reporter,
		logger:    log.With("run_id", runID),
		opts:      opts,
		runID:     runID,
		sleep:     sleepContext,
	}
}

// RunID identifies this run in the logs.
func (o *Optimizer) RunID() string {
	return o.runID
}

// Run authenticates, lists every published post and processes them one by one.
// Authentication and listing failures abort the run before anything is written.
// Per-post failures are recorded and never stop the batch.
func (o *Optimizer) Run(ctx context.Context) (*report.Summary, error) {
	o.logger.Info("🔐 Authenticating with WordPress...")

	if err := o.wp.Authenticate(ctx); err != nil {
		o.logger.Error("Authentication failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	o.logger.Info("📥 Fetching published posts...")

	posts, err := o.wp.ListPublishedPosts(ctx)
	if err != nil {
		o.logger.Error("Failed to list posts", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	o.logger.Info(fmt.Sprintf("Found %d published posts", len(posts)))

	if o.opts.DryRun {
		o.logger.Warn("Dry run: no post will be modified")
	}

	var runErr error

	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			runErr = o.interrupted(i, len(posts), err)
			break
		}

		o.logger.Info(fmt.Sprintf("Processing post %d/%d (ID: %d)", i+1, len(posts), post.ID))

		o.reporter.Add(o.ProcessPost(ctx, post))

		if i < len(posts)-1 {
			if err := o.sleep(ctx, o.opts.PostDelay); err != nil {
				runErr = o.interrupted(i+1, len(posts), err)
				break
			}
		}
	}

	if err := o.writeOutputs(); err != nil {
		return nil, err
	}

	summary := o.reporter.Summary()

	o.logger.Info("✅ Run complete",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	return &summary, runErr
}

func (o *Optimizer) interrupted(done, total int, err error) error {
	o.logger.Warn(fmt.Sprintf("Run interrupted after %d/%d posts", done, total), "error", err)
	o.reporter.LogError(models.ErrorLogEntry{
		Kind:    string(KindRun),
		Message: fmt.Sprintf("run interrupted after %d/%d posts: %v", done, total, err),
	})

	return err
}

func (o *Optimizer) writeOutputs() error {
	if err := o.reporter.WriteReport(o.opts.ReportPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := o.reporter.WriteErrorLog(o.opts.ErrorLogPath); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}

	return nil
}

// ProcessPost evaluates one post, writes the changed fields in a single update
// and returns the report record. It never returns an error; failures are
// logged and carried on the record.
func (o *Optimizer) ProcessPost(ctx context.Context, post models.Post) models.ReportRecord {
	log := o.logger.With("post_id", post.ID)

	record := models.ReportRecord{
		PostID: post.ID,
		Slug:   post.Slug,
		Title:  engine.PlainText(post.Title.Value()),
	}

	var problems []string

	fail := func(kind ErrorKind, err error) {
		problems = append(problems, err.Error())
		o.reporter.LogError(models.ErrorLogEntry{
			PostID:  post.ID,
			Kind:    string(kind),
			Message: err.Error(),
		})
	}

	full, fetched := o.loadPost(ctx, post, log)
	if fetched && full.YoastHead == nil {
		full.YoastHead = post.YoastHead
	}

	editable := full.Title.Raw != "" || full.Content.Raw != ""
	if !editable {
		log.Warn("Raw title and content unavailable; only SEO fields will be written")
	}

	res := o.adapter.Resolve(full.SeoPayload())
	log.Debug("Resolved SEO fields",
		"schema", res.Authority,
		"keyword", res.Meta.FocusKeyword,
		"has_description", res.Meta.HasDescription(),
		"has_yoast_description", res.YoastDescription != "",
	)

	decision, err := o.engine.Evaluate(ctx, engine.Input{
		Title:            full.Title.Value(),
		Content:          full.Content.Value(),
		Seo:              res.Meta,
		YoastDescription: res.YoastDescription,
	})
	if err != nil {
		log.Error("❌ Keyword generation failed", "error", err)
		fail(KindGeneration, err)
		record.Error = strings.Join(problems, "; ")

		return record
	}

	if decision.DescriptionErr != nil {
		log.Error("Meta description generation failed", "error", decision.DescriptionErr)
		fail(KindGeneration, decision.DescriptionErr)
	}

	seoUpdate := decision.SeoUpdate()
	update := models.PostUpdate{
		Meta: o.adapter.WriteFields(res, seoUpdate),
	}

	if editable && decision.NeedsTitleUpdate && decision.NewTitle != "" {
		update.Title = &decision.NewTitle
	}

	if editable && decision.NeedsParagraphUpdate && decision.NewContent != "" {
		update.Content = &decision.NewContent
	}

	result := o.validator.Validate(validator.Proposal{
		Keyword:    decision.Keyword,
		OldTitle:   full.Title.Value(),
		OldContent: full.Content.Value(),
		Update:     update,
		Seo:        seoUpdate,
	})

	for _, warning := range result.Warnings {
		log.Warn(warning)
	}

	if !result.IsValid {
		for _, verr := range result.Errors {
			log.Error("Dropping invalid field", "field", verr.Field, "error", verr.Err)
			fail(KindValidation, verr)
		}

		update, seoUpdate = o.dropInvalid(res, result, update, seoUpdate)
	}

	if update.IsEmpty() {
		log.Info("No changes needed")
		record.Error = strings.Join(problems, "; ")

		return record
	}

	if o.opts.DryRun {
		log.Info("Dry run: skipping update", "fields", describe(update))
	} else {
		if err := o.wp.UpdatePost(ctx, post.ID, update); err != nil {
			log.Error("❌ Failed to update post", "error", err)
			fail(KindWrite, err)
			record.Error = strings.Join(problems, "; ")

			return record
		}

		log.Info("✓ Post updated", "fields", describe(update))
	}

	record.KeywordUpdated = seoUpdate.HasKeyword() && update.Meta != nil
	record.MetaDescriptionUpdated = seoUpdate.HasDescription() && update.Meta != nil
	record.TitleUpdated = update.Title != nil
	record.ParagraphUpdated = update.Content != nil
	record.Error = strings.Join(problems, "; ")

	if record.TitleUpdated {
		record.UpdatedTitle = engine.PlainText(decision.NewTitle)
	}

	return record
}

// dropInvalid removes the fields that failed validation from the update.
func (o *Optimizer) dropInvalid(res seo.Resolution, result *validator.ValidationResult, update models.PostUpdate, seoUpdate models.SeoMeta) (models.PostUpdate, models.SeoMeta) {
	if result.HasError(validator.FieldTitle) {
		update.Title = nil
	}

	if result.HasError(validator.FieldContent) {
		update.Content = nil
	}

	if result.HasError(validator.FieldKeyword) {
		seoUpdate.FocusKeyword = ""
	}

	if result.HasError(validator.FieldDescription) {
		seoUpdate.MetaDescription = ""
	}

	update.Meta = o.adapter.WriteFields(res, seoUpdate)

	return update, seoUpdate
}

// loadPost fetches the edit context view of a post, falling back to the
// listing payload when that fails. It reports whether the fetch succeeded.
func (o *Optimizer) loadPost(ctx context.Context, post models.Post, log *logger.Logger) (*models.Post, bool) {
	full, err := o.wp.GetPost(ctx, post.ID)
	if err == nil {
		return full, true
	}

	log.Warn("Falling back to listing payload", "error", err)
	o.reporter.LogError(models.ErrorLogEntry{
		PostID:  post.ID,
		Kind:    string(KindFetch),
		Message: err.Error(),
	})

	return &post, false
}

func describe(update models.PostUpdate) string {
	var fields []string

	if update.Title != nil {
		fields = append(fields, "title")
	}

	if update.Content != nil {
		fields = append(fields, "content")
	}

	if len(update.Meta) > 0 {
		fields = append(fields, "meta")
	}

	return strings.Join(fields, ",")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
