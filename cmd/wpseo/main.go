// Package main provides the wpseo command that optimizes SEO fields of every published WordPress post.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wpseo/internal/config"
	"wpseo/internal/engine"
	"wpseo/internal/gemini"
	"wpseo/internal/logger"
	"wpseo/internal/optimizer"
	"wpseo/internal/report"
	"wpseo/internal/transport"
	"wpseo/internal/validator"
	"wpseo/internal/wordpress"
)

// options mirrors the command line flags.
type options struct {
	configPath   string
	url          string
	username     string
	password     string
	apiKey       string
	model        string
	logLevel     string
	reportPath   string
	errorLogPath string
	postDelayMs  int
	dryRun       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand(os.Stdout, run).ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// runFunc executes one batch with a validated config.
type runFunc func(ctx context.Context, cfg *config.Config, stdout io.Writer) error

func newRootCommand(stdout io.Writer, runBatch runFunc) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "wpseo",
		Short: "Fill in missing focus keywords and meta descriptions for published WordPress posts",
		Long: `wpseo walks every published post of a WordPress site, generates a focus keyword
and meta description where Rank Math has none, works the keyword into the title and
first paragraph, and writes a CSV report plus an error log.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.buildConfig(cmd)
			if err != nil {
				return err
			}

			return runBatch(cmd.Context(), cfg, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "", "WordPress site URL (required)")
	flags.StringVar(&opts.username, "username", "", "WordPress username (required)")
	flags.StringVar(&opts.password, "password", "", "WordPress application password (required)")
	flags.StringVar(&opts.apiKey, "gemini-api-key", "", "Gemini API key (required)")
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.model, "model", "", "Gemini model name")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.reportPath, "report", "", "CSV report path")
	flags.StringVar(&opts.errorLogPath, "error-log", "", "Error log path")
	flags.IntVar(&opts.postDelayMs, "post-delay-ms", 0, "Pause between posts in milliseconds")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Decide and generate but do not update posts")

	for _, name := range []string{"url", "username", "password", "gemini-api-key"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// buildConfig loads the optional config file and overlays the flags that were set.
func (o *options) buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	flags := cmd.Flags()

	cfg.WordPress.URL = o.url
	cfg.WordPress.Username = o.username
	cfg.WordPress.Password = o.password
	cfg.Gemini.APIKey = o.apiKey

	if flags.Changed("model") {
		cfg.Gemini.Model = o.model
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}

	if flags.Changed("report") {
		cfg.Output.ReportPath = o.reportPath
	}

	if flags.Changed("error-log") {
		cfg.Output.ErrorLogPath = o.errorLogPath
	}

	if flags.Changed("post-delay-ms") {
		cfg.Run.PostDelayMs = o.postDelayMs
	}

	if flags.Changed("dry-run") {
		cfg.Run.DryRun = o.dryRun
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// run wires the clients from an immutable config and executes one batch.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	log := logger.NewLogger(cfg.Logging.Level)

	log.Info("🚀 Starting WordPress SEO optimizer")
	log.Info(fmt.Sprintf("📍 Site: %s", cfg.WordPress.URL))
	log.Debug(cfg.String())

	exec := transport.NewExecutor(cfg.Retry, log.With("component", "transport"))

	wp := wordpress.NewClient(cfg, exec, log.With("component", "wordpress"))
	gen := gemini.NewClient(cfg, exec, log.With("component", "gemini"))
	eng := engine.New(gen, cfg.Generation.ExcerptChars, log.With("component", "engine"))
	reporter := report.New()

	opt := optimizer.New(wp, eng, validator.NewUpdateValidator(cfg), reporter, optimizer.Options{
		ReportPath:   cfg.Output.ReportPath,
		ErrorLogPath: cfg.Output.ErrorLogPath,
		PostDelay:    cfg.PostDelay(),
		DryRun:       cfg.Run.DryRun,
	}, log)

	summary, err := opt.Run(ctx)
	if summary == nil {
		log.Error(fmt.Sprintf("❌ %v", err))
		return err
	}

	fmt.Fprintln(stdout)
	reporter.PrintSummary(stdout, cfg.Output.ReportPath, cfg.Output.ErrorLogPath)

	if err != nil {
		log.Error(fmt.Sprintf("❌ %v", err))
		return err
	}

	return nil
}
