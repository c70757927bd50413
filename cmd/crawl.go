package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/app"
)

const closeTimeout = 30 * time.Second

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs one crawl of Wuzzuf search results",
		Long: `Builds the search URL from the filters (or uses --start-url), walks the
result pages and collects job postings until --results-wanted records are
saved, --max-pages is reached, or the results run out.`,
		Example: `  wuzzuf-jobs-crawler crawl --keyword "golang" --location Cairo --results-wanted 50
  wuzzuf-jobs-crawler crawl --start-url "https://wuzzuf.net/search/jobs/?q=data" --collect-details=false`,
		RunE: runCrawlCommand,
	}

	f := cmd.Flags()
	f.String("keyword", "", "search keyword")
	f.String("location", "", "location filter")
	f.String("category", "", "job category filter")
	f.String("career-level", "", "career level filter")
	f.String("job-type", "", "job type filter")
	f.String("max-job-age", "", `maximum posting age: "all", "7 days", "30 days" or "90 days"`)
	f.Int("results-wanted", 0, "number of records to save")
	f.Int("max-pages", 0, "maximum listing pages per run")
	f.Bool("collect-details", true, "visit each posting; false emits links only")
	f.StringSlice("start-url", nil, "listing URL to start from (repeatable); overrides the filters")
	f.String("output", "", "JSON Lines dataset path")
	f.Int("concurrency", 0, "number of crawl workers")
	f.Bool("serve", false, "serve health, metrics and run status while crawling")
	f.Int("port", 0, "status server port")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	a, err := app.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("init crawl: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := a.Close(ctx); cerr != nil {
			logger.Warn("failed to close crawl services", zap.Error(cerr))
		}
	}()

	summary, err := a.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}
	logger.Info("crawl command finished",
		zap.String("run_id", summary.RunID),
		zap.Int("saved", summary.Saved),
		zap.String("output", cfg.Output.JSONLPath),
	)
	return nil
}
