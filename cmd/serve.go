package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/wuzzuf-jobs-crawler/internal/app"
)

// newServeCmd creates the 'serve' subcommand, which exposes run status from
// the shared status store without crawling.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves health, metrics and run status",
		Long: `Serves /healthz, /readyz, /metrics and /v1/runs/{run_id}. Point it at the
same Redis status store as the crawl processes to follow their runs.`,
		RunE: runServeCommand,
	}
	cmd.Flags().Int("port", 0, "listen port")
	return cmd
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	server, statuses, err := app.NewStatusServer(cfg, logger.Named("api"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := statuses.Close(); cerr != nil {
			logger.Warn("failed to close status store", zap.Error(cerr))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("status server started", zap.String("addr", addr), zap.String("status_provider", cfg.Status.Provider))
	if err := server.ListenAndServe(cmd.Context(), addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("status server stopped")
	return nil
}
