package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/websieve/linksweep/internal/config"
	iduuid "github.com/websieve/linksweep/internal/id/uuid"
	"github.com/websieve/linksweep/internal/linkcheck"
	"github.com/websieve/linksweep/internal/logging"
	"github.com/websieve/linksweep/internal/report"
)

func runCheck(cmd *cobra.Command, args []string) error {
	v, err := config.New(cmd.Flags(), cfgFile)
	if err != nil {
		return fmt.Errorf("linksweep: %w", err)
	}

	opts, err := config.BuildOptions(v, args)
	if err != nil {
		return fmt.Errorf("linksweep: %w", err)
	}

	format, err := config.Format(v)
	if err != nil {
		return fmt.Errorf("linksweep: %w", err)
	}

	logger, err := logging.New(config.Verbosity(v), false)
	if err != nil {
		return fmt.Errorf("linksweep: build logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	runID, err := iduuid.NewUUIDGenerator().NewID()
	if err != nil {
		return fmt.Errorf("linksweep: generate run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID))

	checker := linkcheck.New(logger)
	silent := v.GetBool("silent")
	if !silent {
		checker.OnRetry(func(info linkcheck.RetryInfo) {
			logger.Info("retrying",
				zap.String("url", info.URL),
				zap.Int("status", info.Status),
				zap.Float64("seconds_until_retry", info.SecondsUntilRetry),
			)
		})
		checker.OnLink(func(result linkcheck.LinkResult) {
			if result.State == linkcheck.StateBroken {
				logger.Warn("broken link", zap.String("url", result.URL), zap.Int("status", result.Status))
				return
			}
			logger.Debug("checked", zap.String("url", result.URL), zap.String("state", string(result.State)))
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := checker.Check(ctx, opts)
	if err != nil {
		return fmt.Errorf("linksweep: %w", err)
	}

	if err := report.Write(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("linksweep: %w", err)
	}

	code := exitCode(nil, result)
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

// exitCode maps a completed CrawlResult (or a fatal error) to the process
// exit codes documented for the CLI: 0 on pass, 1 on any BROKEN link,
// non-zero (2) on option/argument errors. runCheck itself returns such
// errors to Execute rather than passing them here, and main exits 2 on
// any error Execute returns.
func exitCode(err error, result linkcheck.CrawlResult) int {
	if err != nil {
		return 2
	}
	if !result.Passed {
		return 1
	}
	return 0
}
