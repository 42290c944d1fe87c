package main

import (
	"fmt"
	"strconv"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/ride-height-service/internal/app"
	"github.com/couchcryptid/ride-height-service/internal/domain"
	"github.com/couchcryptid/ride-height-service/internal/observability"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every attraction page and replace the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.buildService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			snap, err := svc.Pipeline.Scrape(cmd.Context())
			if err != nil {
				return fmt.Errorf("scrape: %w", err)
			}
			printScrapeSummary(cmd, snap)
			return nil
		},
	}
}

func newLiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Merge current queue status into the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.buildService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			snap, err := svc.Pipeline.Live(cmd.Context())
			if err != nil {
				return fmt.Errorf("live merge: %w", err)
			}
			printLiveSummary(cmd, snap)
			return nil
		},
	}
}

func (c *commandContext) buildService(cmd *cobra.Command) (*app.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := observability.NewCLILogger(cmd.ErrOrStderr(), cfg)
	return app.Build(cfg, clockwork.NewRealClock(), logger, observability.NewMetricsForTesting())
}

func printScrapeSummary(cmd *cobra.Command, snap domain.Snapshot) {
	colorize := shouldColorize(cmd.OutOrStdout())
	kind := statusOK
	if snap.ScrapeStats.Successful == 0 {
		kind = statusWarn
	}
	lines := []string{
		renderStatusLine("Run", statusInfo, snap.RunID, colorize),
		renderStatusLine("Attractions", kind, fmt.Sprintf("%d scraped, %d fallback, %d failed",
			snap.ScrapeStats.Successful, snap.ScrapeStats.Fallback, snap.ScrapeStats.Failed), colorize),
		renderStatusLine("Shows", statusInfo, strconv.Itoa(snap.TotalShows), colorize),
	}
	if len(snap.Flagged) > 0 {
		lines = append(lines, renderStatusLine("Flagged", statusWarn, strconv.Itoa(len(snap.Flagged)), colorize))
	}
	printLines(cmd, lines)
}

func printLiveSummary(cmd *cobra.Command, snap domain.Snapshot) {
	colorize := shouldColorize(cmd.OutOrStdout())
	info := snap.WaitTimesInfo
	park := renderStatusLine("Park", statusWarn, "closed", colorize)
	if info.ParkOpen {
		park = renderStatusLine("Park", statusOK, "open", colorize)
	}
	lines := []string{
		park,
		renderStatusLine("Matched", statusInfo, strconv.Itoa(info.Matched), colorize),
	}
	if len(info.Unmatched) > 0 {
		lines = append(lines, renderStatusLine("Unmatched", statusWarn, fmt.Sprint(info.Unmatched), colorize))
	}
	if info.Attribution != "" {
		lines = append(lines, "", info.Attribution)
	}
	printLines(cmd, lines)
}

func printLines(cmd *cobra.Command, lines []string) {
	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
