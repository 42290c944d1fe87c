package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/ride-height-service/internal/domain"
	"github.com/couchcryptid/ride-height-service/internal/observability"
	"github.com/couchcryptid/ride-height-service/internal/snapshot"
)

func newHeightCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "height <cm>",
		Short: "Show which attractions a visitor of the given height can ride",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("height must be an integer number of centimeters: %q", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store := snapshot.NewStore(cfg.SnapshotPath, observability.NewCLILogger(cmd.ErrOrStderr(), cfg))
			snap, err := store.Load()
			if err != nil {
				return err
			}
			bucket, err := snap.Bucket(height)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, bucket)
			}
			printHeight(cmd, snap, height, bucket)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the bucket as JSON")
	return cmd
}

func printHeight(cmd *cobra.Command, snap domain.Snapshot, height int, bucket domain.HeightCategoryBucket) {
	colorize := shouldColorize(cmd.OutOrStdout())
	source := "computed"
	if snap.IsTracked(height) {
		source = "tracked"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Height %d cm (%s), snapshot %s updated %s\n\n",
		height, source, snap.RunID, snap.LastUpdated.Local().Format("Jan 2, 2006 15:04"))
	fmt.Fprintln(out, renderTable(
		[]string{"Category", "Attraction", "Min", "Supervision", "Status"},
		heightRows(snap, bucket),
		map[int]bool{2: true, 3: true},
		colorize,
	))
}

func heightRows(snap domain.Snapshot, bucket domain.HeightCategoryBucket) [][]string {
	groups := []struct {
		label string
		names []string
	}{
		{"independent", bucket.Independent},
		{"with companion", bucket.WithCompanion},
		{"not available", bucket.NotAvailable},
	}

	var rows [][]string
	for _, g := range groups {
		for _, name := range g.names {
			rec, _ := snap.Attraction(name)
			rows = append(rows, []string{
				g.label,
				name,
				formatCM(rec.MinHeightCM),
				formatCM(rec.SupervisionHeightCM),
				formatLive(rec.LiveStatus),
			})
		}
	}
	return rows
}

func formatCM(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v) + " cm"
}

func formatLive(s *domain.LiveStatus) string {
	if s == nil || s.IsOpen == nil {
		return "unknown"
	}
	if !*s.IsOpen {
		return "closed"
	}
	if s.WaitMinutes != nil {
		return fmt.Sprintf("open, %d min", *s.WaitMinutes)
	}
	return "open"
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
