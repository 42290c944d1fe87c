package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/ride-height-service/internal/config"
)

type commandContext struct {
	snapshotFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(snapshotFlag *string) *commandContext {
	return &commandContext{snapshotFlag: snapshotFlag}
}

// ensureConfig loads the environment configuration once and applies the
// --snapshot override.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if c.snapshotFlag != nil {
			if path := strings.TrimSpace(*c.snapshotFlag); path != "" {
				cfg.SnapshotPath = path
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func newRootCommand() *cobra.Command {
	var snapshotFlag string

	ctx := newCommandContext(&snapshotFlag)

	rootCmd := &cobra.Command{
		Use:           "heightctl",
		Short:         "Ride height snapshot tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&snapshotFlag, "snapshot", "", "Snapshot file path (default $SNAPSHOT_PATH)")

	rootCmd.AddCommand(newScrapeCommand(ctx))
	rootCmd.AddCommand(newLiveCommand(ctx))
	rootCmd.AddCommand(newHeightCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand())

	return rootCmd
}
