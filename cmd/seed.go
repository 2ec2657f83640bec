package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfosobral/UniParking/config"
	"github.com/alfosobral/UniParking/infra/logger"
	"github.com/alfosobral/UniParking/infra/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema, occupancy trigger and demo data",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("seed")
	st, err := store.Open(cfg.Database, logg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := st.SeedDemo(ctx); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	logg.Infof("schema, trigger and demo data in place")
	return nil
}
