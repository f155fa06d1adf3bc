package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/config"
	"github.com/PaulElisha/dgswap-liquidity-manager-sdk/internal/storage"
)

func runHistory(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadHistory(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.Open(ctx, cfg.Journal.Kind, cfg.Journal.Target())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	records, err := store.ListMints(ctx, cfg.Limit)
	if err != nil {
		return fmt.Errorf("list mints: %w", err)
	}
	logger.Debug("history loaded", zap.String("journal", cfg.Journal.Kind), zap.Int("records", len(records)))

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return nil
}
