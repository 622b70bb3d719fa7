package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/storage/postgres"
)

func runPools(cmd *cobra.Command, _ []string) error {
	ctx, stop, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	defer a.close()

	pools, err := a.registry.DiscoverPools(ctx)
	if err != nil {
		return err
	}
	return printJSON(pools)
}

func runApr(cmd *cobra.Command, _ []string) error {
	ctx, stop, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	defer a.close()

	poolID, _ := cmd.Flags().GetUint64("pool")
	result, err := a.engine.GetPoolAnalytics(ctx, poolID, nil)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runAll(cmd *cobra.Command, _ []string) error {
	ctx, stop, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()
	defer a.close()

	results, err := a.engine.GetAllPoolAnalytics(ctx, nil)
	if err != nil {
		return err
	}

	if dsn, _ := cmd.Flags().GetString("pg-dsn"); dsn != "" {
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.UpsertSnapshots(ctx, results); err != nil {
			return err
		}
		a.logger.Info("snapshot batch stored", zap.Int("pools", len(results)))
	}

	return printJSON(results)
}
