package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/analytics"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/chain"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/config"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/emission"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/garden"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/pair"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/pricing"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/scan"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/volume"
	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/window"
)

func main() {
	// .env is optional; OS env and flags win either way.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "gardener",
		Short:        "On-chain garden yield analytics",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "JSON-RPC URL")
	root.PersistentFlags().String("gardener", "", "staking contract address")
	root.PersistentFlags().String("factory", "", "AMM factory address")
	root.PersistentFlags().String("quest", "", "quest reward contract address")
	root.PersistentFlags().String("anchor-token", "", "stable anchor token address")
	root.PersistentFlags().String("reward-token", "", "emission reward token address")
	root.PersistentFlags().Uint64("chunk-size", 2000, "blocks per getLogs chunk")
	root.PersistentFlags().Int("concurrency", 4, "bounded parallelism for RPC fan-out")
	root.PersistentFlags().Int("max-retries", 5, "maximum retry attempts")
	root.PersistentFlags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "List staking pools and allocation weights",
		RunE:  runPools,
	}
	root.AddCommand(poolsCmd)

	aprCmd := &cobra.Command{
		Use:   "apr",
		Short: "Compute yield analytics for one pool",
		RunE:  runApr,
	}
	aprCmd.Flags().Uint64("pool", 0, "pool id")
	root.AddCommand(aprCmd)

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Compute yield analytics for every pool, sorted by total APR",
		RunE:  runAll,
	}
	allCmd.Flags().String("pg-dsn", "", "optional Postgres DSN to upsert the snapshot batch")
	root.AddCommand(allCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *chain.Client
	registry *garden.Registry
	engine   *analytics.Engine
}

func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		stop()
		return nil, nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	for name, addr := range map[string]string{
		"gardener":     cfg.Gardener,
		"factory":      cfg.Factory,
		"anchor-token": cfg.AnchorToken,
		"reward-token": cfg.RewardToken,
	} {
		if !common.IsHexAddress(addr) {
			stop()
			client.Close()
			return nil, nil, nil, fmt.Errorf("invalid %s address: %s", name, addr)
		}
	}
	if cfg.Quest != "" && !common.IsHexAddress(cfg.Quest) {
		stop()
		client.Close()
		return nil, nil, nil, fmt.Errorf("invalid quest address: %s", cfg.Quest)
	}

	registry := garden.NewRegistry(client, common.HexToAddress(cfg.Gardener), cfg.Concurrency, logger)
	resolver := pair.NewResolver(client, logger)
	enumerator := pricing.NewEnumerator(client, common.HexToAddress(cfg.Factory), resolver, cfg.Concurrency, logger)
	windows := window.NewResolver(client, logger)
	scanner := scan.NewScanner(scan.Config{
		ChunkSize:    cfg.ChunkSize,
		Concurrency:  cfg.Concurrency,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, client, logger)
	volumes := volume.NewAggregator(scanner, logger)

	// Without a quest contract there is no emission source; the engine
	// reports those metrics as unavailable instead of zero.
	var emissions analytics.EmissionSource
	if cfg.Quest != "" {
		emissions = emission.NewAggregator(scanner, common.HexToAddress(cfg.Quest), common.HexToAddress(cfg.RewardToken), logger)
	}

	engine := analytics.NewEngine(analytics.Config{
		AnchorToken: common.HexToAddress(cfg.AnchorToken),
		RewardToken: common.HexToAddress(cfg.RewardToken),
		Concurrency: cfg.Concurrency,
	}, registry, resolver, enumerator, windows, volumes, emissions, logger)

	return ctx, stop, &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		registry: registry,
		engine:   engine,
	}, nil
}

func (a *app) close() {
	a.client.Close()
	_ = a.logger.Sync()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
