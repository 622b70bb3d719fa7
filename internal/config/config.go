package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL       string
	Gardener     string
	Factory      string
	Quest        string
	AnchorToken  string
	RewardToken  string
	ChunkSize    uint64
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	PGDSN        string
}

// Load merges config file, environment variables, and flags into Config.
// Env vars use the GARDENER_ prefix with dashes mapped to underscores.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GARDENER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chunk-size", uint64(2000))
	v.SetDefault("concurrency", 4)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:       v.GetString("rpc"),
		Gardener:     v.GetString("gardener"),
		Factory:      v.GetString("factory"),
		Quest:        v.GetString("quest"),
		AnchorToken:  v.GetString("anchor-token"),
		RewardToken:  v.GetString("reward-token"),
		ChunkSize:    v.GetUint64("chunk-size"),
		Concurrency:  v.GetInt("concurrency"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
		PGDSN:        v.GetString("pg-dsn"),
	}

	return cfg, nil
}

// Validate checks the fields every command needs.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Gardener == "" {
		return fmt.Errorf("gardener (staking contract) address is required")
	}
	if c.Factory == "" {
		return fmt.Errorf("factory address is required")
	}
	if c.AnchorToken == "" {
		return fmt.Errorf("anchor token address is required")
	}
	if c.RewardToken == "" {
		return fmt.Errorf("reward token address is required")
	}
	return nil
}
