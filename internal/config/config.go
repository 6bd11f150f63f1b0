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
	TokenSupply          string
	BootstrapRate        string
	ThresholdUSD         string
	MigrationFractionBps uint32
	VenueFee             uint32
	CreatorFeeBps        uint32
	Whitelist            []string
	OraclePriceUSD       string
	OracleMaxAge         time.Duration
	Out                  string
	PgDSN                string
	LogLevel             string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LAUNCHD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("token-supply", "1000000000000000000000000000")
	v.SetDefault("bootstrap-rate", "10000000000000000000000000")
	v.SetDefault("threshold-usd", "6900000000000")
	v.SetDefault("migration-fraction-bps", uint32(8000))
	v.SetDefault("venue-fee", uint32(3000))
	v.SetDefault("creator-fee-bps", uint32(2500))
	v.SetDefault("oracle-price-usd", "300000000000")
	v.SetDefault("oracle-max-age", time.Hour)
	v.SetDefault("out", "./data/events.jsonl")
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
		TokenSupply:          v.GetString("token-supply"),
		BootstrapRate:        v.GetString("bootstrap-rate"),
		ThresholdUSD:         v.GetString("threshold-usd"),
		MigrationFractionBps: v.GetUint32("migration-fraction-bps"),
		VenueFee:             v.GetUint32("venue-fee"),
		CreatorFeeBps:        v.GetUint32("creator-fee-bps"),
		Whitelist:            getStringSlice(v, "whitelist"),
		OraclePriceUSD:       v.GetString("oracle-price-usd"),
		OracleMaxAge:         v.GetDuration("oracle-max-age"),
		Out:                  v.GetString("out"),
		PgDSN:                v.GetString("pg-dsn"),
		LogLevel:             v.GetString("log-level"),
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
