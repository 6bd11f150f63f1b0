package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// QuoteConfig holds configuration for the offline quote command.
type QuoteConfig struct {
	ReserveToken  string
	ReserveQuote  string
	AmountIn      string
	Direction     string
	BootstrapRate string
	Decimals      uint8
	LogLevel      string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("LAUNCHD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("direction", "buy")
	v.SetDefault("decimals", 18)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return QuoteConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return QuoteConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return QuoteConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := QuoteConfig{
		ReserveToken:  v.GetString("reserve-token"),
		ReserveQuote:  v.GetString("reserve-quote"),
		AmountIn:      v.GetString("amount-in"),
		Direction:     v.GetString("direction"),
		BootstrapRate: v.GetString("bootstrap-rate"),
		Decimals:      uint8(v.GetUint("decimals")),
		LogLevel:      v.GetString("log-level"),
	}

	if cfg.Direction != "buy" && cfg.Direction != "sell" {
		return QuoteConfig{}, fmt.Errorf("direction must be buy or sell, got %q", cfg.Direction)
	}

	return cfg, nil
}
