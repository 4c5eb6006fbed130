package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig holds tunables for price resolution.
type PricingConfig struct {
	// CurrencyScale is the number of decimal places final amounts are
	// rounded to.
	CurrencyScale int32 `mapstructure:"currencyScale"`
	// DefaultQuantity is assumed when a query does not carry a quantity.
	DefaultQuantity int64 `mapstructure:"defaultQuantity"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		CurrencyScale:   2,
		DefaultQuantity: 1,
	}
}

// PricingConfigHolder exposes the current pricing config and hot-reloads it
// when the backing file changes. Readers always observe a complete config.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/pricelist/config")
	v.AddConfigPath("/etc/pricelist")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRICELIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingConfig()
	v.SetDefault("pricing.currencyScale", defaults.CurrencyScale)
	v.SetDefault("pricing.defaultQuantity", defaults.DefaultQuantity)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

// NewStaticPricingConfigHolder returns a holder pinned to cfg, for tests.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.CurrencyScale < 0 || cfg.CurrencyScale > 8 {
		return errors.New("pricing.currencyScale must be between 0 and 8")
	}
	if cfg.DefaultQuantity < 1 {
		return errors.New("pricing.defaultQuantity must be at least 1")
	}
	return nil
}
