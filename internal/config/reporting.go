package config

import (
	"errors"
	"io/fs"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ReportingConfig tunes report projections. It is read-mostly and may be
// swapped at runtime when the backing file changes.
type ReportingConfig struct {
	DashboardPeriods int           `mapstructure:"dashboard_periods"`
	CurrencySymbol   string        `mapstructure:"currency_symbol"`
	AgingBuckets     []AgingBucket `mapstructure:"aging_buckets"`
}

// AgingBucket covers invoices whose days past due fall in [MinDays, MaxDays].
// A nil MaxDays is open ended.
type AgingBucket struct {
	Label   string `mapstructure:"label"`
	MinDays int    `mapstructure:"min_days"`
	MaxDays *int   `mapstructure:"max_days"`
}

func DefaultReportingConfig() ReportingConfig {
	return ReportingConfig{
		DashboardPeriods: 6,
		CurrencySymbol:   "$",
		AgingBuckets: []AgingBucket{
			{Label: "current", MinDays: 0, MaxDays: intPtr(0)},
			{Label: "1-30 days", MinDays: 1, MaxDays: intPtr(30)},
			{Label: "31-60 days", MinDays: 31, MaxDays: intPtr(60)},
			{Label: "61-90 days", MinDays: 61, MaxDays: intPtr(90)},
			{Label: "90+ days", MinDays: 91, MaxDays: nil},
		},
	}
}

func intPtr(v int) *int { return &v }

type ReportingConfigHolder struct {
	current atomic.Value // holds ReportingConfig
}

// NewStaticReportingConfigHolder returns a holder that never reloads.
func NewStaticReportingConfigHolder(cfg ReportingConfig) *ReportingConfigHolder {
	holder := &ReportingConfigHolder{}
	holder.current.Store(withDefaults(cfg))
	return holder
}

func NewReportingConfigHolder(cfg Config, log *zap.Logger) (*ReportingConfigHolder, error) {
	log = log.Named("config.reporting")
	v := viper.New()

	if cfg.ReportingConfigPath != "" {
		v.SetConfigFile(cfg.ReportingConfigPath)
	} else {
		v.SetConfigName("reporting")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/invoicely")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("INVOICELY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &ReportingConfigHolder{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			holder.current.Store(DefaultReportingConfig())
			return holder, nil
		}
		return nil, err
	}

	loaded, err := decodeReportingConfig(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(loaded)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeReportingConfig(v)
		if err != nil {
			log.Warn("reporting config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reporting config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *ReportingConfigHolder) Get() ReportingConfig {
	return h.current.Load().(ReportingConfig)
}

func decodeReportingConfig(v *viper.Viper) (ReportingConfig, error) {
	var cfg ReportingConfig
	if err := v.UnmarshalKey("reporting", &cfg); err != nil {
		return ReportingConfig{}, err
	}
	cfg = withDefaults(cfg)
	if err := validateReportingConfig(cfg); err != nil {
		return ReportingConfig{}, err
	}
	return cfg, nil
}

func withDefaults(cfg ReportingConfig) ReportingConfig {
	defaults := DefaultReportingConfig()
	if cfg.DashboardPeriods == 0 {
		cfg.DashboardPeriods = defaults.DashboardPeriods
	}
	if strings.TrimSpace(cfg.CurrencySymbol) == "" {
		cfg.CurrencySymbol = defaults.CurrencySymbol
	}
	if len(cfg.AgingBuckets) == 0 {
		cfg.AgingBuckets = defaults.AgingBuckets
	}
	return cfg
}

func validateReportingConfig(cfg ReportingConfig) error {
	if cfg.DashboardPeriods < 0 {
		return errors.New("reporting.dashboard_periods cannot be negative")
	}
	for i, bucket := range cfg.AgingBuckets {
		if strings.TrimSpace(bucket.Label) == "" {
			return errors.New("reporting.aging_buckets label cannot be empty")
		}
		if bucket.MaxDays != nil && *bucket.MaxDays < bucket.MinDays {
			return errors.New("reporting.aging_buckets max_days below min_days")
		}
		if bucket.MaxDays == nil && i != len(cfg.AgingBuckets)-1 {
			return errors.New("reporting.aging_buckets only the last bucket may be open ended")
		}
	}
	return nil
}
