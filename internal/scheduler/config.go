package scheduler

import (
	"time"

	"github.com/smallbiznis/invoicely/internal/config"
)

// Config controls job schedules, deadlines and batch sizes.
type Config struct {
	RecurringSpec string
	OverdueSpec   string
	JobTimeout    time.Duration
	BatchSize     int
}

func DefaultConfig() Config {
	return Config{
		RecurringSpec: "@every 15m",
		OverdueSpec:   "@hourly",
		JobTimeout:    2 * time.Minute,
		BatchSize:     100,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RecurringSpec: cfg.Scheduler.RecurringSpec,
		OverdueSpec:   cfg.Scheduler.OverdueSpec,
		JobTimeout:    cfg.Scheduler.JobTimeout,
		BatchSize:     cfg.Scheduler.BatchSize,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RecurringSpec == "" {
		c.RecurringSpec = defaults.RecurringSpec
	}
	if c.OverdueSpec == "" {
		c.OverdueSpec = defaults.OverdueSpec
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}
