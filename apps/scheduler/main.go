package main

import (
	"context"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/client"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice"
	"github.com/smallbiznis/invoicely/internal/migration"
	"github.com/smallbiznis/invoicely/internal/observability"
	"github.com/smallbiznis/invoicely/internal/providers/email"
	"github.com/smallbiznis/invoicely/internal/recurring"
	"github.com/smallbiznis/invoicely/internal/scheduler"
	"github.com/smallbiznis/invoicely/pkg/db"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	once := pflag.Bool("once", false, "run every job a single time and exit")
	pflag.Parse()

	options := []fx.Option{
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		// Domain services required by scheduler
		email.Module,
		client.Module,
		invoice.Module,
		recurring.Module,
	}

	if !*once {
		app := fx.New(append(options, scheduler.Module)...)
		app.Run()
		return
	}

	var sched *scheduler.Scheduler
	var log *zap.Logger
	app := fx.New(append(options,
		fx.Provide(scheduler.ProvideConfig, scheduler.New),
		fx.Populate(&sched, &log),
	)...)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		reportStartFailure(log, err)
		os.Exit(1)
	}

	code := 0
	if err := sched.RunOnce(context.Background()); err != nil {
		log.Error("scheduler run failed", zap.Error(err))
		code = 1
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	_ = app.Stop(stopCtx)
	os.Exit(code)
}

// reportStartFailure logs why the app did not start. When the graph failed
// before the logger was built a production logger is used instead.
func reportStartFailure(log *zap.Logger, err error) {
	if log == nil {
		fallback, buildErr := zap.NewProduction()
		if buildErr != nil {
			fallback = zap.NewExample()
		}
		log = fallback
	}
	log.Error("scheduler start failed", zap.Error(err))
	_ = log.Sync()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
