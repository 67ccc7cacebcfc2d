package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/hydration/internal/app"
	"github.com/nhle/hydration/internal/health"
	"github.com/nhle/hydration/internal/model"
	"github.com/nhle/hydration/internal/notify"
	"github.com/nhle/hydration/internal/persist"
	"github.com/nhle/hydration/internal/store"
	"github.com/nhle/hydration/internal/timeutil"
)

func main() {
	log := logrus.New()

	configPath := os.Getenv("HYDRATION_CONFIG")
	if configPath == "" {
		configPath = model.DefaultConfigPath()
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	db, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.WithError(err).Fatal("opening store")
	}
	defer db.Close()

	scheduler, err := notify.NewLocalScheduler(func(identifier, title, body string) {
		log.WithFields(logrus.Fields{
			"identifier": identifier,
			"title":      title,
		}).Info(body)
	}, log)
	if err != nil {
		log.WithError(err).Fatal("creating scheduler")
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := app.New(
		ctx,
		timeutil.NewSystemClock(),
		persist.New(db),
		health.NewBridge(health.NewLocalStore(db), log),
		notify.NewBridge(scheduler, log),
		log,
	)
	if err != nil {
		log.WithError(err).Fatal("restoring state")
	}

	// Pick up persisted reminder state and any externally changed
	// permissions before settling into the run loop.
	core.RefreshPermissions(ctx)
	if core.Settings().Reminder.Enabled {
		core.EnableReminders(ctx, true)
	}

	log.WithField("db", cfg.Storage.DBPath).Info("hydrationd running")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			core.CheckRollover()
		case ev := <-core.Events():
			log.WithField("kind", string(ev.Kind)).Debug("state changed")
		}
	}
}
