// Package app wires the services together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"homehub/internal/auth"
	"homehub/internal/cache"
	"homehub/internal/config"
	"homehub/internal/dispatch"
	"homehub/internal/jobs"
	"homehub/internal/model"
	"homehub/internal/notify"
	"homehub/internal/runner"
	"homehub/internal/scrape"
	"homehub/internal/storage"
	"homehub/internal/store"
	"homehub/internal/transport/httpapi"
	"homehub/internal/weather"
	logx "homehub/pkg/logx"
)

// dailyMenuJob is the fixed registration name for the configured daily menu
// push; admin task registrations never collide with it because theirs are
// prefixed.
const dailyMenuJob = "builtin-daily-menu"

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	db     *sqlx.DB
	run    *runner.Service
	server *httpapi.Server

	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// New loads the config and builds every service. Nothing is started yet.
func New(configPath string) (*App, error) {
	cfgMgr := config.NewManager(configPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgMgr.SetLogger(log.With(logx.String("svc", "config")))

	a := &App{cfgMgr: cfgMgr, logSvc: logSvc, log: log}
	if err := a.build(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config) error {
	busyTimeout, err := config.ParseDurationOrDefault("database.busy_timeout", cfg.Database.BusyTimeout, 5*time.Second)
	if err != nil {
		return err
	}
	db, err := storage.Open(storage.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: busyTimeout,
	}, a.log.With(logx.String("svc", "storage")))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db

	users := store.NewUserStore(db)
	events := store.NewEventStore(db)
	foods := store.NewFoodStore(db)
	cates := store.NewCateStore(db)
	ingredients := store.NewIngredientStore(db)
	crontabs := store.NewCrontabStore(db)
	intervals := store.NewIntervalStore(db)
	tasks := store.NewTaskStore(db)

	pushTimeout, err := config.ParseDurationOrDefault("push.timeout", cfg.Push.Timeout, 10*time.Second)
	if err != nil {
		return err
	}
	sender := notify.New(notify.Config{
		URL:        cfg.Push.URL,
		RatePerSec: cfg.Push.RatePerSec,
		Timeout:    pushTimeout,
	}, a.log.With(logx.String("svc", "notify")))

	tokenTTL, err := config.ParseDurationOrDefault("auth.token_ttl", cfg.Auth.TokenTTL, time.Hour)
	if err != nil {
		return err
	}
	qrTTL, err := config.ParseDurationOrDefault("auth.qr_login_ttl", cfg.Auth.QRLoginTTL, 5*time.Minute)
	if err != nil {
		return err
	}
	sessions := cache.New()
	authSvc := auth.New(auth.Config{
		TokenTTL:       tokenTTL,
		QRLoginTTL:     qrTTL,
		WechatAppID:    cfg.Auth.WechatAppID,
		WechatRedirect: cfg.Auth.WechatRedirect,
	}, users, sessions, a.log.With(logx.String("svc", "auth")))

	a.run = runner.New(runner.Config{Timezone: cfg.Scheduler.Timezone},
		a.log.With(logx.String("svc", "runner")))

	registry := runner.NewRegistry()
	jobSvc := jobs.New(users, events, foods, sender, a.log.With(logx.String("svc", "jobs")))
	jobSvc.RegisterAll(registry)

	dispatcher := dispatch.New(a.run, registry,
		scheduleSource{crontabs: crontabs, intervals: intervals},
		a.log.With(logx.String("svc", "dispatch")))

	scrapeTimeout, err := config.ParseDurationOrDefault("scrape.timeout", cfg.Scrape.Timeout, 15*time.Second)
	if err != nil {
		return err
	}
	scraper := scrape.New(scrape.Config{
		ExploreURL: cfg.Scrape.ExploreURL,
		BaseURL:    cfg.Scrape.BaseURL,
		Timeout:    scrapeTimeout,
	}, foods, ingredients, a.log.With(logx.String("svc", "scrape")))

	var weatherClient *weather.Client
	if cfg.Weather != nil {
		weatherClient = weather.New(weather.Config{
			URL:  cfg.Weather.URL,
			Key:  cfg.Weather.Key,
			City: cfg.Weather.City,
		})
	}

	readTimeout, err := config.ParseDurationOrDefault("server.read_timeout", cfg.Server.ReadTimeout, 15*time.Second)
	if err != nil {
		return err
	}
	writeTimeout, err := config.ParseDurationOrDefault("server.write_timeout", cfg.Server.WriteTimeout, 30*time.Second)
	if err != nil {
		return err
	}
	idleTimeout, err := config.ParseDurationOrDefault("server.idle_timeout", cfg.Server.IdleTimeout, time.Minute)
	if err != nil {
		return err
	}
	a.server = httpapi.NewServer(httpapi.Config{
		Addr:         cfg.Server.Addr,
		StaticDir:    cfg.Server.StaticDir,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, a.log.With(logx.String("svc", "http")),
		authSvc,
		httpapi.Stores{
			Users:       users,
			Events:      events,
			Foods:       foods,
			Cates:       cates,
			Ingredients: ingredients,
			Crontabs:    crontabs,
			Intervals:   intervals,
			Tasks:       tasks,
		},
		dispatcher, registry, sender, scraper, weatherClient)

	// Replay persisted registrations before the runner ticks.
	active, err := tasks.Active(context.Background())
	if err != nil {
		return fmt.Errorf("load active tasks: %w", err)
	}
	dispatcher.Resync(context.Background(), active)

	if err := a.registerDailyMenu(cfg.Scheduler.MenuPushAt, registry); err != nil {
		return err
	}
	return nil
}

// registerDailyMenu binds the daily menu push to the configured HH:MM.
func (a *App) registerDailyMenu(at string, registry *runner.Registry) error {
	at = strings.TrimSpace(at)
	if at == "" {
		return nil
	}
	t, err := time.Parse("15:04", at)
	if err != nil {
		return fmt.Errorf("scheduler.menu_push_at: invalid time %q", at)
	}
	fn, ok := registry.Lookup(jobs.KeyDailyMenu)
	if !ok {
		return fmt.Errorf("scheduler.menu_push_at: %s is not registered", jobs.KeyDailyMenu)
	}
	fields := runner.CronFields{
		Minute:      fmt.Sprintf("%d", t.Minute()),
		Hour:        fmt.Sprintf("%d", t.Hour()),
		DayOfMonth:  "*",
		MonthOfYear: "*",
		DayOfWeek:   "*",
	}
	return a.run.RegisterCron(dailyMenuJob, fields, fn)
}

// Start launches the runner, the config watcher and the HTTP server. It
// blocks in the HTTP server until it is shut down.
func (a *App) Start(ctx context.Context) error {
	a.run.Start()

	watchCtx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	a.watchDone = make(chan struct{})
	go a.watchConfig(watchCtx)

	return a.server.Start()
}

// watchConfig hot-reloads the parts that can change at runtime; today that
// is the logging config only.
func (a *App) watchConfig(ctx context.Context) {
	defer close(a.watchDone)

	sub := a.cfgMgr.Subscribe(1)
	defer a.cfgMgr.Unsubscribe(sub)

	go func() {
		if err := a.cfgMgr.Watch(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
		}
	}
}

// Stop shuts everything down in reverse start order.
func (a *App) Stop(ctx context.Context) {
	if a.watchCancel != nil {
		a.watchCancel()
		select {
		case <-a.watchDone:
		case <-ctx.Done():
		}
	}
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Warn("http shutdown failed", logx.Err(err))
	}
	a.run.Stop(ctx)
	if err := a.db.Close(); err != nil {
		a.log.Warn("database close failed", logx.Err(err))
	}
	a.log.Info("shutdown complete")
	_ = a.logSvc.Close()
}

// scheduleSource adapts the schedule stores to what the dispatcher needs.
type scheduleSource struct {
	crontabs  *store.CrontabStore
	intervals *store.IntervalStore
}

func (s scheduleSource) Crontab(ctx context.Context, id int64) (model.CrontabSchedule, error) {
	return s.crontabs.Get(ctx, id)
}

func (s scheduleSource) Interval(ctx context.Context, id int64) (model.IntervalSchedule, error) {
	return s.intervals.Get(ctx, id)
}
