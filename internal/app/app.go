// README: Composition root; builds stores and services from config and runs the API.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ridebook/internal/config"
	httptransport "ridebook/internal/http"
	"ridebook/internal/infra"
	"ridebook/internal/metrics"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/dispatch"
	"ridebook/internal/modules/driver"
	"ridebook/internal/modules/ledger"
	"ridebook/internal/modules/notify"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/modules/settings"
)

type App struct {
	Booking  *booking.Service
	Dispatch *dispatch.Service
	Ledger   *ledger.Service

	server  *httptransport.Server
	retrier *dispatch.Retrier
	db      *pgxpool.Pool
	redis   *redis.Client
	amqp    *infra.AMQP
	log     zerolog.Logger
}

func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	a := &App{db: db, redis: infra.NewRedis(cfg.Redis.Addr), log: log}

	sink, err := a.buildSink(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewProm(reg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	uow := infra.NewUnitOfWork(db)
	settingsSvc := settings.NewService(settings.NewStore(db, a.redis,
		time.Duration(cfg.Redis.SettingsTTLSeconds)*time.Second, log.With().Str("module", "settings").Logger()))
	a.Ledger = ledger.NewService(ledger.NewStore(db))
	bookingStore := booking.NewStore(db)
	outbox := notify.NewOutbox(db)
	markers := dispatch.NewMarkers(a.redis)

	seed := cfg.Dispatch.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	a.Dispatch = dispatch.NewService(dispatch.Deps{
		UoW:        uow,
		Candidates: dispatch.NewStore(db),
		Details:    bookingStore,
		Settings:   settingsSvc,
		Outbox:     outbox,
		Markers:    markers,
		Sink:       sink,
		Metrics:    rec,
		Log:        log.With().Str("module", "dispatch").Logger(),
		Rand:       rand.New(rand.NewSource(seed)),
	})
	a.Booking = booking.NewService(booking.Deps{
		UoW:        uow,
		Repo:       bookingStore,
		Drivers:    driver.NewStore(db),
		Ledger:     a.Ledger,
		Settings:   settingsSvc,
		Pricer:     pricing.NewService(pricing.NewStore(db), settingsSvc),
		Dispatcher: a.Dispatch,
		Outbox:     outbox,
		Sink:       sink,
		Metrics:    rec,
		Log:        log.With().Str("module", "booking").Logger(),
	})

	if cfg.Dispatch.RetrySeconds > 0 {
		a.retrier = dispatch.NewRetrier(markers, a.Booking,
			time.Duration(cfg.Dispatch.RetrySeconds)*time.Second, log.With().Str("module", "dispatch-retry").Logger())
	}

	a.server = httptransport.NewServer(cfg.HTTP.Addr, httptransport.RouterDeps{
		Booking:  a.Booking,
		Wallet:   a.Ledger,
		Awaiting: markers,
		Gatherer: reg,
		Log:      log.With().Str("module", "http").Logger(),
	})
	return a, nil
}

func (a *App) buildSink(cfg config.Config) (notify.Sink, error) {
	var sinks notify.MultiSink
	for _, name := range cfg.Notify.Sinks {
		switch name {
		case "log":
			sinks = append(sinks, notify.NewLogSink(a.log.With().Str("module", "notify").Logger()))
		case "redis":
			sinks = append(sinks, notify.NewRedisSink(a.redis, cfg.Notify.Stream))
		case "amqp":
			conn, err := infra.NewAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange)
			if err != nil {
				return nil, err
			}
			a.amqp = conn
			sinks = append(sinks, notify.NewAMQPSink(conn.Channel, conn.Exchange))
		}
	}
	switch len(sinks) {
	case 0:
		return notify.NopSink{}, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

// Run serves HTTP, and retries awaiting bookings in the background, until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.log.Info().Msg("ridebook api starting")
	if a.retrier != nil {
		go a.retrier.Run(ctx)
	}
	return a.server.Run(ctx)
}

func (a *App) Close() error {
	var errs []error
	if a.amqp != nil {
		errs = append(errs, a.amqp.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		a.db.Close()
	}
	return errors.Join(errs...)
}
