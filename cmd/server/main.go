// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/courtbook/internal/availability"
	"github.com/codr1/courtbook/internal/booking"
	"github.com/codr1/courtbook/internal/config"
	"github.com/codr1/courtbook/internal/courts"
	"github.com/codr1/courtbook/internal/db"
	"github.com/codr1/courtbook/internal/events"
	"github.com/codr1/courtbook/internal/keylock"
	"github.com/codr1/courtbook/internal/policy"
	"github.com/codr1/courtbook/internal/ratelimit"
	"github.com/codr1/courtbook/internal/reservations"
	"github.com/codr1/courtbook/internal/schedule"
	"github.com/codr1/courtbook/internal/scheduler"
)

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// services is everything the HTTP layer and the scheduler need.
type services struct {
	catalog     *courts.Store
	windows     *schedule.Store
	cutoffs     *policy.CourtOverrides
	resolver    *availability.Resolver
	coordinator *booking.Coordinator
	limiter     *ratelimit.Limiter
	closers     []func() error
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Error during cleanup")
		}
	}
}

func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	svc := &services{}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	svc.closers = append(svc.closers, database.Close)

	svc.catalog, err = courts.NewStore(database)
	if err != nil {
		svc.close()
		return nil, err
	}
	svc.windows, err = schedule.NewStore(database, svc.catalog)
	if err != nil {
		svc.close()
		return nil, err
	}
	ledger, err := reservations.NewLedger(database)
	if err != nil {
		svc.close()
		return nil, err
	}
	svc.resolver, err = availability.NewResolver(svc.catalog, svc.windows, ledger)
	if err != nil {
		svc.close()
		return nil, err
	}

	locker, err := newLocker(ctx, cfg, svc)
	if err != nil {
		svc.close()
		return nil, err
	}

	svc.cutoffs, err = policy.NewCourtOverrides(database, cfg.Booking.CancellationCutoff)
	if err != nil {
		svc.close()
		return nil, err
	}

	publisher, err := newPublisher(cfg, svc)
	if err != nil {
		svc.close()
		return nil, err
	}

	svc.coordinator, err = booking.NewCoordinator(ledger, svc.resolver, locker, svc.cutoffs,
		booking.WithPublisher(publisher),
		booking.WithLocation(cfg.Location()),
		booking.WithDailyLimit(cfg.Booking.MaxReservationsPerUserPerDay),
	)
	if err != nil {
		svc.close()
		return nil, err
	}

	if svc.limiter = newLimiter(cfg); svc.limiter != nil {
		svc.closers = append(svc.closers, func() error {
			svc.limiter.Close()
			return nil
		})
	}
	return svc, nil
}

func newLocker(ctx context.Context, cfg *config.Config, svc *services) (keylock.Locker, error) {
	switch cfg.Booking.LockBackend {
	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using redis slot locks")
		return keylock.NewRedis(client, keylock.RedisOptions{TTL: cfg.Booking.LockTTL})
	default:
		log.Info().Msg("Using in-process slot locks")
		return keylock.NewLocal(), nil
	}
}

func newPublisher(cfg *config.Config, svc *services) (events.Publisher, error) {
	if cfg.Events.Backend != config.EventsBackendAMQP {
		return events.Nop{}, nil
	}
	pub, err := events.NewAMQP(cfg.Events.URL, cfg.Events.Exchange)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, pub.Close)
	log.Info().Str("exchange", cfg.Events.Exchange).Msg("Publishing reservation events")
	return pub, nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterCompletionSweep(sched, svc.coordinator, cfg.Scheduler.CompletionSweep); err != nil {
		log.Fatal().Err(err).Msg("Failed to register completion sweep")
	}
	sched.Start()

	server := newServer(cfg, svc)

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Str("app", cfg.App.Name).Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := sched.Stop(); err != nil {
			log.Warn().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	err = g.Wait()
	svc.close()
	if err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
