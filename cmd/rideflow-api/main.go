// README: Entry point; loads config, wires services, starts HTTP server and background sweeps.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rideflow/internal/config"
	httptransport "rideflow/internal/http"
	"rideflow/internal/infra"
	"rideflow/internal/logging"
	"rideflow/internal/maps"
	"rideflow/internal/modules/booking"
	"rideflow/internal/modules/dispatch"
	"rideflow/internal/modules/driver"
	"rideflow/internal/modules/geo"
	"rideflow/internal/modules/payment"
	"rideflow/internal/modules/pricing"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres init failed")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	bookingStore := booking.NewPGStore(dbPool)
	driverStore := driver.NewPGStore(dbPool)
	index := geo.NewRedisIndex(redisClient, cfg.Dispatch.SearchRadiusKm)
	calc := pricing.NewCalculator(pricing.DefaultRates, 1.0)

	var eta booking.DurationEstimator
	if cfg.Maps.APIKey != "" {
		route, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("maps init failed")
		}
		eta = route
	}

	var provider payment.Provider = payment.NewMockProvider()
	if cfg.Payment.Provider == "stripe" {
		if cfg.Payment.StripeKey == "" {
			log.Fatal().Msg("STRIPE_API_KEY is required with the stripe provider")
		}
		provider = payment.NewStripeProvider(cfg.Payment.StripeKey)
	}

	engine := dispatch.NewEngine(bookingStore, driverStore, index, cfg.Dispatch, log)
	lifecycle := dispatch.NewLifecycle(bookingStore, driverStore, engine, calc, log)
	bookingSvc := booking.NewService(bookingStore, calc, engine, eta, log)
	driverSvc := driver.NewService(driverStore, index, log)
	paymentSvc := payment.NewService(bookingStore, provider, log)

	activator := dispatch.NewActivator(bookingStore, engine, cfg.Dispatch, log)
	reclaimer := dispatch.NewReclaimer(bookingStore, driverStore, cfg.Dispatch, log)
	go activator.Run(ctx)
	go reclaimer.Run(ctx)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Bookings:  bookingSvc,
		Drivers:   driverSvc,
		Lifecycle: lifecycle,
		Payments:  paymentSvc,
		Log:       log,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("rideflow api listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
