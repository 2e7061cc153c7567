package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/auth"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/config"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/database"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/ledger"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/logger"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/middleware"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/repository"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/scheduler"
	routes "github.com/AgusMolinaCode/DCA_Ledger/internal/server"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver, log); err != nil {
		return err
	}

	deals := repository.NewDealRepository(db)
	users := repository.NewUserRepository(db)
	snapshots := repository.NewSnapshotRepository(db)

	feed := services.NewPriceFeed(
		services.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoKey, nil),
		services.NewExchangeRateClient(cfg.ExchangeRateURL, cfg.ExchangeRateKey, nil),
		log,
	)
	ledgerService := ledger.NewService(deals, feed, log)

	jobs := scheduler.New(log, 2*time.Minute)
	for spec, job := range map[string]scheduler.Job{
		"@every 1m":  services.PriceRefreshJob{Feed: feed},
		"@hourly":    services.RateRefreshJob{Feed: feed},
		"@every 15m": services.NewSnapshotJob(deals, ledgerService, snapshots, log),
		"@every 10m": services.EvictionJob{Books: ledgerService, MaxIdle: 30 * time.Minute},
	} {
		if err := jobs.AddJob(spec, job); err != nil {
			return err
		}
	}
	if err := jobs.RunNow(ctx, services.RateRefreshJob{}.Name()); err != nil {
		log.Warn().Err(err).Msg("initial exchange rate refresh failed, derived currencies unavailable until the next run")
	}
	jobs.Start()
	defer jobs.Stop()

	h := middleware.NewHandler(middleware.Deps{
		Ledger:             ledgerService,
		Prices:             feed,
		Users:              users,
		Deals:              deals,
		Snapshots:          snapshots,
		Sessions:           auth.NewManager(cfg.JWTSecret, cfg.JWTExpiration),
		Jobs:               jobs,
		AdminKey:           cfg.AdminKey,
		ClerkSecretKey:     cfg.ClerkSecretKey,
		ClerkWebhookSecret: cfg.ClerkWebhookSecret,
		Log:                log,
	})

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Admin-Key", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	routes.RegisterRoutes(router, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
