package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/glimpse/storefront-api/internal/api"
	"github.com/glimpse/storefront-api/internal/api/handler"
	"github.com/glimpse/storefront-api/internal/core/ports"
	"github.com/glimpse/storefront-api/internal/core/service"
	mongodb "github.com/glimpse/storefront-api/internal/infrastructure/db/mongo"
	redisdb "github.com/glimpse/storefront-api/internal/infrastructure/db/redis"
	"github.com/glimpse/storefront-api/internal/infrastructure/notify"
	"github.com/glimpse/storefront-api/internal/infrastructure/queue"
	"github.com/glimpse/storefront-api/internal/pkg/config"
	"github.com/glimpse/storefront-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       Glimpse Storefront API
// @version                     1.0
// @description                 Catalog, cart, orders and reviews for the Glimpse storefront.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	dotenvErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "storefront-api",
	})
	if dotenvErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Document store (required) ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}

	users := mongodb.NewUserRepository(db)
	products := mongodb.NewProductRepository(db)
	cartItems := mongodb.NewCartRepository(db)
	orders := mongodb.NewOrderRepository(db)
	reviews := mongodb.NewReviewRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, products, cartItems, orders, reviews); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	// --- Cache (optional) ---
	var (
		cache      ports.Cache = redisdb.NopCache{}
		redisPing  handler.PingFunc
		closeRedis = func() error { return nil }
	)
	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable; serving uncached until it recovers")
		}
		c := redisdb.NewCache(client, logger.Component("cache"))
		cache, redisPing, closeRedis = c, c.Ping, client.Close
	} else {
		log.Info().Msg("REDIS_ADDR not set; catalog cache disabled")
	}

	// --- Services ---
	tokens := service.NewTokenService(
		service.TokenKey{Secret: cfg.JWT.AccessSecret, TTL: cfg.JWT.AccessTTL},
		service.TokenKey{Secret: cfg.JWT.RefreshSecret, TTL: cfg.JWT.RefreshTTL},
		service.TokenKey{Secret: cfg.JWT.ResetSecret, TTL: cfg.JWT.ResetTTL},
	)
	notifier := newNotifier(cfg, tokens)

	catalog := service.NewCatalogService(products, cache, cfg.Redis.CacheTTL, logger.Component("catalog"))
	authService := service.NewAuthService(users, tokens, notifier, cfg.AdminSecret, logger.Component("auth"))
	cartService := service.NewCartService(cartItems, products, logger.Component("cart"))
	orderService := service.NewOrderService(orders, products, logger.Component("orders"))
	reviewService := service.NewReviewService(reviews, orders, products, users, catalog, logger.Component("reviews"))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewRatingDispatcher(cfg.RatingWorkers, reviewService, logger.Component("ratings"))
	dispatcher.Start(workerCtx)
	reviewService.SetScheduler(dispatcher)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := service.SeedAdmin(ctx, users, cfg.Admin.Email, cfg.Admin.Password, logger.Component("seed")); err != nil {
			log.Error().Err(err).Msg("admin seed failed")
		}
	}

	trustedProxies, err := cfg.TrustedProxyNets()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}

	e := api.NewRouter(api.Deps{
		Auth:              authService,
		Catalog:           catalog,
		Cart:              cartService,
		Orders:            orderService,
		Reviews:           reviewService,
		Tokens:            tokens,
		MongoPing:         func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		RedisPing:         redisPing,
		Logger:            logger.Component("http"),
		CORSOrigins:       cfg.CORSOrigins,
		TrustedProxies:    trustedProxies,
		ExposeErrorDetail: !cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}

	stopWorkers()
	dispatcher.Wait()

	if err := closeRedis(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect failed")
	}

	log.Info().Msg("server stopped")
}

func newNotifier(cfg *config.Config, tokens ports.TokenService) ports.Notifier {
	nlog := logger.Component("notify")
	if cfg.SMTP.Host == "" {
		nlog.Info().Msg("SMTP_HOST not set; password reset links will be logged")
		return notify.NewLogNotifier(tokens, cfg.FrontendURL, nlog)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, tokens, cfg.FrontendURL, nlog)
}
