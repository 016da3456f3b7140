package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/beastcodes27/movie-backend/internal/config"
	"github.com/beastcodes27/movie-backend/internal/infra/httpclient"
	s3infra "github.com/beastcodes27/movie-backend/internal/infra/s3"
	pgrepo "github.com/beastcodes27/movie-backend/internal/repo/postgres"
	redrepo "github.com/beastcodes27/movie-backend/internal/repo/redis"
	authsvc "github.com/beastcodes27/movie-backend/internal/services/auth"
	catalogsvc "github.com/beastcodes27/movie-backend/internal/services/catalog"
	"github.com/beastcodes27/movie-backend/internal/services/fastlipa"
	paymentsvc "github.com/beastcodes27/movie-backend/internal/services/payments"
	purchasesvc "github.com/beastcodes27/movie-backend/internal/services/purchases"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	ownedCacheRepo := redrepo.NewOwnedCacheRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	movieRepo := pgrepo.NewMovieRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, userRepo, cfg.Auth.RefreshTTL)

	posterStorage := catalogsvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	catalogService := catalogsvc.NewService(movieRepo, posterStorage)

	purchaseService := purchasesvc.NewService(purchaseRepo, movieRepo, log)
	purchaseService.AttachOwnedCache(ownedCacheRepo)

	gateway := fastlipa.NewClient(fastlipa.Config{
		BaseURL:     cfg.FastLipa.BaseURL,
		Token:       cfg.FastLipa.Token,
		CountryCode: cfg.FastLipa.CountryCode,
	}, httpclient.New(cfg.FastLipa.HTTPTimeout))
	paymentService := paymentsvc.NewService(gateway, purchaseService, paymentsvc.Config{
		Poller: paymentsvc.PollerConfig{
			Timeout:      cfg.Payment.Timeout,
			InitialDelay: cfg.Payment.InitialDelay,
			FastInterval: cfg.Payment.FastInterval,
			SlowInterval: cfg.Payment.SlowInterval,
			FastAttempts: cfg.Payment.FastAttempts,
		},
		ManualCheckLag: cfg.Payment.ManualCheckLag,
	}, log)

	RegisterRoutes(r, Dependencies{
		AuthService:     authService,
		CatalogService:  catalogService,
		PurchaseService: purchaseService,
		PaymentService:  paymentService,
		Logger:          log,
		Config:          cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
