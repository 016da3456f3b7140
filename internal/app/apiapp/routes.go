package apiapp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/beastcodes27/movie-backend/internal/config"
	authsvc "github.com/beastcodes27/movie-backend/internal/services/auth"
	catalogsvc "github.com/beastcodes27/movie-backend/internal/services/catalog"
	paymentsvc "github.com/beastcodes27/movie-backend/internal/services/payments"
	purchasesvc "github.com/beastcodes27/movie-backend/internal/services/purchases"
	"github.com/beastcodes27/movie-backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService     *authsvc.Service
	CatalogService  *catalogsvc.Service
	PurchaseService *purchasesvc.Service
	PaymentService  *paymentsvc.Service
	Logger          *zap.Logger
	Config          config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	moviesHandler := handlers.NewMoviesHandler(deps.CatalogService)
	purchaseHandler := handlers.NewPurchaseHandler(deps.PaymentService, deps.PurchaseService, deps.CatalogService, deps.Logger)
	adminHandler := handlers.NewAdminHandler(deps.PurchaseService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	adminRoleMW := RequireRole("ADMIN")

	r.Get("/healthz", healthHandler.Get)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", moviesHandler.List)
		r.Get("/{id}", moviesHandler.Get)
	})

	r.With(authMW).Post("/purchase", purchaseHandler.Create)
	r.With(authMW).Post("/purchase/recheck", purchaseHandler.Recheck)
	r.With(authMW).Get("/purchases", purchaseHandler.Owned)
	r.With(authMW).Get("/purchases/history", purchaseHandler.History)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW, adminRoleMW)
		r.Post("/movies", moviesHandler.Create)
		r.Delete("/movies/{id}", moviesHandler.Delete)
		r.Post("/movies/{id}/poster", moviesHandler.UploadPoster)
		r.Get("/transactions", adminHandler.Transactions)
		r.Get("/transactions/stats", adminHandler.Stats)
	})
}
