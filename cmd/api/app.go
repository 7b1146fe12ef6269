package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"parkservices/internal/config"
	"parkservices/internal/metrics"
	"parkservices/internal/middleware"
	"parkservices/internal/modules/auth"
	"parkservices/internal/modules/orders"
	"parkservices/internal/modules/persistence"
	"parkservices/internal/modules/realtime"
	jwtsvc "parkservices/internal/pkg/jwt"
	"parkservices/internal/repository"
)

type app struct {
	router *gin.Engine
	hub    *realtime.Hub
	orders *orders.Service
}

// newApp wires repositories, modules and routes on a migrated database.
func newApp(ctx context.Context, cfg *config.Config, db *gorm.DB) *app {
	m := metrics.New()

	kvRepo := repository.NewKVRepository(db, cfg.StorageQuotaBytes)
	accountRepo := repository.NewAccountRepository(db)
	store := persistence.NewManager(kvRepo, cfg.PersistBudgetBytes, m)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	verifier := auth.ChainVerifier{auth.NewAccountVerifier(accountRepo)}
	if cfg.MockDirectory {
		verifier = append(verifier, auth.MockDirectory{})
	}
	authService := auth.NewService(ctx, verifier, accountRepo, store, j)
	authHandler := auth.NewHandler(authService)

	hub := realtime.NewHub()
	orderService := orders.NewService(ctx, store, hub, m, orders.Options{Permissive: cfg.PermissiveTransitions})
	orderHandler := orders.NewHandler(orderService, authService)
	wsHandler := realtime.NewHandler(hub, j, orderService)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorLogger())

	r.GET("/metrics", m.Handler())
	wsHandler.RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			orderHandler.RegisterRoutes(protected)
		}
	}

	return &app{router: r, hub: hub, orders: orderService}
}
