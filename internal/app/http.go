package app

import (
	"context"
	"net/http"
	"time"

	"ftf-gateway/internal/auth/credentials"
	"ftf-gateway/internal/auth/handler"
	"ftf-gateway/internal/auth/login"
	"ftf-gateway/internal/auth/provider"
	"ftf-gateway/internal/auth/resolver"
	"ftf-gateway/internal/config"
	"ftf-gateway/internal/middleware"
	"ftf-gateway/internal/resource"
	"ftf-gateway/internal/vendor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiPrefix = "/api"

// Dependencies are the stores and providers the router is built from.
type Dependencies struct {
	Providers       *provider.Registry
	Vendors         vendor.Store
	Resources       resource.Store
	Credentials     *credentials.Service
	ProviderTimeout time.Duration

	// CORSAllowedOrigins defaults to any origin when empty.
	CORSAllowedOrigins []string

	// Ready reports whether backing stores are reachable. Nil means always
	// ready.
	Ready func(ctx context.Context) error
}

// NewRouter assembles the gateway: the public /auth endpoints and the
// /api resource routes behind Authenticator then Authorizer.
func NewRouter(deps Dependencies) *gin.Engine {
	accounts := resolver.NewAccountResolver(deps.Vendors)
	flow := login.NewFlow(deps.Providers, accounts, deps.Credentials, deps.ProviderTimeout)
	authenticator := middleware.NewAuthenticator(deps.Vendors, deps.Credentials)
	authorizer := middleware.NewAuthorizer(deps.Resources, apiPrefix)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(deps.CORSAllowedOrigins))

	// ----------------------------
	// Public Routes
	// ----------------------------

	handler.NewHandler(deps.Providers, flow, deps.Credentials, authenticator).
		RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		if deps.Ready != nil {
			if err := deps.Ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ----------------------------
	// Gateway Routes
	// ----------------------------

	api := router.Group(apiPrefix)
	api.Use(middleware.Gin(authenticator, authorizer))

	resource.NewHandler(deps.Resources, deps.Vendors).RegisterRoutes(api)

	return router
}

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	providers, err := setupProviders(ctx, cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	router := NewRouter(Dependencies{
		Providers:       providers,
		Vendors:         vendor.NewPostgresStore(infra.DB),
		Resources:       resource.NewPostgresStore(infra.DB),
		Credentials:     credentials.NewService(credentials.NewRedisStore(infra.Redis.Client), cfg.DefaultCredentialTTL),
		ProviderTimeout: cfg.ProviderTimeout,

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,

		Ready: func(ctx context.Context) error {
			if err := infra.DB.PingContext(ctx); err != nil {
				return err
			}
			return infra.Redis.Ping(ctx).Err()
		},
	})

	return router, infra.Close, nil
}
