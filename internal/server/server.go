// Package server is the browser-facing web tier. It renders the public pages
// and the role dashboards and talks to the backend API on the user's behalf.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/auth"
	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/config"
	"github.com/masjidku/masjidku-web/internal/guard"
	"github.com/masjidku/masjidku-web/internal/prayer"
	"github.com/masjidku/masjidku-web/internal/views"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	client    *backend.Client
	resolver  *auth.Resolver
	guard     *guard.Guard
	codec     *auth.TokenCodec
	validator *views.Validator
	prayer    *prayer.Service
	cache     *prayer.Cache
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	rules, err := guard.LoadRules(cfg.Server.RoutesFile)
	if err != nil {
		return nil, err
	}

	client := backend.New(cfg.Backend.URL, zlog.With().Str("component", "backend").Logger())
	resolver := auth.NewResolver(client, zlog)

	prayerService, err := prayer.NewService(
		prayer.NewClient(cfg.Prayer.APIURL, cfg.Prayer.Latitude, cfg.Prayer.Longitude, cfg.Prayer.Method, zlog),
		cfg.Prayer.Schedule,
		zlog.With().Str("component", "prayer").Logger(),
	)
	if err != nil {
		return nil, err
	}

	var cache *prayer.Cache
	if cfg.Prayer.CachePath != "" {
		cache, err = prayer.OpenCache(cfg.Prayer.CachePath)
		if err != nil {
			return nil, err
		}
		prayerService.SetStore(cache)
	}

	server := &Server{
		config:    cfg,
		logger:    zlog,
		client:    client,
		resolver:  resolver,
		codec:     auth.NewTokenCodec(cfg.Session.Secret, auth.DefaultCookieTTL),
		validator: views.NewValidator(),
		prayer:    prayerService,
		cache:     cache,
		version:   version,
	}
	server.guard = guard.New(rules, resolver, server.tokenStore, zlog.With().Str("component", "guard").Logger())

	if err := server.setupRouter(); err != nil {
		return nil, err
	}

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() error {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	tmpl, err := loadTemplates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.router.SetHTMLTemplate(tmpl)

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Route guard first, then the auth context it seeds
	s.router.Use(s.guard.Middleware())
	s.router.Use(s.sessionProvider())

	s.router.StaticFS("/static", staticFS())
	s.router.GET("/robots.txt", func(c *gin.Context) {
		c.FileFromFS("robots.txt", staticFS())
	})
	s.router.GET("/health", s.healthCheck)

	// Public pages
	s.router.GET("/", s.landing)
	s.router.GET("/landing", s.landing)
	s.router.GET("/login", s.loginPage)
	s.router.POST("/login", s.login)
	s.router.GET("/register", s.registerPage)
	s.router.POST("/register", s.register)
	s.router.POST("/logout", s.logout)
	s.router.GET("/unauthorized", s.unauthorized)

	// Dashboards
	s.router.GET("/dashboard", s.dashboardRedirect)
	for _, sh := range shells {
		s.mountShell(sh)
	}

	s.router.NoRoute(s.notFound)

	return nil
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "masjidku-web",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and the prayer refresh loop, and blocks until
// SIGINT or SIGTERM.
func (s *Server) Start() error {
	addr := ":" + s.config.Server.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.prayer.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("backend", s.client.BaseURL()).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %w", err)
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing prayer cache")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
