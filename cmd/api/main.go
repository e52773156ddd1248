package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/formkit/internal/config"
	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/internal/handler"
	formHandler "github.com/jwalitptl/formkit/internal/handler/form"
	promHandler "github.com/jwalitptl/formkit/internal/handler/prometheus"
	strengthHandler "github.com/jwalitptl/formkit/internal/handler/strength"
	"github.com/jwalitptl/formkit/internal/middleware"
	"github.com/jwalitptl/formkit/internal/router"
	"github.com/jwalitptl/formkit/internal/submit"
	"github.com/jwalitptl/formkit/pkg/circuitbreaker"
	"github.com/jwalitptl/formkit/pkg/logger"
	"github.com/jwalitptl/formkit/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	})
	log.Logger = appLog.Zerolog()

	// Initialize metrics
	var (
		promH *promHandler.Handler
		m     *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		promH = promHandler.New(cfg.Metrics.Namespace)
		m = metrics.NewMetrics(cfg.Metrics.Namespace, "forms", promH.Registry())
	}

	// Initialize form catalog and controller
	catalog, err := form.DefaultCatalog(cfg.Backend.Endpoints)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build form catalog")
	}
	ctrl := submit.NewController(catalog, submit.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.SubmitRate,
		RateBurst: cfg.Backend.SubmitBurst,
		Breaker: circuitbreaker.Settings{
			MaxFailures: cfg.Breaker.MaxFailures,
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
		},
	}, appLog, m)

	// Initialize handlers
	h := handler.NewHandler(map[string]handler.ReadinessChecker{"backend": ctrl})
	strengthH := strengthHandler.NewHandler(ctrl)
	formH := formHandler.NewHandler(ctrl)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	r, err := router.NewRouter(h, promH, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit: middleware.RateLimiterConfig{
			RPS:       cfg.RateLimit.RequestsPerSecond,
			Burst:     cfg.RateLimit.Burst,
			ClientTTL: cfg.RateLimit.ClientTTL,
		},
		CORSConfig:   corsConfig,
		Security:     middleware.DefaultSecurityConfig(),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MetricsPath:  cfg.Metrics.Path,
	}, strengthH, formH)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Strs("forms", catalog.Names()).Msg("starting form assist server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
