package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	infracache "github.com/torii-authz/torii/internal/infrastructure/cache"
	"github.com/torii-authz/torii/internal/infrastructure/config"
	"github.com/torii-authz/torii/internal/infrastructure/database"
	"github.com/torii-authz/torii/internal/infrastructure/metrics"
	"github.com/torii-authz/torii/internal/repositories/postgres"
	"github.com/torii-authz/torii/internal/server"
	"github.com/torii-authz/torii/internal/services"
	"github.com/torii-authz/torii/internal/services/authorization"
	"github.com/torii-authz/torii/pkg/cache/memorycache"
)

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = "dev"
	}

	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()
	log.Println("Connected to database")

	ruleRepo := postgres.NewPostgresRuleRepository(pg.DB)
	principalRepo := postgres.NewPostgresPrincipalRepository(pg.DB)
	evaluator := authorization.NewEvaluator(ruleRepo)

	collector := metrics.NewCollector()
	exporter := metrics.NewPrometheusExporter(collector)

	var checker authorization.CheckerInterface
	var revisionManager *infracache.RevisionManager

	if cfg.Cache.Enabled {
		decisionCache, err := memorycache.New(&memorycache.Config{
			MaxSizeBytes:  cfg.Cache.MaxMemoryBytes,
			DefaultTTL:    time.Duration(cfg.Cache.TTLSeconds) * time.Second,
			EnableMetrics: cfg.Cache.Metrics,
		})
		if err != nil {
			log.Fatalf("Failed to create decision cache: %v", err)
		}
		defer decisionCache.Close()
		collector.SetCache(decisionCache)

		revisionManager = infracache.NewRevisionManager(
			pg.DB,
			cfg.Database.ConnectionString(),
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		)
		if err := revisionManager.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start revision manager: %v", err)
		}
		defer revisionManager.Stop()

		checker = authorization.NewCheckerWithCache(
			principalRepo,
			evaluator,
			decisionCache,
			revisionManager,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		)
		log.Printf("Decision cache enabled (max %d bytes, TTL %ds)", cfg.Cache.MaxMemoryBytes, cfg.Cache.TTLSeconds)
	} else {
		checker = authorization.NewChecker(principalRepo, evaluator)
		log.Println("Decision cache disabled")
	}

	ruleService := services.NewRuleService(ruleRepo)
	principalService := services.NewPrincipalService(principalRepo)

	handler := server.NewRouter(
		server.Deps{
			Checker:    checker,
			Rules:      ruleService,
			Principals: principalService,
			Health: func(r *http.Request) error {
				return pg.HealthCheck(r.Context())
			},
			Recorder:  exporter,
			MetricsMW: metrics.Middleware(collector, exporter),
		},
		server.Options{
			EnableCORS:     cfg.Server.CORSEnabled,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			ProtectAdmin:   cfg.Authz.ProtectAdmin,
		},
	)

	// Metrics server on a separate port, not exposed to API clients.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsMux,
	}
	go func() {
		log.Printf("Metrics server listening on :%d", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	// Refresh gauge metrics periodically.
	gaugeTickerDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gaugeTickerDone:
				return
			case <-ticker.C:
				exporter.Update()
			}
		}
	}()
	defer close(gaugeTickerDone)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", apiServer.Addr)
		serverErrors <- apiServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)
	case sig := <-shutdown:
		log.Printf("Received signal %v, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
			apiServer.Close()
		}
		if err := metricsServer.Shutdown(ctx); err != nil {
			metricsServer.Close()
		}
	}

	log.Println("Server stopped")
}
