package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/RMahshie/pmtview/internal/api"
	"github.com/RMahshie/pmtview/internal/api/handlers"
	"github.com/RMahshie/pmtview/internal/config"
	"github.com/RMahshie/pmtview/internal/metrics"
	"github.com/RMahshie/pmtview/internal/provider"
	"github.com/RMahshie/pmtview/internal/render"
	"github.com/RMahshie/pmtview/internal/repository/postgres"
	"github.com/RMahshie/pmtview/internal/session"
	"github.com/RMahshie/pmtview/internal/storage"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Server.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Measurement snapshot
	measurementRepo := postgres.NewPostgresMeasurementRepository(db)
	measurements := provider.New(measurementRepo)
	if cfg.Seed.Enabled {
		_, err = measurements.SeedIfEmpty(ctx, provider.DefaultDataset())
	} else {
		err = measurements.Refresh(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load measurements")
	}

	sessions := session.NewStore()
	measurements.Subscribe(func(s provider.Snapshot) {
		if n := sessions.Prune(s.Points); n > 0 {
			log.Info().Int("sessions", n).Uint64("version", s.Version).Msg("Pruned selections of removed sources")
		}
	})

	// Rendering and export
	cache, err := render.NewCache(cfg.Chart.CacheMaxCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create render cache")
	}
	if cache != nil {
		defer cache.Close()
	} else {
		log.Info().Msg("RENDER_CACHE_MAX_COST is 0, render cache disabled")
	}

	var chartStore storage.ChartStore
	if cfg.ExportEnabled() {
		chartStore, err = storage.NewS3Service(ctx, storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 service")
		}
	} else {
		log.Warn().Msg("S3_BUCKET not set, chart export disabled")
	}
	renderSvc := render.NewService(measurements, chartStore, cache)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry); err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create Huma API
	humaConfig := huma.DefaultConfig("PMT Viewer API", "1.0.0")
	humaConfig.DocsPath = "/api/docs"
	humaAPI := humachi.New(router, humaConfig)

	defaults := cfg.Chart.Sizing()
	api.RegisterRoutes(humaAPI,
		handlers.NewMeasurementHandler(measurements),
		handlers.NewChartHandler(renderSvc, measurements, defaults),
		handlers.NewSessionHandler(sessions, measurements, renderSvc, defaults),
	)
	api.MountMetrics(router, registry)

	feed, err := postgres.NewChangeFeed(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen for measurement changes")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer feed.Close()
		return measurements.Watch(gctx, feed)
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting PMT Viewer API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exited")
}

// openDatabase connects to postgres, retrying while the database starts up
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err = backoff.RetryNotify(func() error {
		return db.PingContext(ctx)
	}, b, func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("Database not ready")
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("request_id", middleware.GetReqID(r.Context())).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("latency", time.Since(start)).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
