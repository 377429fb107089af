package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/DigitalTwin/internal/api/http"
	"github.com/GriffinCanCode/DigitalTwin/internal/api/middleware"
	"github.com/GriffinCanCode/DigitalTwin/internal/api/ws"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/activity"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/analytics"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/auth"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/desktop"
	"github.com/GriffinCanCode/DigitalTwin/internal/domain/fixtures"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/config"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/storage"
	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

const tokenSweepInterval = time.Minute

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	store    *storage.Store
	auth     *auth.Service
	desktops *desktop.Registry
	hub      *ws.Hub
	chart    *analytics.ChartGenerator
	archive  *storage.Archiver
	fixtures *fixtures.Provider
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	config   *config.Config
}

// NewServer opens the database, seeds the demo accounts and builds the
// router. Background work starts in Run.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing Digital Twin server",
		zap.String("addr", cfg.Address()),
		zap.String("db", cfg.DatabasePath()),
	)

	metrics := monitoring.NewMetrics()

	store, err := storage.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return nil, err
	}

	catalog, err := fixtures.NewProvider(cfg.Storage.FixturesPath, logger.Named("fixtures"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load fixture catalog: %w", err)
	}

	// hub is assigned below; the auditor only runs once requests arrive
	var hub *ws.Hub
	alert := func(row types.StoredActivity) {
		if hub != nil && activity.IsSuspicious(row.Action) {
			hub.BroadcastType(ws.ClientAdmin, types.WSMessage{
				Type:   ws.TypeSecurityAlert,
				UserID: row.UserID,
				Action: row.Action,
				Data:   row,
			})
		}
	}

	authSvc := auth.NewService(store, auth.Config{
		TokenTTL: cfg.Auth.TokenTTL,
		Audit: func(ctx context.Context, userID, action, details string) {
			row, err := store.InsertActivity(ctx, types.StoredActivity{UserID: userID, Action: action, Details: details})
			if err != nil {
				logger.Warn("Failed to audit account event", zap.String("action", action), zap.Error(err))
				return
			}
			metrics.RecordActivity(action)
			alert(row)
		},
	}, logger)

	if cfg.Auth.SeedUsers {
		if _, err := authSvc.Seed(context.Background(), auth.DefaultSeed()); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to seed accounts: %w", err)
		}
	}

	hub = ws.NewHub(ws.Options{
		Store:    store,
		Auth:     authSvc,
		Observer: metrics,
		Logger:   logger,
	})

	archive := storage.NewArchiver(store, cfg.Storage.ArchiveBuffer, logger)
	archive.OnStored = alert

	activityCfg := activity.Config{
		Capacity: cfg.Desktop.ActivityCapacity,
		Actor:    cfg.Desktop.ActivityActor,
	}
	desktops := desktop.NewRegistry(func(userID string) *desktop.Controller {
		return desktop.New(desktop.Options{
			UserID:   userID,
			Activity: activityCfg,
			Catalog:  catalog,
			Store:    store.KV(userID),
			Renderer: hub.Renderer(userID),
			Observer: metrics,
			Sinks: []activity.Sink{
				activity.SinkFunc(func(rec types.ActivityRecord) error {
					return archive.Enqueue(userID, rec)
				}),
				activity.SinkFunc(func(rec types.ActivityRecord) error {
					hub.PublishActivity(userID, rec)
					return nil
				}),
			},
			Logger: logger,
		})
	}, metrics, logger.Named("desktops"))

	seed := uint64(time.Now().UnixNano())
	chart := analytics.NewChartGenerator(rand.NewPCG(seed, seed>>1), nil)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(tracing.HTTPMiddleware(logger))
	router.Use(monitoring.Middleware(metrics))
	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		cors.AllowOrigins = cfg.Server.CORSOrigins
	}
	router.Use(middleware.CORS(cors))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(api.Deps{
		Auth:      authSvc,
		Store:     store,
		Analytics: analytics.NewService(store, nil),
		Desktops:  desktops,
		Hub:       hub,
		Chart:     chart,
		Archive:   archive,
		Metrics:   metrics,
		Logger:    logger,
	})
	handlers.Register(router)
	router.GET("/metrics", monitoring.Handler(metrics))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		store:    store,
		auth:     authSvc,
		desktops: desktops,
		hub:      hub,
		chart:    chart,
		archive:  archive,
		fixtures: catalog,
		metrics:  metrics,
		logger:   logger,
		config:   cfg,
	}, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the background workers and serves HTTP until ctx is
// cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	workCtx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	s.start(workCtx, &wg)

	srv := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	s.hub.Close()
	stop()
	wg.Wait()
	return runErr
}

func (s *Server) start(ctx context.Context, wg *sync.WaitGroup) {
	if err := s.fixtures.Watch(ctx); err != nil {
		s.logger.Warn("Fixture hot reload disabled", zap.Error(err))
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		s.archive.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.auth.RunSweeper(ctx, tokenSweepInterval)
	}()
	go func() {
		defer wg.Done()
		s.chart.Run(ctx, s.config.Chart.Interval, func(c analytics.Chart) {
			s.hub.PublishChart(c)
		})
	}()
}

// Close releases the database and flushes the logger
func (s *Server) Close() error {
	for _, userID := range s.desktops.Users() {
		s.desktops.Remove(userID)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
		return fmt.Errorf("failed to close database: %w", err)
	}
	_ = s.logger.Sync()
	return nil
}
