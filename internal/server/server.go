package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fitlog/apiserver/config"
	"github.com/fitlog/apiserver/internal/cache"
	"github.com/fitlog/apiserver/internal/db"
	"github.com/fitlog/apiserver/internal/handlers"
	"github.com/fitlog/apiserver/internal/logger"
	"github.com/fitlog/apiserver/internal/mq"
	"github.com/fitlog/apiserver/internal/services"
	"github.com/fitlog/apiserver/internal/store"
	"github.com/fitlog/apiserver/internal/store/memory"
)

const (
	shutdownTimeout = 10 * time.Second

	// requestTimeout bounds a handler. writeTimeout must outlast it so the
	// 503 written by the timeout middleware still reaches the client.
	requestTimeout = 60 * time.Second
	writeTimeout   = requestTimeout + 5*time.Second
)

// Server wraps the HTTP server, router and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *logger.Logger
	closers    []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// New wires the store, optional cache and event publisher into the router.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Server, error) {
	s := &Server{log: log}

	userRepo, exerciseRepo, err := s.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			s.closeAll()
			return nil, err
		}
		s.closers = append(s.closers, namedCloser{"redis", client.Close})
		userRepo = cache.NewUserRepository(userRepo, client, cfg.Redis.TTL)
		log.Info(ctx, "user cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	userService := services.NewUserService(userRepo)
	var opts []services.ExerciseOption

	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		s.closeAll()
		return nil, err
	}
	if queue != nil {
		s.closers = append(s.closers, namedCloser{"mq", queue.Close})
		opts = append(opts, services.WithEventPublisher(queue, cfg.MQ.Channel))
		log.Info(ctx, "exercise events enabled",
			zap.String("backend", queue.Name()), zap.String("channel", cfg.MQ.Channel))
	}

	exerciseService := services.NewExerciseService(userService, exerciseRepo, opts...)

	s.router = NewRouter(log, userService, exerciseService)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// NewRouter builds the HTTP routes over the given services. Metrics wraps
// Recoverer so recovered panics are counted as 500s.
func NewRouter(log *logger.Logger, users *services.UserService, exercises *services.ExerciseService) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(log),
		handlers.Metrics,
		middleware.Recoverer,
		handlers.CORS,
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, users, exercises)
	})
	return router
}

func (s *Server) openStore(ctx context.Context, cfg config.Config) (services.UserRepository, services.ExerciseRepository, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		s.log.Warn(ctx, "using in-memory store, data will not survive a restart")
		mem := memory.New()
		return mem.Users(), mem.Exercises(), nil
	}

	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(cfg.Database.URL()); err != nil {
			return nil, nil, err
		}
		s.log.Info(ctx, "database migrations applied")
	}

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	s.closers = append(s.closers, namedCloser{"postgres", conn.Close})
	s.log.Info(ctx, "connected to database",
		zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	return store.NewUserRepository(conn), store.NewExerciseRepository(conn), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.closeAll()
		return err
	case <-ctx.Done():
	}

	s.log.Info(ctx, "shutting down server")
	return s.Shutdown()
}

// Shutdown drains in-flight requests and releases owned connections.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.closeAll()
	return err
}

func (s *Server) closeAll() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			s.log.Warn(context.Background(), "close failed", zap.String("resource", c.name), zap.Error(err))
		}
	}
	s.closers = nil
}
