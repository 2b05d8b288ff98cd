package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// ShutdownHook runs during shutdown. Lower priority runs first.
type ShutdownHook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Shutdown coordinates graceful teardown of the HTTP server and its
// collaborators (tracer provider, store connections) on SIGTERM/SIGINT.
type Shutdown struct {
	mu      sync.Mutex
	hooks   []ShutdownHook
	timeout time.Duration
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// NewShutdown creates a shutdown coordinator.
func NewShutdown(timeout time.Duration) *Shutdown {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Shutdown{
		timeout: timeout,
		done:    make(chan struct{}),
		logger:  slog.Default(),
	}
}

// RegisterHook adds a teardown step.
func (s *Shutdown) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, ShutdownHook{Name: name, Priority: priority, Fn: fn})
	sort.SliceStable(s.hooks, func(i, j int) bool { return s.hooks[i].Priority < s.hooks[j].Priority })
}

// Listen starts watching for termination signals.
func (s *Shutdown) Listen() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		signal.Stop(sigCh)
		s.logger.Info("shutdown signal received", "signal", sig.String())
		s.run()
	}()
}

// Trigger starts shutdown without a signal.
func (s *Shutdown) Trigger() { s.run() }

// Wait blocks until teardown is complete.
func (s *Shutdown) Wait() { <-s.done }

func (s *Shutdown) run() {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.mu.Lock()
		hooks := make([]ShutdownHook, len(s.hooks))
		copy(hooks, s.hooks)
		s.mu.Unlock()

		for _, hook := range hooks {
			if err := hook.Fn(ctx); err != nil {
				s.logger.Error("shutdown hook failed", "hook", hook.Name, "err", err)
			}
		}
		close(s.done)
	})
}

// Run starts the API server on addr and blocks until shutdown completes.
func Run(addr string, api *API, health *Health, shutdown *Shutdown) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // answer generation is slow
	}

	shutdown.RegisterHook("http-server", 10, func(ctx context.Context) error {
		health.SetReady(false)
		return srv.Shutdown(ctx)
	})
	shutdown.Listen()

	health.SetReady(true)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-shutdown.done:
		return nil
	}
}
