// Package server runs the daemon's long-lived components: it starts them,
// waits for a termination signal or a failure, and stops them in reverse order.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service represents a long-running component that can be started and stopped.
type Service interface {
	// Start begins the service. It should block until the service is stopped
	// or an error occurs.
	Start() error
	// Stop gracefully stops the service.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle starts services in registration order and stops them in reverse.
// Cleanup hooks run after every service has stopped, also in reverse.
type Lifecycle struct {
	logger      *zap.Logger
	stopTimeout time.Duration
	mu          sync.Mutex
	services    []namedService
	cleanups    []namedCleanup
}

type namedService struct {
	name    string
	service Service
}

type namedCleanup struct {
	name string
	fn   func()
}

// NewLifecycle creates a Lifecycle. A service whose Stop takes longer than
// stopTimeout is abandoned; zero waits forever.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger, stopTimeout time.Duration) *Lifecycle {
	return &Lifecycle{logger: logger, stopTimeout: stopTimeout}
}

// Add registers a named service.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// OnShutdown registers fn to run once all services are stopped, e.g. closing
// a database pool the services share.
func (l *Lifecycle) OnShutdown(name string, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanups = append(l.cleanups, namedCleanup{name: name, fn: fn})
}

// Run starts all services and blocks until SIGINT, SIGTERM, ctx cancellation,
// or the first service failure.
//
// Postcondition: All services are stopped and all cleanups have run. The
// returned error is the first service failure, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	cleanups := append([]namedCleanup(nil), l.cleanups...)
	l.mu.Unlock()

	errCh := make(chan error, len(services))
	for _, ns := range services {
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			svcStart := time.Now()
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}

	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	var runErr error
	select {
	case err := <-errCh:
		runErr = err
		l.logger.Error("service error, shutting down", zap.Error(err))
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	}

	l.shutdown(services, cleanups)

	l.logger.Info("shutdown complete",
		zap.Duration("total_uptime", time.Since(start)),
	)
	return runErr
}

func (l *Lifecycle) shutdown(services []namedService, cleanups []namedCleanup) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", ns.name))
		if !l.stopWithin(ns.service) {
			l.logger.Warn("service did not stop in time",
				zap.String("service", ns.name),
				zap.Duration("timeout", l.stopTimeout),
			)
			continue
		}
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		l.logger.Debug("running cleanup", zap.String("cleanup", cleanups[i].name))
		cleanups[i].fn()
	}
	l.logger.Info("all services stopped",
		zap.Duration("shutdown_elapsed", time.Since(shutdownStart)),
	)
}

// stopWithin reports whether svc.Stop returned before the stop timeout.
func (l *Lifecycle) stopWithin(svc Service) bool {
	if l.stopTimeout <= 0 {
		svc.Stop()
		return true
	}
	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	timer := time.NewTimer(l.stopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
