package graceful

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Laisky/zap"

	"github.com/fuchsia74/nova-agent/common/logger"
)

// Lifecycle manager for graceful shutdown and request draining.

var (
	inFlightRequests int64

	wg sync.WaitGroup
)

// BeginRequest increments the in-flight request counter and returns a function
// to decrement it. Use with `defer` at the top of request handlers/middlewares.
func BeginRequest() func() {
	atomic.AddInt64(&inFlightRequests, 1)
	return func() {
		atomic.AddInt64(&inFlightRequests, -1)
	}
}

// GoBackground runs fn in a tracked goroutine so Drain can wait for it.
// Use for post-response tasks like usage accounting.
func GoBackground(ctx context.Context, name string, fn func(context.Context)) {
	wg.Go(func() {
		start := time.Now()
		logger.Logger.Debug("background task start", zap.String("name", name))
		fn(ctx)
		logger.Logger.Debug("background task done", zap.String("name", name), zap.Duration("elapsed", time.Since(start)))
	})
}

// Drain waits for tracked background tasks to finish and for in-flight
// requests to reach zero, bounded by the ctx deadline. Call it after
// http.Server.Shutdown has stopped accepting new requests.
func Drain(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		logger.Logger.Error("graceful drain timeout",
			zap.Int64("in_flight_requests", atomic.LoadInt64(&inFlightRequests)))
		return ctx.Err()
	case <-done:
	}

	for {
		if n := atomic.LoadInt64(&inFlightRequests); n == 0 {
			logger.Logger.Info("graceful drain complete: no in-flight requests")
			return nil
		}
		select {
		case <-ctx.Done():
			logger.Logger.Error("graceful drain timeout (requests not zero)",
				zap.Int64("in_flight_requests", atomic.LoadInt64(&inFlightRequests)))
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
