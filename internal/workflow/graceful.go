package workflow

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imtaco/rtc-token-server/internal/log"
)

type GracefulShutdownAction func(ctx context.Context)

// WaitGracefulShutdown blocks until ctx is done or SIGINT/SIGTERM arrives, then
// runs action with a context bounded by timeout.
func WaitGracefulShutdown(
	ctx context.Context,
	logger *log.Logger,
	action GracefulShutdownAction,
	timeout time.Duration,
) {
	logger.Info("Graceful shutdown handler registered")

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	if runWithTimeout(logger, action, timeout) {
		logger.Info("Graceful shutdown completed")
	} else {
		logger.Warn("Shutdown timeout exceeded, forcing exit")
	}
}

// runWithTimeout reports whether action finished before the timeout.
func runWithTimeout(logger *log.Logger, action GracefulShutdownAction, timeout time.Duration) bool {
	ctxClean, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic during graceful shutdown", log.Any("error", r))
			}
		}()
		logger.Info("Starting graceful shutdown")
		action(ctxClean)
	}()

	select {
	case <-ctxClean.Done():
		return false
	case <-done:
		return true
	}
}
