package runtime

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// ShutdownContext is cancelled on the first SIGINT or SIGTERM, which is
// logged. A second signal before stop is called exits with status 1.
func ShutdownContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, shutdownSignals...)
	ctx, stop := watchSignals(logger, sigs, func() { os.Exit(1) })
	return ctx, func() {
		signal.Stop(sigs)
		stop()
	}
}

func watchSignals(logger *slog.Logger, sigs <-chan os.Signal, exit func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	var once sync.Once

	go func() {
		select {
		case sig := <-sigs:
			logger.Info("shutdown requested", "signal", sig.String())
			cancel()
		case <-stopped:
			return
		}
		select {
		case sig := <-sigs:
			logger.Warn("second signal, exiting now", "signal", sig.String())
			exit()
		case <-stopped:
		}
	}()

	return ctx, func() {
		once.Do(func() { close(stopped) })
		cancel()
	}
}
