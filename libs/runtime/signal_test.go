package runtime

import (
	"io"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWatchSignalsCancelsThenExits(t *testing.T) {
	sigs := make(chan os.Signal, 2)
	exited := make(chan struct{})
	ctx, stop := watchSignals(slog.New(slog.NewTextHandler(io.Discard, nil)), sigs, func() { close(exited) })
	defer stop()

	sigs <- syscall.SIGTERM
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after first signal")
	}

	sigs <- syscall.SIGINT
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("second signal did not force exit")
	}
}

func TestWatchSignalsStopWithoutSignal(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	ctx, stop := watchSignals(slog.New(slog.NewTextHandler(io.Discard, nil)), sigs, func() { t.Error("unexpected exit") })
	stop()
	stop()
	if ctx.Err() == nil {
		t.Fatal("expected cancelled context after stop")
	}
	sigs <- syscall.SIGTERM
	time.Sleep(20 * time.Millisecond)
}
