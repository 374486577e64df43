package shutdown

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pagestack/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	var buf bytes.Buffer
	return logger.New(logger.Config{Level: "error", Format: "json", Output: &buf})
}

func TestShutdownRunsHandlers(t *testing.T) {
	m := NewManager(testLogger(), 5*time.Second)

	var calls int32
	m.Register("first", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	m.Register("second", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	m.Shutdown()

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 handler calls, got %d", got)
	}

	select {
	case <-m.Done():
	default:
		t.Error("expected done channel to be closed after shutdown")
	}
}

func TestShutdownContinuesOnHandlerError(t *testing.T) {
	m := NewManager(testLogger(), 5*time.Second)

	var ran int32
	m.Register("failing", func(ctx context.Context) error {
		return errors.New("cleanup failed")
	})
	m.Register("ok", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	m.Shutdown()

	if atomic.LoadInt32(&ran) != 1 {
		t.Error("expected remaining handlers to run despite failure")
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager(testLogger(), 100*time.Millisecond)

	m.Register("slow", func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
		}
		return ctx.Err()
	})

	start := time.Now()
	m.Shutdown()
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Errorf("shutdown did not respect timeout, took %s", elapsed)
	}
}

func TestShutdownWithNoHandlers(t *testing.T) {
	m := NewManager(testLogger(), time.Second)
	m.Shutdown() // must not panic or block

	select {
	case <-m.Done():
	default:
		t.Error("expected done channel to be closed")
	}
}
