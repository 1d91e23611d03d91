package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func quietConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     false,
	}
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), quietConfig(), zerolog.Nop(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), quietConfig(), zerolog.Nop(), func() error {
		calls++
		if calls < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	permanent := errors.New("invalid api key")
	err := Do(context.Background(), quietConfig(), zerolog.Nop(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected %v, got %v", permanent, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), quietConfig(), zerolog.Nop(), func() error {
		calls++
		return errors.New("rate limit exceeded")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := quietConfig()
	cfg.BaseDelay = time.Second

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, cfg, zerolog.Nop(), func() error {
		calls++
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error must not be retryable")
	}
	if !IsRetryable(errors.New("429 Too Many Requests")) {
		t.Error("rate limit errors are retryable")
	}
	if !IsRetryable(errors.New("dial tcp: connection refused")) {
		t.Error("connection errors are retryable")
	}
	if IsRetryable(errors.New("unauthorized")) {
		t.Error("auth errors are not retryable")
	}
}

func TestDelayFor_CapsAtMaxDelay(t *testing.T) {
	cfg := Config{
		BaseDelay:  time.Second,
		MaxDelay:   2 * time.Second,
		Multiplier: 10,
		Jitter:     false,
	}
	if d := delayFor(cfg, 5); d != 2*time.Second {
		t.Errorf("expected cap at 2s, got %v", d)
	}
}
