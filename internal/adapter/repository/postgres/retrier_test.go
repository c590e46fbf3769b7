package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
)

func fastRetrier(opts ...RetrierOption) *Retrier {
	opts = append([]RetrierOption{WithBackoff(time.Millisecond, 2*time.Millisecond, time.Second)}, opts...)
	return NewRetrier(opts...)
}

func TestRetrier_RecoversFromTransientErrors(t *testing.T) {
	for _, code := range []string{pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable} {
		t.Run(code, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			r := fastRetrier(WithRetryMetrics(m))

			attempts := 0
			err := r.Retry(context.Background(), func() error {
				attempts++
				if attempts < 3 {
					return &pgconn.PgError{Code: code}
				}
				return nil
			})

			if err != nil {
				t.Fatalf("expected success after retry, got %v", err)
			}
			if attempts != 3 {
				t.Fatalf("expected 3 attempts, got %d", attempts)
			}
			if got := testutil.ToFloat64(m.DBRetries.WithLabelValues(code)); got != 2 {
				t.Fatalf("expected 2 retries counted, got %v", got)
			}
		})
	}
}

func TestRetrier_GivesUpAfterBudget(t *testing.T) {
	r := fastRetrier(WithMaxRetries(2))

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return fmt.Errorf("commit: %w", &pgconn.PgError{Code: pgErrSerializationFailure})
	})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrSerializationFailure {
		t.Fatalf("expected serialization failure, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetrier_PermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"insufficient funds", domain.ErrInsufficientFunds},
		{"unique violation", &pgconn.PgError{Code: "23505"}},
		{"plain error", errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := fastRetrier().Retry(context.Background(), func() error {
				attempts++
				return tt.err
			})

			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if attempts != 1 {
				t.Fatalf("expected 1 attempt, got %d", attempts)
			}
		})
	}
}

func TestRetrier_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := fastRetrier(WithMaxRetries(100))

	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return &pgconn.PgError{Code: pgErrDeadlock}
	})

	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}
