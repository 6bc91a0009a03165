package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"metrika/internal/metrics"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// stepFailures collects failed follow-up steps of a saga. Every failure is
// logged and counted; the caller turns a non-empty list into ErrSideEffects.
type stepFailures []string

func (f *stepFailures) check(ctx context.Context, step string, err error, attrs ...any) {
	if err == nil {
		return
	}
	metrics.SideEffectFailures.WithLabelValues(step).Inc()
	slog.ErrorContext(ctx, "side effect failed", append([]any{"step", step, "err", err}, attrs...)...)
	*f = append(*f, step)
}

func (f stepFailures) String() string {
	return strings.Join(f, ", ")
}

func ptr[T any](v T) *T {
	return &v
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
