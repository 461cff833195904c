package common

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// CountCheck answers "has the system under test produced the expected number
// of records yet". Read errors are swallowed on purpose: during
// eventual-consistency windows the table may not even exist, and that is
// indistinguishable from "still converging". Callers need their own overall
// timeout to detect a permanently broken store.
type CountCheck struct {
	Expected int
	Read     func(ctx context.Context) ([]Record, error)
}

// NewCountCheck binds a checker to a store, table and read parameters.
func NewCountCheck(expected int, store TableStore, table string, fields []string) CountCheck {
	return CountCheck{
		Expected: expected,
		Read: func(ctx context.Context) ([]Record, error) {
			return store.ReadAll(ctx, table, fields)
		},
	}
}

func (c CountCheck) Done(ctx context.Context) bool {
	recs, err := c.Read(ctx)
	if err != nil {
		slog.Debug("count check read failed, treating as not done", "err", err)
		return false
	}
	return len(recs) == c.Expected
}

// ErrWaitBudgetExceeded is returned once a Wait exhausts its attempts.
var ErrWaitBudgetExceeded = errors.New("condition not satisfied within the attempt budget")

// WaitOptions tune the fixed-interval polling loop. The defaults mirror the
// test environment's worst-case store startup (300 attempts, 1s apart).
type WaitOptions struct {
	Attempts int
	Interval time.Duration
	Clock    clock.Clock
}

const (
	DefaultWaitAttempts = 300
	DefaultWaitInterval = time.Second
)

func (o *WaitOptions) setDefaults() {
	if o.Attempts == 0 {
		o.Attempts = DefaultWaitAttempts
	}
	if o.Interval == 0 {
		o.Interval = DefaultWaitInterval
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
}

// Wait polls pred at a fixed interval until it reports true, the context is
// cancelled, or the attempt budget runs out.
func Wait(ctx context.Context, pred func(ctx context.Context) bool, opts WaitOptions) error {
	opts.setDefaults()
	for attempt := 0; attempt < opts.Attempts; attempt++ {
		if pred(ctx) {
			return nil
		}
		timer := opts.Clock.Timer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ErrWaitBudgetExceeded
}
