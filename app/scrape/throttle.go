package scrape

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Throttle runs n units of work, limiting how fast outbound requests are made.
type Throttle interface {
	Run(ctx context.Context, n int, work func(ctx context.Context, i int) error)
}

// BatchThrottle runs work in fixed size batches with a pause between them.
// After a batch with failures the pause is multiplied by Backoff, up to
// MaxWait. A successful batch resets the pause.
type BatchThrottle struct {
	Size    int
	Wait    time.Duration
	Backoff float64
	MaxWait time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewBatchThrottle(size int, wait time.Duration, backoff float64) *BatchThrottle {
	return &BatchThrottle{
		Size:    max(size, 1),
		Wait:    wait,
		Backoff: max(backoff, 1),
		MaxWait: MaxBatchWait,
		sleep:   sleepContext,
	}
}

func (t *BatchThrottle) Run(ctx context.Context, n int, work func(ctx context.Context, i int) error) {
	wait := t.Wait

	for start := 0; start < n; start += t.Size {
		if start > 0 {
			if err := t.sleep(ctx, wait); err != nil {
				return
			}
		}

		end := min(start+t.Size, n)
		failed := make([]bool, end-start)

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				if err := work(ctx, i); err != nil {
					failed[i-start] = true
				}
				return nil
			})
		}
		_ = g.Wait()

		if hasFailure(failed) {
			wait = min(time.Duration(float64(wait)*t.Backoff), t.MaxWait)
		} else {
			wait = t.Wait
		}
	}
}

func hasFailure(failed []bool) bool {
	for _, f := range failed {
		if f {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
