package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/scope"
)

// Run hosts root on the calling goroutine: it activates root with sc, ticks
// it once per value received from clock, and terminates it when ctx is
// cancelled or clock is closed. after, if non-nil, runs after every
// successful tick.
//
// The first failure stops the run. Root is still terminated if it was
// activated, and a termination failure is joined to the returned error.
func Run(ctx context.Context, root Chip, sc *scope.Context, clock <-chan time.Time, after func(TickInfo)) (err error) {
	if err := root.Activate(sc); err != nil {
		log.ErrorErr(log.CatLifecycle, "activation failed", err)
		return fmt.Errorf("activating: %w", err)
	}
	log.Info(log.CatLifecycle, "host activated")

	defer func() {
		if terr := root.Terminate(); terr != nil {
			log.ErrorErr(log.CatLifecycle, "termination failed", terr)
			err = errors.Join(err, fmt.Errorf("terminating: %w", terr))
			return
		}
		log.Info(log.CatLifecycle, "host terminated")
	}()

	var (
		frame uint64
		last  time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case now, ok := <-clock:
			if !ok {
				return nil
			}
			frame++
			info := TickInfo{Frame: frame}
			if !last.IsZero() {
				info.Delta = now.Sub(last)
			}
			last = now
			if err := root.Tick(info); err != nil {
				log.ErrorErr(log.CatLifecycle, "tick failed", err, "frame", frame)
				return fmt.Errorf("tick %d: %w", frame, err)
			}
			if after != nil {
				after(info)
			}
		}
	}
}

// Frames returns a closed channel pre-filled with n ticks spaced by step,
// for hosting a fixed number of frames with Run.
func Frames(n int, start time.Time, step time.Duration) <-chan time.Time {
	ch := make(chan time.Time, n)
	for i := 0; i < n; i++ {
		ch <- start.Add(time.Duration(i) * step)
	}
	close(ch)
	return ch
}
