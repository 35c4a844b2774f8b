package infra

import (
	"context"
	"time"
)

// Wait sleeps for d unless ctx fires first. Returns false when the context
// was cancelled, so loops can use it as their single exit check:
//
//	for infra.Wait(ctx, interval) { ... }
func Wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
