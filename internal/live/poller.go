package live

import (
	"context"
	"time"
)

// Poll is the passive fallback for deployments without push support: run
// refresh immediately, then on every tick until the context ends. It pays
// no attention to any socket state.
func Poll(ctx context.Context, interval time.Duration, refresh func(context.Context)) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				refresh(ctx)
			}
		}
	}()
}
