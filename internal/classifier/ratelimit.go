package classifier

import (
	"context"
	"time"
)

// pacer enforces a fixed minimum delay after each completed remote call.
// The free-tier quota is one request per second, so the delay is part of
// the client's contract: batch callers must not parallelize around it.
type pacer struct {
	interval time.Duration
}

// pause blocks for the configured interval or until the context is done.
func (p *pacer) pause(ctx context.Context) {
	if p.interval <= 0 {
		return
	}

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
