// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer serializes requests to one external source. Each adapter owns its
// own Pacer, so a delay on one source never blocks calls to another.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer that allows one request per minInterval. A zero
// or negative interval disables pacing.
func NewPacer(minInterval time.Duration) *Pacer {
	if minInterval <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until the next request may be sent or the context is
// cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
