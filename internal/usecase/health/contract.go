package health

import (
	"context"

	"github.com/cliniview/triage/internal/tier"
)

// TierReporter reports the availability of every configured inference tier.
type TierReporter interface {
	Statuses() []tier.Status
}

// CachePinger checks result cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
