package assess

import (
	"context"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/tier"
)

// TierSelector provides configured inference tiers in fallback order.
type TierSelector interface {
	Pick() (tier.Tier, bool)
	After(id string) (tier.Tier, bool)
}

// ResultCache caches assessments. Inference is deterministic for a given
// tier and request, so cached responses never go stale before the TTL.
// Implementations must degrade silently: a miss or a cache fault only means
// the answer gets computed.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.Assessment, bool)
	Set(ctx context.Context, key string, a *domain.Assessment)
}
