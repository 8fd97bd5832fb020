package tier

import (
	"fmt"

	"github.com/cliniview/triage/internal/domain"
)

// Slot is one configured tier position: either a loaded tier or the load
// failure recorded at startup. Availability is fixed for the process
// lifetime; recovery requires a restart.
type Slot struct {
	ID   string
	Tier Tier // nil when the tier failed to load
	Err  error
}

// Available reports whether the slot holds a usable tier.
func (s Slot) Available() bool { return s.Tier != nil }

// Status is the externally visible state of one configured tier.
type Status struct {
	ID        string
	Available bool
	Detail    string
}

// Selector routes requests to the first available tier in configured order.
// Built once at startup from the recorded load outcomes; immutable and safe
// for concurrent use afterwards.
type Selector struct {
	slots []Slot
}

// NewSelector creates a selector over ordered tier slots. It fails with
// ErrNoBackendAvailable when every slot recorded a load failure — the
// service cannot serve any request and must not start.
func NewSelector(slots []Slot) (*Selector, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: no tiers configured", domain.ErrNoBackendAvailable)
	}

	owned := make([]Slot, len(slots))
	copy(owned, slots)

	for _, s := range owned {
		if s.Available() {
			return &Selector{slots: owned}, nil
		}
	}
	return nil, fmt.Errorf("%w: all %d configured tiers failed to load",
		domain.ErrNoBackendAvailable, len(slots))
}

// Pick returns the first available tier.
func (s *Selector) Pick() (Tier, bool) {
	for _, slot := range s.slots {
		if slot.Available() {
			return slot.Tier, true
		}
	}
	return nil, false
}

// After returns the first available tier configured after the given one,
// used when falling back from a failed prediction.
func (s *Selector) After(id string) (Tier, bool) {
	seen := false
	for _, slot := range s.slots {
		if seen && slot.Available() {
			return slot.Tier, true
		}
		if slot.ID == id {
			seen = true
		}
	}
	return nil, false
}

// Statuses reports every configured tier's availability for health and
// model-info endpoints.
func (s *Selector) Statuses() []Status {
	out := make([]Status, len(s.slots))
	for i, slot := range s.slots {
		st := Status{ID: slot.ID, Available: slot.Available()}
		if slot.Err != nil {
			st.Detail = slot.Err.Error()
		}
		out[i] = st
	}
	return out
}
