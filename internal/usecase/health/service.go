// Package health aggregates component availability for the health endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure: some tiers or the cache are down
	// but requests can still be served.
	Degraded Status = "degraded"
	// Unhealthy indicates no inference tier can serve requests.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	tiers TierReporter
	cache CachePinger
}

// New creates a Service. cache can be nil when caching is disabled.
func New(tiers TierReporter, cache CachePinger) *Service {
	return &Service{tiers: tiers, cache: cache}
}

// Check reports per-tier and cache availability. Tier availability is fixed
// at startup; the cache is probed live.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	anyTier := false
	for _, st := range s.tiers.Statuses() {
		if st.Available {
			checks["tier:"+st.ID] = CheckOK
			anyTier = true
		} else {
			checks["tier:"+st.ID] = CheckError
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	if !anyTier {
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}
