package health

import (
	"context"
	"sync"
)

// Registry runs a fixed set of checkers.
type Registry struct {
	checkers []Checker
}

func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

// Register adds a checker. It must be called before the registry is served.
func (r *Registry) Register(c Checker) {
	r.checkers = append(r.checkers, c)
}

// CheckResult is the result of a single named check.
type CheckResult struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// ReadinessResponse is the aggregated readiness result.
type ReadinessResponse struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// CheckAll runs every checker concurrently. The overall status is down when
// any check is down.
func (r *Registry) CheckAll(ctx context.Context) ReadinessResponse {
	if len(r.checkers) == 0 {
		return ReadinessResponse{Status: StatusUp}
	}

	results := make([]CheckResult, len(r.checkers))
	var wg sync.WaitGroup
	for i, checker := range r.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := checker.Check(ctx)
			results[i] = CheckResult{Name: checker.Name(), Status: res.Status, Message: res.Message}
		}()
	}
	wg.Wait()

	overall := StatusUp
	for _, res := range results {
		if res.Status == StatusDown {
			overall = StatusDown
			break
		}
	}
	return ReadinessResponse{Status: overall, Checks: results}
}
