package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 2 * time.Second

// Status is the overall verdict.
type Status string

const (
	// Healthy means every check passed.
	Healthy Status = "ok"
	// Degraded means some checks failed.
	Degraded Status = "degraded"
	// Unhealthy means every check failed.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one component check.
type CheckResult string

const (
	// CheckOK marks a passing check.
	CheckOK CheckResult = "ok"
	// CheckError marks a failing or timed-out check.
	CheckError CheckResult = "error"
)

// Check is one component's result.
type Check struct {
	Result  CheckResult
	Latency time.Duration
	Error   string
}

// Report is the aggregated result. Components that were not configured are absent from Checks.
type Report struct {
	Status Status
	Checks map[string]Check
}

type probe struct {
	name string
	run  func(ctx context.Context) error
}

// Service runs the configured checks concurrently.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. Either argument may be nil: the in-process SDK has no database.
func New(db Pinger, simulation Prober) *Service {
	s := &Service{timeout: DefaultCheckTimeout}
	if db != nil {
		s.probes = append(s.probes, probe{name: "database", run: db.Ping})
	}
	if simulation != nil {
		s.probes = append(s.probes, probe{name: "simulation", run: simulation.HealthCheck})
	}
	return s
}

// WithTimeout returns a copy of s whose checks are bounded by d.
func (s *Service) WithTimeout(d time.Duration) *Service {
	c := *s
	if d > 0 {
		c.timeout = d
	}
	return &c
}

// Check runs every probe and aggregates the results.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]Check, len(s.probes))
		g      errgroup.Group
	)
	for _, p := range s.probes {
		g.Go(func() error {
			c := s.run(ctx, p)
			mu.Lock()
			checks[p.name] = c
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: aggregate(checks), Checks: checks}
}

func (s *Service) run(ctx context.Context, p probe) Check {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := p.run(ctx)
	c := Check{Result: CheckOK, Latency: time.Since(start)}
	if err != nil {
		c.Result = CheckError
		c.Error = err.Error()
	}
	return c
}

func aggregate(checks map[string]Check) Status {
	failed := 0
	for _, c := range checks {
		if c.Result == CheckError {
			failed++
		}
	}
	switch {
	case failed == 0:
		return Healthy
	case failed == len(checks):
		return Unhealthy
	default:
		return Degraded
	}
}
