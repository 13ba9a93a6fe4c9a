package bayesavg

import (
	"context"

	healthuc "github.com/kailas-cloud/bayesavg/internal/usecase/health"
)

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Health probes the database and the simulation engine concurrently.
// It never fails; problems are reported per component.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	out := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]ComponentHealth, len(report.Checks)),
	}
	for name, chk := range report.Checks {
		out.Checks[name] = ComponentHealth{
			Status:  string(chk.Result),
			Latency: chk.Latency,
			Error:   chk.Error,
		}
	}
	return out
}
