package health

import "context"

// Pinger answers when the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober exercises a component end to end, e.g. drawing a few simulated samples.
type Prober interface {
	HealthCheck(ctx context.Context) error
}
