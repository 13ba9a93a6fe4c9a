package bayesavg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/bayesavg/internal/db"
	dbRedis "github.com/kailas-cloud/bayesavg/internal/db/redis"
	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
	"github.com/kailas-cloud/bayesavg/internal/domain/fit"
	ensemblerepo "github.com/kailas-cloud/bayesavg/internal/repository/ensemble"
	fitrepo "github.com/kailas-cloud/bayesavg/internal/repository/fit"
	"github.com/kailas-cloud/bayesavg/internal/repository/fitcache"
	"github.com/kailas-cloud/bayesavg/internal/simulation"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
	ensembleuc "github.com/kailas-cloud/bayesavg/internal/usecase/ensemble"
	fituc "github.com/kailas-cloud/bayesavg/internal/usecase/fit"
	healthuc "github.com/kailas-cloud/bayesavg/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type fitUseCase interface {
	CreateSampled(
		ctx context.Context, id string, params []fit.Parameter, tbl draws.Table, algo budget.Algorithm,
	) (fit.Fit, error)
	CreateSimulated(
		ctx context.Context, id string, params []fit.Parameter, estimates []float64, covariance [][]float64,
	) (fit.Fit, error)
	Get(ctx context.Context, id string) (fit.Fit, error)
	List(ctx context.Context) ([]fit.Fit, error)
	Delete(ctx context.Context, id string) error
}

type ensembleUseCase interface {
	Create(ctx context.Context, name string, models []string, bayesFactors, priorOdds []float64) (domens.Ensemble, error)
	Get(ctx context.Context, name string) (domens.Ensemble, error)
	List(ctx context.Context) ([]domens.Ensemble, error)
	Delete(ctx context.Context, name string) error
}

// Client is the bayesavg SDK entry point for stored fits and ensembles.
type Client struct {
	store     db.Store
	fitSvc    fitUseCase
	ensSvc    ensembleUseCase
	avgSvc    averagingUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("bayesavg: database address required (use WithValkey or WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("bayesavg: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("bayesavg: database not ready: %w", err)
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	avgCfg := domain.DefaultAveragingConfig()
	avgCfg.Verbose = false
	if cfg.simulationDraws > 0 {
		avgCfg.SimulationDraws = cfg.simulationDraws
	}
	if cfg.maxModels > 0 {
		avgCfg.MaxModels = cfg.maxModels
	}

	fits, err := fitcache.New(fitrepo.New(store, cfg.keyPrefix), cfg.fitCacheSize, nil)
	if err != nil {
		return nil, fmt.Errorf("bayesavg: %w", err)
	}
	ensembles := ensemblerepo.New(store, cfg.keyPrefix)
	gaussian := simulation.NewGaussian()

	return &Client{
		store:     store,
		fitSvc:    fituc.New(fits),
		ensSvc:    ensembleuc.New(ensembles, fits, avgCfg.MaxModels),
		avgSvc:    averaginguc.New(fits, ensembles, gaussian, avgCfg),
		healthSvc: healthuc.New(store, gaussian),
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Fits returns the fit management service.
func (c *Client) Fits() *FitService {
	return &FitService{svc: c.fitSvc, obs: c.obs}
}

// Ensembles returns the ensemble management service.
func (c *Client) Ensembles() *EnsembleService {
	return &EnsembleService{svc: c.ensSvc, obs: c.obs}
}
