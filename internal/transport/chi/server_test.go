package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
	"github.com/kailas-cloud/bayesavg/internal/metrics"
	"github.com/kailas-cloud/bayesavg/internal/simulation"
	averaginguc "github.com/kailas-cloud/bayesavg/internal/usecase/averaging"
	ensembleuc "github.com/kailas-cloud/bayesavg/internal/usecase/ensemble"
	fituc "github.com/kailas-cloud/bayesavg/internal/usecase/fit"
	healthuc "github.com/kailas-cloud/bayesavg/internal/usecase/health"
)

func TestMain(m *testing.M) {
	metrics.RegisterAveragingMetrics()
	os.Exit(m.Run())
}

// --- In-memory repositories ---

type memFits struct {
	mu   sync.Mutex
	fits map[string]domfit.Fit
	ids  []string
}

func (m *memFits) Create(_ context.Context, f domfit.Fit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fits[f.ID()]; ok {
		return domain.ErrAlreadyExists
	}
	m.fits[f.ID()] = f
	m.ids = append(m.ids, f.ID())
	return nil
}

func (m *memFits) Get(_ context.Context, id string) (domfit.Fit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fits[id]
	if !ok {
		return domfit.Fit{}, domain.ErrNotFound
	}
	return f, nil
}

func (m *memFits) List(_ context.Context) ([]domfit.Fit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domfit.Fit, 0, len(m.ids))
	for _, id := range m.ids {
		if f, ok := m.fits[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFits) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fits[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.fits, id)
	return nil
}

type memEnsembles struct {
	mu  sync.Mutex
	ens map[string]domens.Ensemble
}

func (m *memEnsembles) Create(_ context.Context, e domens.Ensemble) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ens[e.Name()]; ok {
		return domain.ErrAlreadyExists
	}
	m.ens[e.Name()] = e
	return nil
}

func (m *memEnsembles) Get(_ context.Context, name string) (domens.Ensemble, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.ens[name]
	if !ok {
		return domens.Ensemble{}, domain.ErrNotFound
	}
	return e, nil
}

func (m *memEnsembles) List(_ context.Context) ([]domens.Ensemble, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domens.Ensemble, 0, len(m.ens))
	for _, e := range m.ens {
		out = append(out, e)
	}
	return out, nil
}

func (m *memEnsembles) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ens[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.ens, name)
	return nil
}

// --- Helpers ---

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithFits(t, &memFits{fits: map[string]domfit.Fit{}})
}

// newTestRouterWithFits serves from a pre-seeded fit store.
func newTestRouterWithFits(t *testing.T, fits *memFits) http.Handler {
	t.Helper()
	ens := &memEnsembles{ens: map[string]domens.Ensemble{}}
	sim := simulation.NewGaussian()
	cfg := domain.AveragingConfig{SimulationDraws: 100, MaxModels: 8}

	srv := NewServer(
		fituc.New(fits),
		ensembleuc.New(ens, fits, cfg.MaxModels),
		averaginguc.New(fits, ens, sim, cfg),
		healthuc.New(nil, sim),
		zap.NewNop(),
		1<<20,
	)
	r := chi.NewRouter()
	srv.Mount(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

const nullFit = `{
	"id": "null", "kind": "sampled",
	"parameters": [{"name": "b_Intercept"}],
	"algorithm": {"chains": 1, "iterations": 4, "warmup": 0},
	"draws": [[1], [2], [3], [4]]
}`

const fullFit = `{
	"id": "full", "kind": "sampled",
	"parameters": [{"name": "b_Intercept"}, {"name": "b_x"}],
	"algorithm": {"chains": 1, "iterations": 4, "warmup": 0},
	"draws": [[10, 0.1], [20, 0.2], [30, 0.3], [40, 0.4]]
}`

// --- Tests ---

func TestFits_CRUD(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/fits", nullFit)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/fits/null" {
		t.Errorf("Location = %q", loc)
	}

	rr = do(t, h, http.MethodPost, "/fits", nullFit)
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want 409", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/fits/null", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: got %d", rr.Code)
	}
	got := decodeBody[fitResponse](t, rr)
	if got.DrawRows != 4 || got.Kind != "sampled" || got.Parameters[0].Role != "fixed" {
		t.Errorf("get: %+v", got)
	}

	rr = do(t, h, http.MethodGet, "/fits", "")
	list := decodeBody[cursorList[fitResponse]](t, rr)
	if len(list.Items) != 1 || list.HasMore {
		t.Errorf("list: %+v", list)
	}

	if rr = do(t, h, http.MethodDelete, "/fits/null", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete: got %d", rr.Code)
	}
	if rr = do(t, h, http.MethodGet, "/fits/null", ""); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", rr.Code)
	}
}

func TestFits_Validation(t *testing.T) {
	h := newTestRouter(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"kind":`, http.StatusBadRequest},
		{"unknown kind", `{"kind":"bootstrap","parameters":[{"name":"a"}]}`, http.StatusBadRequest},
		{"sampled without algorithm", `{"kind":"sampled","parameters":[{"name":"a"}],"draws":[[1]]}`, http.StatusBadRequest},
		{"simulated without covariance", `{"kind":"simulated","parameters":[{"name":"a"}],"estimates":[1]}`, http.StatusBadRequest},
		{"ragged draws", `{"kind":"sampled","parameters":[{"name":"a"}],
			"algorithm":{"chains":1,"iterations":2},"draws":[[1,2]]}`, http.StatusBadRequest},
		{"bad role", `{"kind":"simulated","parameters":[{"name":"a","role":"mixed"}],
			"estimates":[1],"covariance":[[1]]}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/fits", tc.body)
			if rr.Code != tc.want {
				t.Fatalf("got %d, want %d: %s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestFits_Pagination(t *testing.T) {
	h := newTestRouter(t)
	for _, id := range []string{"a", "b", "c"} {
		body := `{"id":"` + id + `","kind":"simulated","parameters":[{"name":"x"}],"estimates":[0],"covariance":[[1]]}`
		if rr := do(t, h, http.MethodPost, "/fits", body); rr.Code != http.StatusCreated {
			t.Fatalf("create %s: %d %s", id, rr.Code, rr.Body.String())
		}
	}

	page := decodeBody[cursorList[fitResponse]](t, do(t, h, http.MethodGet, "/fits?limit=2", ""))
	if len(page.Items) != 2 || !page.HasMore || page.NextCursor == nil || *page.NextCursor != "b" {
		t.Fatalf("first page: %+v", page)
	}
	page = decodeBody[cursorList[fitResponse]](t, do(t, h, http.MethodGet, "/fits?limit=2&cursor=b", ""))
	if len(page.Items) != 1 || page.Items[0].ID != "c" || page.HasMore {
		t.Fatalf("second page: %+v", page)
	}
	if rr := do(t, h, http.MethodGet, "/fits?limit=0", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("limit=0: got %d", rr.Code)
	}
}

func TestEnsembles_Average(t *testing.T) {
	h := newTestRouter(t)
	for _, body := range []string{nullFit, fullFit} {
		if rr := do(t, h, http.MethodPost, "/fits", body); rr.Code != http.StatusCreated {
			t.Fatalf("create fit: %d %s", rr.Code, rr.Body.String())
		}
	}

	rr := do(t, h, http.MethodPost, "/ensembles",
		`{"name":"cmp","models":["null","full"],"bayes_factors":[1,3]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create ensemble: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/ensembles/cmp/average", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("average: %d %s", rr.Code, rr.Body.String())
	}
	res := decodeBody[averageResponse](t, rr)
	if res.Budget != 4 || len(res.Rows) != 4 || len(res.Columns) != 2 {
		t.Fatalf("average: budget=%d rows=%d columns=%v", res.Budget, len(res.Rows), res.Columns)
	}
	if res.Weights[0].Draws != 1 || res.Weights[1].Draws != 3 {
		t.Errorf("draws = %d/%d, want 1/3", res.Weights[0].Draws, res.Weights[1].Draws)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	rr = do(t, h, http.MethodPost, "/ensembles/cmp/average", `{"prior_odds":[3]}`)
	res = decodeBody[averageResponse](t, rr)
	if res.Weights[1].Draws != 4 {
		t.Errorf("prior odds 3 with BF 3: full draws = %d, want 4", res.Weights[1].Draws)
	}

	if rr = do(t, h, http.MethodPost, "/ensembles/missing/average", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown ensemble: got %d", rr.Code)
	}
}

func TestEnsembles_UnknownFit(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodPost, "/ensembles", `{"name":"cmp","models":["ghost"],"bayes_factors":[1]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if e := decodeBody[errorResponse](t, rr); e.Code != codeValidationFailed || !strings.Contains(e.Message, "ghost") {
		t.Errorf("error = %+v", e)
	}
}

func TestAverage_DropsInterceptOnlyDenominator(t *testing.T) {
	h := newTestRouter(t)
	body := `{
		"fits": [
			{"id":"null","kind":"simulated","parameters":[{"name":"(Intercept)"}],
			 "estimates":[0],"covariance":[[1]]},
			{"id":"full","kind":"simulated","parameters":[{"name":"(Intercept)"},{"name":"x"}],
			 "estimates":[0,1],"covariance":[[1,0],[0,1]]}
		],
		"bayes_factors": [1, 1],
		"options": {"seed": 7}
	}`
	rr := do(t, h, http.MethodPost, "/average", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	res := decodeBody[averageResponse](t, rr)
	if len(res.Rows) != 100 {
		t.Errorf("rows = %d, want 100", len(res.Rows))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], `"null"`) {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if !res.Weights[0].Dropped || res.Weights[0].Draws != 0 || res.Weights[1].Draws != 100 {
		t.Errorf("weights = %+v", res.Weights)
	}
}

func TestAverage_InlineDrawsShortOfAlgorithm(t *testing.T) {
	h := newTestRouter(t)
	body := `{
		"fits": [
			{"id":"a","kind":"sampled","parameters":[{"name":"b_x"}],
			 "algorithm":{"chains":1,"iterations":10},"draws":[[1],[2]]}
		],
		"bayes_factors": [1]
	}`
	rr := do(t, h, http.MethodPost, "/average", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	got := decodeBody[map[string]any](t, rr)
	if got["code"] != string(codeValidationFailed) {
		t.Errorf("body = %v", got)
	}
}

func TestAverageEnsemble_InsufficientDraws(t *testing.T) {
	// stored metadata promises 10 draws per model but only 2 survived
	short := func(id string) domfit.Fit {
		return domfit.Reconstruct(id, domfit.KindSampled,
			[]domfit.Parameter{{Name: "b_x", Role: domfit.RoleFixed, Component: domfit.ComponentConditional}},
			draws.Reconstruct([]string{"b_x"}, [][]float64{{1}, {2}}),
			budget.Algorithm{Chains: 1, Iterations: 10}, nil, nil, 1)
	}
	fits := &memFits{fits: map[string]domfit.Fit{"a": short("a"), "b": short("b")}, ids: []string{"a", "b"}}
	h := newTestRouterWithFits(t, fits)

	rr := do(t, h, http.MethodPost, "/ensembles", `{"name":"cmp","models":["a","b"],"bayes_factors":[1,1]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create ensemble: got %d: %s", rr.Code, rr.Body.String())
	}
	rr = do(t, h, http.MethodPost, "/ensembles/cmp/average", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	got := decodeBody[map[string]any](t, rr)
	if got["code"] != string(codeInsufficientDraws) || got["model"] != "a" {
		t.Errorf("body = %v", got)
	}
	if got["requested"] != float64(5) || got["available"] != float64(2) {
		t.Errorf("counts = %v/%v", got["requested"], got["available"])
	}
}

func TestAverage_InvalidOptions(t *testing.T) {
	h := newTestRouter(t)
	tests := []struct {
		name string
		body string
	}{
		{"no fits", `{"fits":[],"bayes_factors":[1]}`},
		{"bad effects", `{"fits":[` + nullFit + `],"bayes_factors":[1],"options":{"effects":"random"}}`},
		{"bad pattern", `{"fits":[` + nullFit + `],"bayes_factors":[1],"options":{"parameters":["("]}}`},
		{"factor count", `{"fits":[` + nullFit + `],"bayes_factors":[1,2]}`},
		{"negative factor", `{"fits":[` + nullFit + `],"bayes_factors":[-1]}`},
		{"denominator factor", `{"fits":[` + nullFit + `,` + fullFit + `],"bayes_factors":[5,5]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rr := do(t, h, http.MethodPost, "/average", tc.body); rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	got := decodeBody[healthResponse](t, rr)
	if got.Status != "ok" || got.Checks["simulation"].Status != "ok" {
		t.Errorf("body = %+v", got)
	}
}

func TestBodyLimit(t *testing.T) {
	h := newTestRouter(t)
	huge := `{"kind":"simulated","parameters":[{"name":"` + strings.Repeat("x", 2<<20) + `"}]}`
	if rr := do(t, h, http.MethodPost, "/fits", huge); rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d, want 413", rr.Code)
	}
}
