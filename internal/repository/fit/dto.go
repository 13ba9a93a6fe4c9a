package fit

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/bayesavg/internal/domain/budget"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
	domfit "github.com/kailas-cloud/bayesavg/internal/domain/fit"
)

// paramRow is the JSON-serializable representation of a parameter for HSET.
type paramRow struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Component string `json:"component"`
}

type algorithmRow struct {
	Chains     int `json:"chains"`
	Iterations int `json:"iterations"`
	Warmup     int `json:"warmup"`
}

// drawsBlob is the stored draw table of a sampled fit.
type drawsBlob struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// fitToHash converts a domain Fit to a map for HSET. Draws are stored separately.
func fitToHash(f domfit.Fit) (map[string]string, error) {
	rows := make([]paramRow, len(f.Parameters()))
	for i, p := range f.Parameters() {
		rows[i] = paramRow{Name: p.Name, Role: string(p.Role), Component: string(p.Component)}
	}
	paramsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters: %w", err)
	}

	m := map[string]string{
		"id":          f.ID(),
		"kind":        string(f.Kind()),
		"params_json": string(paramsJSON),
		"created_at":  strconv.FormatInt(f.CreatedAt(), 10),
	}

	switch f.Kind() {
	case domfit.KindSampled:
		a := f.Algorithm()
		algoJSON, err := json.Marshal(algorithmRow{Chains: a.Chains, Iterations: a.Iterations, Warmup: a.Warmup})
		if err != nil {
			return nil, fmt.Errorf("marshal algorithm: %w", err)
		}
		m["algorithm_json"] = string(algoJSON)
		m["draw_rows"] = strconv.Itoa(f.Draws().NumRows())
	case domfit.KindSimulated:
		estJSON, err := json.Marshal(f.Estimates())
		if err != nil {
			return nil, fmt.Errorf("marshal estimates: %w", err)
		}
		covJSON, err := json.Marshal(f.Covariance())
		if err != nil {
			return nil, fmt.Errorf("marshal covariance: %w", err)
		}
		m["estimates_json"] = string(estJSON)
		m["covariance_json"] = string(covJSON)
	}
	return m, nil
}

// fitFromHash hydrates a domain Fit from an HGETALL result map. tbl is attached as-is.
func fitFromHash(m map[string]string, tbl draws.Table) (domfit.Fit, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domfit.Fit{}, fmt.Errorf("invalid created_at: %w", err)
	}

	var rows []paramRow
	if err := json.Unmarshal([]byte(m["params_json"]), &rows); err != nil {
		return domfit.Fit{}, fmt.Errorf("unmarshal parameters: %w", err)
	}
	params := make([]domfit.Parameter, len(rows))
	for i, r := range rows {
		params[i] = domfit.Parameter{
			Name:      r.Name,
			Role:      domfit.Role(r.Role),
			Component: domfit.Component(r.Component),
		}
	}

	kind := domfit.Kind(m["kind"])
	var algo budget.Algorithm
	var estimates []float64
	var covariance [][]float64

	switch kind {
	case domfit.KindSampled:
		var a algorithmRow
		if err := json.Unmarshal([]byte(m["algorithm_json"]), &a); err != nil {
			return domfit.Fit{}, fmt.Errorf("unmarshal algorithm: %w", err)
		}
		algo = budget.Algorithm{Chains: a.Chains, Iterations: a.Iterations, Warmup: a.Warmup}
	case domfit.KindSimulated:
		if err := json.Unmarshal([]byte(m["estimates_json"]), &estimates); err != nil {
			return domfit.Fit{}, fmt.Errorf("unmarshal estimates: %w", err)
		}
		if err := json.Unmarshal([]byte(m["covariance_json"]), &covariance); err != nil {
			return domfit.Fit{}, fmt.Errorf("unmarshal covariance: %w", err)
		}
	default:
		return domfit.Fit{}, fmt.Errorf("unknown fit kind %q", kind)
	}

	return domfit.Reconstruct(m["id"], kind, params, tbl, algo, estimates, covariance, createdAt), nil
}

func encodeDraws(tbl draws.Table) ([]byte, error) {
	rows := make([][]float64, tbl.NumRows())
	for i := range rows {
		rows[i] = tbl.Row(i)
	}
	data, err := json.Marshal(drawsBlob{Columns: tbl.Columns(), Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("marshal draws: %w", err)
	}
	return data, nil
}

func decodeDraws(data []byte) (draws.Table, error) {
	var blob drawsBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return draws.Table{}, fmt.Errorf("unmarshal draws: %w", err)
	}
	return draws.Reconstruct(blob.Columns, blob.Rows), nil
}
