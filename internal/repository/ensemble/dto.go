package ensemble

import (
	"encoding/json"
	"fmt"
	"strconv"

	domens "github.com/kailas-cloud/bayesavg/internal/domain/ensemble"
)

// ensembleToHash converts a domain Ensemble to a map for HSET.
func ensembleToHash(e domens.Ensemble) (map[string]string, error) {
	modelsJSON, err := json.Marshal(e.Models())
	if err != nil {
		return nil, fmt.Errorf("marshal models: %w", err)
	}
	bfJSON, err := json.Marshal(e.BayesFactors())
	if err != nil {
		return nil, fmt.Errorf("marshal bayes factors: %w", err)
	}
	m := map[string]string{
		"name":               e.Name(),
		"models_json":        string(modelsJSON),
		"bayes_factors_json": string(bfJSON),
		"created_at":         strconv.FormatInt(e.CreatedAt(), 10),
	}
	if e.PriorOdds() != nil {
		oddsJSON, err := json.Marshal(e.PriorOdds())
		if err != nil {
			return nil, fmt.Errorf("marshal prior odds: %w", err)
		}
		m["prior_odds_json"] = string(oddsJSON)
	}
	return m, nil
}

// ensembleFromHash hydrates a domain Ensemble from an HGETALL result map.
func ensembleFromHash(m map[string]string) (domens.Ensemble, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domens.Ensemble{}, fmt.Errorf("invalid created_at: %w", err)
	}

	var models []string
	if err := json.Unmarshal([]byte(m["models_json"]), &models); err != nil {
		return domens.Ensemble{}, fmt.Errorf("unmarshal models: %w", err)
	}
	var bf []float64
	if err := json.Unmarshal([]byte(m["bayes_factors_json"]), &bf); err != nil {
		return domens.Ensemble{}, fmt.Errorf("unmarshal bayes factors: %w", err)
	}
	var odds []float64
	if s := m["prior_odds_json"]; s != "" {
		if err := json.Unmarshal([]byte(s), &odds); err != nil {
			return domens.Ensemble{}, fmt.Errorf("unmarshal prior odds: %w", err)
		}
	}
	return domens.Reconstruct(m["name"], models, bf, odds, createdAt), nil
}
