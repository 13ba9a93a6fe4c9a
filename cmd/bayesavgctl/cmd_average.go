package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	bayesavg "github.com/kailas-cloud/bayesavg/pkg/sdk"
)

// averageDocument is the on-disk input of the average command.
type averageDocument struct {
	Fits         []modelDocument `yaml:"fits"`
	BayesFactors []float64       `yaml:"bayes_factors"`
	PriorOdds    []float64       `yaml:"prior_odds"`
}

type modelDocument struct {
	ID         string              `yaml:"id"`
	Kind       string              `yaml:"kind"`
	Parameters []parameterDocument `yaml:"parameters"`
	Draws      [][]float64         `yaml:"draws"`
	Algorithm  algorithmDocument   `yaml:"algorithm"`
	Estimates  []float64           `yaml:"estimates"`
	Covariance [][]float64         `yaml:"covariance"`
}

type parameterDocument struct {
	Name      string `yaml:"name"`
	Role      string `yaml:"role"`
	Component string `yaml:"component"`
}

type algorithmDocument struct {
	Chains     int `yaml:"chains"`
	Iterations int `yaml:"iterations"`
	Warmup     int `yaml:"warmup"`
}

type averageFlags struct {
	format     string
	seed       uint64
	missing    float64
	priorOdds  []float64
	effects    string
	component  string
	parameters []string
	draws      int
}

// averageOutput is the JSON rendering of a run.
type averageOutput struct {
	Columns  []string       `json:"columns"`
	Rows     [][]float64    `json:"rows"`
	Weights  []weightOutput `json:"weights"`
	Warnings []string       `json:"warnings,omitempty"`
	Budget   int            `json:"budget"`
}

type weightOutput struct {
	Model                string  `json:"model"`
	PriorProbability     float64 `json:"prior_probability"`
	PosteriorProbability float64 `json:"posterior_probability"`
	Draws                int     `json:"draws"`
	Dropped              bool    `json:"dropped,omitempty"`
}

func newAverageCommand() *cobra.Command {
	f := &averageFlags{}
	cmd := &cobra.Command{
		Use:   "average <models.yaml>",
		Short: "Pool the posteriors of the models in a file",
		Long: `Reads fitted models and their Bayes factors from a YAML or JSON document
and writes the model-averaged posterior sample.

The first model is the denominator of every Bayes factor, so the first
entry of bayes_factors must be 1. Models missing a parameter contribute
the --missing value for it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAverage(cmd, f, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.format, "format", "f", "csv", "Output format: csv or json")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Random seed (0 picks a random one)")
	cmd.Flags().Float64Var(&f.missing, "missing", 0, "Value for parameters a model does not have")
	cmd.Flags().Float64SliceVar(&f.priorOdds, "prior-odds", nil,
		"Prior odds of each non-denominator model (overrides the document)")
	cmd.Flags().StringVar(&f.effects, "effects", "", "Parameter roles: fixed or all")
	cmd.Flags().StringVar(&f.component, "component", "", "Model component: conditional, zero_inflated or all")
	cmd.Flags().StringSliceVar(&f.parameters, "parameters", nil, "Keep only parameters matching these regular expressions")
	cmd.Flags().IntVar(&f.draws, "draws", 0, "Draws simulated per simulated model (default 4000)")

	return cmd
}

func runAverage(cmd *cobra.Command, f *averageFlags, path string) error {
	if f.format != "csv" && f.format != "json" {
		return fmt.Errorf("%w: unsupported format %q: must be csv or json", bayesavg.ErrInvalidInput, f.format)
	}

	doc, err := loadAverageDocument(path)
	if err != nil {
		return err
	}

	opts := []bayesavg.AverageOption{
		bayesavg.WithMissing(f.missing),
		bayesavg.WithEffects(bayesavg.Effects(f.effects)),
		bayesavg.WithComponent(bayesavg.Component(f.component)),
		bayesavg.WithParameters(f.parameters...),
		bayesavg.WithDraws(f.draws),
	}
	if f.seed != 0 {
		opts = append(opts, bayesavg.WithSeed(f.seed))
	}
	switch {
	case cmd.Flags().Changed("prior-odds"):
		opts = append(opts, bayesavg.WithPriorOdds(f.priorOdds...))
	case doc.PriorOdds != nil:
		opts = append(opts, bayesavg.WithPriorOdds(doc.PriorOdds...))
	}

	slog.Debug("averaging models", "file", path, "models", len(doc.Fits))

	res, err := bayesavg.WeightedPosteriors(cmd.Context(), toModels(doc.Fits), doc.BayesFactors, opts...)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}

	if f.format == "json" {
		return writeAverageJSON(cmd.OutOrStdout(), res)
	}
	return writeAverageCSV(cmd.OutOrStdout(), res.Posterior)
}

func loadAverageDocument(path string) (averageDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return averageDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	var doc averageDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return averageDocument{}, fmt.Errorf("%w: parse %s: %w", bayesavg.ErrInvalidInput, path, err)
	}
	return doc, nil
}

func toModels(in []modelDocument) []bayesavg.Model {
	out := make([]bayesavg.Model, len(in))
	for i, m := range in {
		params := make([]bayesavg.Parameter, len(m.Parameters))
		for j, p := range m.Parameters {
			params[j] = bayesavg.Parameter{
				Name:      p.Name,
				Role:      bayesavg.Role(p.Role),
				Component: bayesavg.Component(p.Component),
			}
		}
		id := m.ID
		if id == "" {
			id = "model_" + strconv.Itoa(i)
		}
		out[i] = bayesavg.Model{
			ID:         id,
			Kind:       bayesavg.Kind(m.Kind),
			Parameters: params,
			Draws:      m.Draws,
			Algorithm: bayesavg.Algorithm{
				Chains:     m.Algorithm.Chains,
				Iterations: m.Algorithm.Iterations,
				Warmup:     m.Algorithm.Warmup,
			},
			Estimates:  m.Estimates,
			Covariance: m.Covariance,
		}
	}
	return out
}

func writeAverageCSV(w io.Writer, p bayesavg.Posterior) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(p.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(p.Columns))
	for _, row := range p.Rows {
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeAverageJSON(w io.Writer, res bayesavg.Result) error {
	out := averageOutput{
		Columns:  res.Posterior.Columns,
		Rows:     res.Posterior.Rows,
		Weights:  make([]weightOutput, len(res.Weights)),
		Warnings: res.Warnings,
		Budget:   res.Budget,
	}
	for i, wt := range res.Weights {
		out.Weights[i] = weightOutput{
			Model:                wt.Model,
			PriorProbability:     wt.PriorProbability,
			PosteriorProbability: wt.PosteriorProbability,
			Draws:                wt.Draws,
			Dropped:              wt.Dropped,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
