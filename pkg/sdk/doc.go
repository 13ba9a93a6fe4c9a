// Package bayesavg pools posterior draws from competing Bayesian models in
// proportion to their posterior model probabilities.
//
// # In-process averaging
//
// No database is needed to average models held in memory. The first model is
// the denominator the Bayes factors are relative to:
//
//	res, err := bayesavg.WeightedPosteriors(ctx,
//	    []bayesavg.Model{null, full},
//	    []float64{1, 3.2},
//	    bayesavg.WithSeed(42),
//	)
//	// res.Posterior holds res.Budget rows; res.Weights reports each model's share.
//
// # Stored fits and ensembles
//
//	client, _ := bayesavg.New(ctx, bayesavg.WithValkey("localhost:6379", ""))
//	_, _ = client.Fits().Create(ctx, full)
//	_, _ = client.Ensembles().Create(ctx, "cmp", []string{"null", "full"}, []float64{1, 3.2}, nil)
//	res, _ := client.Average(ctx, "cmp", bayesavg.WithMissing(0))
//
// An intercept-only simulated denominator cannot be simulated. It is dropped,
// the remaining models are renormalized, and Result.Warnings says so.
package bayesavg
