package params

import "github.com/kailas-cloud/bayesavg/internal/domain/draws"

// Reconciliation aligns parameter sets across models.
type Reconciliation struct {
	// Union holds every distinct column name, first-seen order across tables in model order.
	Union []string
	// Missing holds, per table, the union names the table lacks (in union order).
	Missing [][]string
}

// Reconcile computes the parameter union of the tables and what each one lacks.
func Reconcile(tables []draws.Table) Reconciliation {
	var union []string
	seen := make(map[string]struct{})
	for i := range tables {
		for _, c := range tables[i].Columns() {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			union = append(union, c)
		}
	}

	missing := make([][]string, len(tables))
	for i := range tables {
		for _, name := range union {
			if !tables[i].Has(name) {
				missing[i] = append(missing[i], name)
			}
		}
	}
	return Reconciliation{Union: union, Missing: missing}
}
