package averaging

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/kailas-cloud/bayesavg/internal/domain"
	"github.com/kailas-cloud/bayesavg/internal/domain/allocation"
	"github.com/kailas-cloud/bayesavg/internal/domain/draws"
)

// resample pools the models' draws: alloc[m] distinct rows drawn uniformly from
// tables[m], aligned to union with absent columns set to missing, concatenated in model order.
// Nothing is sampled unless every model has enough rows.
func resample(
	ids []string, tables []draws.Table, alloc allocation.Allocation,
	union []string, missing float64, src rand.Source,
) (draws.Table, error) {
	for m := range tables {
		if alloc[m] > tables[m].NumRows() {
			return draws.Table{}, &domain.InsufficientDrawsError{
				Model:     ids[m],
				Requested: alloc[m],
				Available: tables[m].NumRows(),
			}
		}
	}

	rows := make([][]float64, 0, alloc.Total())
	for m, tbl := range tables {
		n := alloc[m]
		if n == 0 {
			continue
		}
		picked := make([]int, n)
		sampleuv.WithoutReplacement(picked, tbl.NumRows(), src)

		// position of each union column in this table, -1 when absent
		pos := make([]int, len(union))
		for k, name := range union {
			j, ok := tbl.ColumnIndex(name)
			if !ok {
				j = -1
			}
			pos[k] = j
		}

		for _, r := range picked {
			draw := tbl.Row(r)
			row := make([]float64, len(union))
			for k, j := range pos {
				if j < 0 {
					row[k] = missing
					continue
				}
				row[k] = draw[j]
			}
			rows = append(rows, row)
		}
	}
	return draws.Reconstruct(union, rows), nil
}
