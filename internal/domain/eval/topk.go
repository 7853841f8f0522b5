// Package eval computes batch-level quality measures from class scores.
package eval

import (
	"sort"
)

// percentScale converts a hit fraction into a percentage.
const percentScale = 100.0

// TopK computes, for each cutoff in ks, the percentage of examples whose
// true label ranks inside the k highest-scored classes. The result is
// aligned with ks and each entry lies in [0,100]. Ties are broken toward
// the lower class index, so results are deterministic for fixed input.
func TopK(scores [][]float32, labels []int, ks []int) ([]float64, error) {
	if err := validate(scores, labels); err != nil {
		return nil, err
	}
	classes := len(scores[0])
	if len(ks) == 0 {
		return nil, ErrInvalidTopK
	}
	for _, k := range ks {
		if k < 1 || k > classes {
			return nil, ErrInvalidTopK
		}
	}

	hits := make([]int, len(ks))
	order := make([]int, classes)
	for i, row := range scores {
		rank := labelRank(row, labels[i], order)
		for j, k := range ks {
			if rank < k {
				hits[j]++
			}
		}
	}

	n := float64(len(scores))
	accs := make([]float64, len(ks))
	for j, h := range hits {
		accs[j] = percentScale * float64(h) / n
	}
	return accs, nil
}

// labelRank returns the position of label in the row's score ordering,
// highest score first. The order slice is scratch space reused across rows.
func labelRank(row []float32, label int, order []int) int {
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if row[ia] != row[ib] {
			return row[ia] > row[ib]
		}
		return ia < ib
	})
	for rank, class := range order {
		if class == label {
			return rank
		}
	}
	return len(order)
}

// Argmax returns the index of the highest score in the row, breaking ties
// toward the lower index. It returns -1 for an empty row.
func Argmax(row []float32) int {
	if len(row) == 0 {
		return -1
	}
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

// validate checks the score matrix and label vector against each other.
func validate(scores [][]float32, labels []int) error {
	if len(scores) == 0 {
		return ErrEmptyBatch
	}
	if len(labels) != len(scores) {
		return ErrLengthMismatch
	}
	classes := len(scores[0])
	if classes == 0 {
		return ErrEmptyBatch
	}
	for _, row := range scores {
		if len(row) != classes {
			return ErrRaggedScores
		}
	}
	for _, label := range labels {
		if label < 0 || label >= classes {
			return ErrLabelRange
		}
	}
	return nil
}
