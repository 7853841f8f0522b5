package table

import (
	"fmt"
	"strings"

	"github.com/tovenja/quench/internal/domain/eval"
)

// RelevantClass is the score column that marks a cell as part of the answer.
const RelevantClass = 1

// cellJoin separates selected cell values in the answer text.
const cellJoin = ", "

// Answer is the assembled response for one question over one table.
type Answer struct {
	Text   string       `json:"text"`
	Cells  []Coordinate `json:"cells"`
	Scores []float64    `json:"scores"`
}

// Relevance converts two-class cell scores into the probability of each
// cell being relevant, via a softmax per row.
func Relevance(scores [][]float32) ([]float64, error) {
	probs := make([]float64, len(scores))
	for i, row := range scores {
		if len(row) != 2 {
			return nil, fmt.Errorf("%w: score row of width %d", ErrBadScores, len(row))
		}
		probs[i] = eval.Softmax(row)[RelevantClass]
	}
	return probs, nil
}

// Assemble selects the cells whose relevance reaches the threshold and joins
// their values in row-major order. When no cell reaches it, the single best
// cell is the answer, ties broken toward the earlier cell.
func Assemble(t *Table, probs []float64, threshold float64) (Answer, error) {
	if t == nil {
		return Answer{}, ErrNilTable
	}
	if len(probs) != t.CellCount() {
		return Answer{}, fmt.Errorf("%w: %d scores for %d cells", ErrBadScores, len(probs), t.CellCount())
	}
	if threshold < 0 || threshold > 1 {
		return Answer{}, fmt.Errorf("%w: %g", ErrBadThreshold, threshold)
	}

	coords := t.Coordinates()
	var answer Answer
	for i, p := range probs {
		if p >= threshold {
			answer.Cells = append(answer.Cells, coords[i])
			answer.Scores = append(answer.Scores, p)
		}
	}
	if len(answer.Cells) == 0 {
		best := 0
		for i, p := range probs {
			if p > probs[best] {
				best = i
			}
		}
		answer.Cells = []Coordinate{coords[best]}
		answer.Scores = []float64{probs[best]}
	}

	values := make([]string, len(answer.Cells))
	for i, c := range answer.Cells {
		values[i] = t.Cell(c)
	}
	answer.Text = strings.Join(values, cellJoin)
	return answer, nil
}
