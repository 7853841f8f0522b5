// Package encode turns question and table text into fixed-width feature
// rows for cell classification.
package encode

import (
	"math"
	"math/bits"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/tovenja/quench/internal/domain/table"
)

// Token namespaces keep question, header and cell tokens from colliding.
const (
	questionSpace = "q:"
	headerSpace   = "h:"
	cellSpace     = "c:"
)

// Hashing encodes text pairs by signed feature hashing: each token lands in
// one of Dims buckets with sign +1 or -1, and every cell row is
// L2-normalized. The same input always encodes identically.
type Hashing struct {
	dims int
}

// NewHashing creates an encoder with the given feature width.
func NewHashing(dims int) (*Hashing, error) {
	if dims < 1 {
		return nil, ErrBadDims
	}
	return &Hashing{dims: dims}, nil
}

// Dims returns the feature width of every encoded row.
func (h *Hashing) Dims() int { return h.dims }

// Encode produces one feature row per table cell, row-major, combining the
// question, the cell's column header and the cell value. The returned
// coordinates align one-to-one with the rows.
func (h *Hashing) Encode(question string, t *table.Table) ([][]float32, []table.Coordinate, error) {
	if t == nil {
		return nil, nil, ErrNilTable
	}
	if strings.TrimSpace(question) == "" {
		return nil, nil, ErrEmptyQuestion
	}

	questionTokens := tokenize(question)
	coords := t.Coordinates()
	rows := make([][]float32, len(coords))
	for i, coord := range coords {
		row := make([]float32, h.dims)
		h.add(row, questionSpace, questionTokens)
		h.add(row, headerSpace, tokenize(t.Columns[coord.Col]))
		h.add(row, cellSpace, tokenize(t.Cell(coord)))
		normalize(row)
		rows[i] = row
	}
	return rows, coords, nil
}

// add folds one token list into the feature row.
func (h *Hashing) add(row []float32, space string, tokens []string) {
	for _, token := range tokens {
		sum := xxhash.Sum64String(space + token)
		// Lemire multiply-shift reduction onto the bucket range; the low
		// bit is still free afterwards and provides the sign.
		bucket, _ := bits.Mul64(sum, uint64(h.dims))
		if sum&1 == 1 {
			row[bucket]++
		} else {
			row[bucket]--
		}
	}
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize scales the row to unit L2 norm; all-zero rows stay zero.
func normalize(row []float32) {
	var sum float64
	for _, v := range row {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i, v := range row {
		row[i] = float32(float64(v) * inv)
	}
}
