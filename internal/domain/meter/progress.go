package meter

import (
	"fmt"
	"strconv"
	"strings"
)

// Default separator between progress line entries.
const defaultSeparator = "\t"

// Progress renders progress lines for a fixed-length pass over batches.
// It never mutates the meters it reports.
type Progress struct {
	total     int
	meters    []*Meter
	prefix    string
	separator string
	counter   string
}

// NewProgress creates a reporter for a pass of total batches. The counter on
// each line is padded to the digit width of total, so batch 7 of 100 renders
// as "[  7/100]".
func NewProgress(total int, meters []*Meter, opts ...Option) *Progress {
	p := &Progress{
		total:     total,
		meters:    meters,
		separator: defaultSeparator,
	}
	for _, opt := range opts {
		opt(p)
	}
	width := len(strconv.Itoa(total))
	p.counter = "[%" + strconv.Itoa(width) + "d/" + strconv.Itoa(total) + "]"
	return p
}

// Total returns the batch count the reporter was built for.
func (p *Progress) Total() int { return p.total }

// Line formats one progress line for the given batch index: the padded
// counter followed by each meter's formatted string.
func (p *Progress) Line(batch int) string {
	entries := make([]string, 0, len(p.meters)+1)
	entries = append(entries, p.prefix+fmt.Sprintf(p.counter, batch))
	for _, m := range p.meters {
		entries = append(entries, m.String())
	}
	return strings.Join(entries, p.separator)
}
