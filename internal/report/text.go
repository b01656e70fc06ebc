// Package report provides the training progress reporters: a verbose text
// table, a checkpoint writer and a history recorder.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/optim"
)

const columnWidth = 12

var columns = [][2]string{
	{"Epoch", ""},
	{"Iteration", ""},
	{"Time Elapsed", "(seconds)"},
	{"Mini-batch", "Loss"},
	{"Mini-batch", "Accuracy"},
	{"Base Learning", "Rate"},
}

// Text prints a progress table: the first iteration, every frequency-th
// iteration and the last iteration of each epoch.
type Text struct {
	out       io.Writer
	frequency int
	last      optim.Iteration
	printed   bool
	err       error
}

// NewText returns a text reporter writing to out. A frequency below 1
// prints every iteration.
func NewText(out io.Writer, frequency int) *Text {
	return &Text{out: out, frequency: max(frequency, 1)}
}

// Start prints the table header.
func (r *Text) Start() error {
	rule := r.rule()
	r.printf("%s\n", rule)
	for line := range 2 {
		r.printf("|")
		for _, c := range columns {
			r.printf("%s|", center(c[line], columnWidth+2))
		}
		r.printf("\n")
	}
	r.printf("%s\n", rule)
	return r.err
}

// ReportIteration prints a row for the first and every frequency-th
// iteration.
func (r *Text) ReportIteration(it optim.Iteration) error {
	r.last = it
	r.printed = it.Iteration == 1 || it.Iteration%r.frequency == 0
	if r.printed {
		r.row(it)
	}
	return r.err
}

// ReportEpoch prints the epoch's last iteration unless it was printed
// already.
func (r *Text) ReportEpoch(_, _ int, _ *nn.SeriesNetwork) error {
	if !r.printed && r.last.Iteration > 0 {
		r.row(r.last)
		r.printed = true
	}
	return r.err
}

// Finish closes the table and prints the iteration count and elapsed time.
func (r *Text) Finish() error {
	r.printf("%s\n", r.rule())
	r.printf("Training finished: %s iterations in %s\n",
		humanize.Comma(int64(r.last.Iteration)), r.last.Elapsed.Round(time.Millisecond))
	return r.err
}

func (r *Text) row(it optim.Iteration) {
	cells := []string{
		humanize.Comma(int64(it.Epoch)),
		humanize.Comma(int64(it.Iteration)),
		humanize.CommafWithDigits(it.Elapsed.Seconds(), 2),
		fmt.Sprintf("%.4f", it.Loss),
		fmt.Sprintf("%.2f%%", it.Accuracy),
		fmt.Sprintf("%.4g", it.LearnRate),
	}
	r.printf("|")
	for _, c := range cells {
		r.printf(" %*s |", columnWidth, c)
	}
	r.printf("\n")
}

func (r *Text) rule() string {
	return "|" + strings.Repeat("=", len(columns)*(columnWidth+3)-1) + "|"
}

// printf writes to out, keeping the first write error.
func (r *Text) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.out, format, args...)
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
}
