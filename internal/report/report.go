// Package report compares the per-packet sequences of several captures,
// as a text table or a line chart.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"FlowSpectra/internal/engine/extractor"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Kind selects which sequence is compared.
type Kind string

const (
	KindSize  Kind = "size"
	KindTime  Kind = "time"
	KindSpeed Kind = "speed"
)

// ParseKind converts a flag value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindSize:
		return KindSize, nil
	case KindTime:
		return KindTime, nil
	case KindSpeed:
		return KindSpeed, nil
	}
	return "", fmt.Errorf("unknown sequence kind: '%s'", s)
}

func (k Kind) label() string {
	switch k {
	case KindSize:
		return "Signed payload size (bytes)"
	case KindTime:
		return "Relative time (s)"
	default:
		return "Throughput (KiB/s)"
	}
}

// values returns the selected series of seq as floats.
func (k Kind) values(seq *extractor.Sequences) []float64 {
	switch k {
	case KindSize:
		out := make([]float64, len(seq.Sizes))
		for i, v := range seq.Sizes {
			out[i] = float64(v)
		}
		return out
	case KindTime:
		return seq.Times
	default:
		return seq.Speeds
	}
}

// Table writes one row per packet index with one column per capture.
// Captures shorter than the longest leave their cells empty.
func Table(w io.Writer, kind Kind, seqs []*extractor.Sequences) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := []string{"#"}
	rows := 0
	series := make([][]float64, len(seqs))
	for i, s := range seqs {
		header = append(header, s.Source)
		series[i] = kind.values(s)
		if len(series[i]) > rows {
			rows = len(series[i])
		}
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for r := 0; r < rows; r++ {
		cells := []string{strconv.Itoa(r)}
		for _, vals := range series {
			if r < len(vals) {
				cells = append(cells, strconv.FormatFloat(vals[r], 'f', -1, 64))
			} else {
				cells = append(cells, "")
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Plot saves a line chart of the selected series, one line per capture.
// The image format follows the file extension.
func Plot(path string, kind Kind, seqs []*extractor.Sequences) error {
	if len(seqs) == 0 {
		return fmt.Errorf("no sequences to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Per-packet %s comparison", kind)
	p.X.Label.Text = "Packet index"
	p.Y.Label.Text = kind.label()
	p.Add(plotter.NewGrid())

	for i, s := range seqs {
		vals := kind.values(s)
		pts := make(plotter.XYs, len(vals))
		for j, v := range vals {
			pts[j].X = float64(j)
			pts[j].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to plot %s: %w", s.Source, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(s.Source, line)
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
