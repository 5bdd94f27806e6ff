// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/xkilldash9x/gridcheck/api/schemas"
	"github.com/xkilldash9x/gridcheck/internal/config"
	"github.com/xkilldash9x/gridcheck/internal/grid"
)

// Reporter renders the outcome of one run. Exactly one of WriteReport or
// WriteError is called per run.
type Reporter interface {
	// WriteReport renders a completed measurement.
	WriteReport(report *grid.Report) error
	// WriteError renders a fatal error in place of a report.
	WriteError(err error) error
	// Close flushes and closes the underlying output.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format writing to outputPath, or to stdout when
// the path is empty or "stdout". colorMode is one of config.ColorAuto,
// config.ColorAlways or config.ColorNever; auto enables color only on a
// terminal.
func New(format, outputPath, colorMode string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	var out io.Writer = writer
	if isStdOut {
		out = os.Stdout
	}

	r, err := newReporter(format, writer, ColorEnabled(colorMode, out))
	if err != nil {
		if !isStdOut {
			writer.Close()
		}
		return nil, err
	}
	return r, nil
}

// ColorEnabled resolves a color mode for w. Auto enables color only when w
// is a terminal.
func ColorEnabled(colorMode string, w io.Writer) bool {
	switch colorMode {
	case config.ColorAlways:
		return true
	case config.ColorAuto:
		f, ok := w.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	default:
		return false
	}
}

// NewWriter creates a reporter on an arbitrary writer. Closing the reporter
// does not close w.
func NewWriter(format string, w io.Writer, useColor bool) (Reporter, error) {
	return newReporter(format, &nopWriteCloser{w}, useColor)
}

func newReporter(format string, w io.WriteCloser, useColor bool) (Reporter, error) {
	switch format {
	case config.FormatJSON:
		return newJSONReporter(w), nil
	case config.FormatTable:
		return newTableReporter(w, useColor), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Round2 rounds to two decimal places for presentation. Negative zero is
// normalized so that "-0.00" never appears.
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// BuildGridReport converts a measurement into its wire form. This is the only
// place numbers are rounded; pass/fail was decided on full precision.
func BuildGridReport(report *grid.Report) schemas.GridReport {
	out := schemas.GridReport{
		Measurements:   make([]schemas.MeasurementResult, 0, len(report.Measurements)),
		Origin:         summarize(report.Origin),
		OriginBaseline: Round2(report.Origin.BaselineY),
		DetectedGrid:   Round2(report.Grid.Pixels),
		GridSource:     report.Grid.Source.String(),
		Tolerance:      Round2(report.Tolerance),
		Passed:         report.Passed(),
		Failed:         report.Failed(),
	}
	for _, m := range report.Measurements {
		out.Measurements = append(out.Measurements, schemas.MeasurementResult{
			Tag:       m.Descriptor.Tag,
			Text:      m.Descriptor.Text,
			Baseline:  Round2(m.Descriptor.BaselineY),
			GridLine:  Round2(m.GridLineIndex),
			GridError: Round2(m.GridError),
			Pass:      m.Passes(report.Tolerance),
		})
	}
	return out
}

func summarize(d grid.ElementDescriptor) schemas.ElementSummary {
	return schemas.ElementSummary{Tag: d.Tag, Text: d.Text, Baseline: Round2(d.BaselineY)}
}
