// internal/reporting/table_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/xkilldash9x/gridcheck/internal/grid"
)

const headerRow = -1

// Status labels printed per row.
const (
	StatusOK   = "OK"
	StatusMiss = "MISS"
)

var (
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorCyan  = lipgloss.Color("36")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

type tableStyles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	header  lipgloss.Style
	border  lipgloss.Style
	cell    lipgloss.Style
	number  lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	summary lipgloss.Style
}

func newTableStyles(r *lipgloss.Renderer) tableStyles {
	return tableStyles{
		title:   r.NewStyle().Bold(true).Foreground(colorCyan),
		label:   r.NewStyle().Foreground(colorGray),
		header:  r.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1),
		border:  r.NewStyle().Foreground(colorDim),
		cell:    r.NewStyle().Padding(0, 1),
		number:  r.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		pass:    r.NewStyle().Padding(0, 1).Foreground(colorGreen),
		fail:    r.NewStyle().Padding(0, 1).Foreground(colorRed).Bold(true),
		summary: r.NewStyle().Bold(true),
	}
}

// TableReporter prints a human-readable table, one row per element, followed
// by a summary line.
type TableReporter struct {
	writer io.WriteCloser
	styles tableStyles
}

func newTableReporter(w io.WriteCloser, useColor bool) *TableReporter {
	renderer := lipgloss.NewRenderer(w)
	if useColor {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &TableReporter{writer: w, styles: newTableStyles(renderer)}
}

func (r *TableReporter) WriteReport(report *grid.Report) error {
	s := r.styles
	var b strings.Builder

	b.WriteString(s.title.Render("Baseline grid check"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %spx (%s)\n", s.label.Render("Grid:     "), format2(report.Grid.Pixels), report.Grid.Source)
	fmt.Fprintf(&b, "%s <%s> %q at %spx\n", s.label.Render("Origin:   "), report.Origin.Tag, report.Origin.Text, format2(report.Origin.BaselineY))
	fmt.Fprintf(&b, "%s ±%spx\n\n", s.label.Render("Tolerance:"), format2(report.Tolerance))

	rows := make([][]string, 0, len(report.Measurements))
	passes := make([]bool, 0, len(report.Measurements))
	for i, m := range report.Measurements {
		ok := m.Passes(report.Tolerance)
		status := StatusOK
		if !ok {
			status = StatusMiss
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			m.Descriptor.Tag,
			m.Descriptor.Text,
			format2(m.Descriptor.BaselineY),
			format2(m.GridLineIndex),
			formatSigned2(m.GridError),
			status,
		})
		passes = append(passes, ok)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		Headers("#", "Tag", "Text", "Baseline", "Line", "Error", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return s.header
			case col == 6 && row < len(passes):
				if passes[row] {
					return s.pass
				}
				return s.fail
			case col == 0 || (col >= 3 && col <= 5):
				return s.number
			default:
				return s.cell
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	summary := fmt.Sprintf("%d passed, %d failed", report.Passed(), report.Failed())
	if report.OK() {
		b.WriteString(s.summary.Inherit(s.pass).UnsetPadding().Render(summary))
	} else {
		b.WriteString(s.summary.Inherit(s.fail).UnsetPadding().Render(summary))
	}
	b.WriteString("\n")

	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *TableReporter) WriteError(err error) error {
	line := r.styles.fail.UnsetPadding().Render("Error:") + " " + err.Error() + "\n"
	if _, werr := io.WriteString(r.writer, line); werr != nil {
		return fmt.Errorf("failed to write report: %w", werr)
	}
	return nil
}

func (r *TableReporter) Close() error {
	return r.writer.Close()
}

func format2(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}

func formatSigned2(v float64) string {
	v = Round2(v)
	if v > 0 {
		return "+" + strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
