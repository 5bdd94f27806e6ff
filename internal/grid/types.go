// internal/grid/types.go
package grid

import (
	"math"
	"strings"
	"unicode/utf8"
)

// DisplayTextLength is the maximum number of runes of element text kept for display.
const DisplayTextLength = 40

// DefaultGridProperty is the custom property read from :root when no explicit grid is given.
const DefaultGridProperty = "--baseline-grid"

// GridSource records where the grid interval came from.
type GridSource int

const (
	// SourceExplicit means the interval was passed in by the caller.
	SourceExplicit GridSource = iota
	// SourceCSSProperty means the interval was read from a custom property on the page.
	SourceCSSProperty
)

// String returns the wire name of the source ("CLI" or "CSS").
func (s GridSource) String() string {
	switch s {
	case SourceExplicit:
		return "CLI"
	case SourceCSSProperty:
		return "CSS"
	default:
		return "unknown"
	}
}

// GridSpec is a resolved grid interval. Pixels is always > 0.
type GridSpec struct {
	Pixels float64
	Source GridSource
}

// ElementDescriptor identifies a measured element for display purposes.
// BaselineY is in page coordinates and kept at full precision.
type ElementDescriptor struct {
	Tag       string
	Text      string
	BaselineY float64
}

// Measurement is the grid position of a single element relative to the origin.
type Measurement struct {
	Descriptor    ElementDescriptor
	GridLineIndex float64
	// GridError is signed, in pixels. Positive means the baseline sits below
	// the nearest grid line.
	GridError float64
}

// Passes reports whether the measurement is within tolerance. The boundary is inclusive.
func (m Measurement) Passes(tolerance float64) bool {
	return math.Abs(m.GridError) <= tolerance
}

// Report is the aggregate result of one measurement pass.
type Report struct {
	Grid         GridSpec
	Origin       ElementDescriptor
	Measurements []Measurement
	Tolerance    float64
}

// Passed counts measurements within tolerance.
func (r *Report) Passed() int {
	n := 0
	for _, m := range r.Measurements {
		if m.Passes(r.Tolerance) {
			n++
		}
	}
	return n
}

// Failed counts measurements outside tolerance.
func (r *Report) Failed() int {
	return len(r.Measurements) - r.Passed()
}

// OK is true when every measurement passes.
func (r *Report) OK() bool {
	return r.Failed() == 0
}

// Options is the configuration surface consumed by Measure.
type Options struct {
	// Selectors is a comma-separated list of CSS selectors.
	Selectors string
	// OriginSelector, if set, picks the grid-line-zero element.
	OriginSelector string
	// ExplicitGrid overrides grid detection when > 0.
	ExplicitGrid float64
	// GridProperty is the custom property consulted when ExplicitGrid is unset.
	GridProperty string
	Tolerance    float64
}

// ParseSelectors splits a comma-separated selector list, trimming each entry
// and dropping empties. Order is preserved.
func ParseSelectors(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CombineSelectors joins selectors into a single selector group so that one
// query returns matches in document order.
func CombineSelectors(selectors []string) string {
	return strings.Join(selectors, ", ")
}

// DisplayText trims surrounding whitespace and truncates to DisplayTextLength runes.
func DisplayText(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= DisplayTextLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:DisplayTextLength])
}
