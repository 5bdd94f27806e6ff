// Package gridtest provides an in-memory grid.Page for tests.
package gridtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/xkilldash9x/gridcheck/internal/grid"
)

// FakeElement describes one element of a FakePage.
type FakeElement struct {
	Tag      string
	Text     string
	Width    float64
	Height   float64
	Baseline float64
}

// FakePage is a static page keyed by exact selector strings. It records how
// many probes it served so tests can assert on access patterns.
type FakePage struct {
	// Properties maps custom property names to their root values.
	Properties map[string]string
	// Lengths maps CSS length strings to pixel heights.
	Lengths map[string]float64
	// Elements maps selectors to their matches in document order.
	Elements map[string][]FakeElement

	// Injected failures.
	PropertyErr error
	LengthErr   error
	QueryErr    error
	BaselineErr error

	mu     sync.Mutex
	probes int
}

var _ grid.Page = (*FakePage)(nil)

// NewFakePage returns an empty page.
func NewFakePage() *FakePage {
	return &FakePage{
		Properties: map[string]string{},
		Lengths:    map[string]float64{},
		Elements:   map[string][]FakeElement{},
	}
}

// Add appends elements to the matches of selector and returns the page for chaining.
func (p *FakePage) Add(selector string, els ...FakeElement) *FakePage {
	p.Elements[selector] = append(p.Elements[selector], els...)
	return p
}

// Probes returns the number of Baseline calls served.
func (p *FakePage) Probes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes
}

func (p *FakePage) RootProperty(_ context.Context, name string) (string, error) {
	if p.PropertyErr != nil {
		return "", p.PropertyErr
	}
	return p.Properties[name], nil
}

func (p *FakePage) ResolveLength(_ context.Context, length string) (float64, error) {
	if p.LengthErr != nil {
		return 0, p.LengthErr
	}
	px, ok := p.Lengths[length]
	if !ok {
		return 0, nil
	}
	return px, nil
}

func (p *FakePage) QueryAll(_ context.Context, selector string) ([]grid.Element, error) {
	if p.QueryErr != nil {
		return nil, p.QueryErr
	}
	matches := p.Elements[selector]
	out := make([]grid.Element, len(matches))
	for i, fe := range matches {
		out[i] = toElement(selector, i, fe)
	}
	return out, nil
}

func (p *FakePage) QueryFirst(_ context.Context, selector string) (grid.Element, bool, error) {
	if p.QueryErr != nil {
		return grid.Element{}, false, p.QueryErr
	}
	matches := p.Elements[selector]
	if len(matches) == 0 {
		return grid.Element{}, false, nil
	}
	return toElement(selector, 0, matches[0]), true, nil
}

func (p *FakePage) Baseline(_ context.Context, el grid.Element) (float64, error) {
	p.mu.Lock()
	p.probes++
	p.mu.Unlock()

	if p.BaselineErr != nil {
		return 0, p.BaselineErr
	}
	matches := p.Elements[el.Selector]
	if el.Index < 0 || el.Index >= len(matches) {
		return 0, fmt.Errorf("element %d of %q does not exist", el.Index, el.Selector)
	}
	return matches[el.Index].Baseline, nil
}

func toElement(selector string, index int, fe FakeElement) grid.Element {
	return grid.Element{
		Selector: selector,
		Index:    index,
		Tag:      fe.Tag,
		Text:     fe.Text,
		Width:    fe.Width,
		Height:   fe.Height,
	}
}
