// internal/grid/page.go
package grid

import "context"

// Element is a handle to a DOM element plus a snapshot of the fields the
// engine needs. Selector and Index locate the element again inside the page:
// it is the Index-th match of Selector in document order.
type Element struct {
	Selector string
	Index    int
	Tag      string
	Text     string
	Width    float64
	Height   float64
}

// Visible reports whether the element has a strictly positive rendered box.
func (e Element) Visible() bool {
	return e.Width > 0 && e.Height > 0
}

// BaselineProber returns the page-space Y coordinate of the baseline of an
// element's first line of text. Implementations may mutate the DOM while
// probing but must leave it structurally unchanged on return.
type BaselineProber interface {
	Baseline(ctx context.Context, el Element) (float64, error)
}

// Page is the rendering context the measurement runs against.
type Page interface {
	BaselineProber

	// RootProperty returns the trimmed computed value of a custom property
	// on the document's root element, or "" if it is not set.
	RootProperty(ctx context.Context, name string) (string, error)

	// ResolveLength converts a CSS length to pixels by laying it out as the
	// height of an invisible probe block.
	ResolveLength(ctx context.Context, length string) (float64, error)

	// QueryAll returns every element matching selector, in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// QueryFirst returns the first element matching selector.
	QueryFirst(ctx context.Context, selector string) (Element, bool, error)
}
