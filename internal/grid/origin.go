// internal/grid/origin.go
package grid

import (
	"context"
	"fmt"
)

// SelectOrigin picks the element whose baseline defines grid line zero and
// probes that baseline once. With a selector, the first match in the document
// is used, visible or not. Without one, the first of candidates is used.
func SelectOrigin(ctx context.Context, page Page, selector string, candidates []Element) (ElementDescriptor, error) {
	var el Element
	if selector != "" {
		found, ok, err := page.QueryFirst(ctx, selector)
		if err != nil {
			return ElementDescriptor{}, fmt.Errorf("failed to query origin selector %q: %w", selector, err)
		}
		if !ok {
			return ElementDescriptor{}, fmt.Errorf("%w: %q", ErrOriginNotFound, selector)
		}
		el = found
	} else {
		if len(candidates) == 0 {
			return ElementDescriptor{}, fmt.Errorf("%w: no candidates for default origin", ErrNoVisibleElements)
		}
		el = candidates[0]
	}

	return describe(ctx, page, el)
}

// describe probes an element's baseline and builds its descriptor.
func describe(ctx context.Context, prober BaselineProber, el Element) (ElementDescriptor, error) {
	y, err := prober.Baseline(ctx, el)
	if err != nil {
		return ElementDescriptor{}, fmt.Errorf("failed to probe baseline of <%s> #%d for %q: %w", el.Tag, el.Index, el.Selector, err)
	}
	return ElementDescriptor{
		Tag:       el.Tag,
		Text:      DisplayText(el.Text),
		BaselineY: y,
	}, nil
}
