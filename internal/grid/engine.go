// internal/grid/engine.go
package grid

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Compute places a baseline on the grid. index is the offset from the origin
// in grid lines; gridError is the signed pixel distance to the nearest line.
// Ties at .5 round half away from zero (math.Round).
func Compute(baselineY, originY, pixels float64) (index, gridError float64) {
	index = (baselineY - originY) / pixels
	gridError = (index - math.Round(index)) * pixels
	return index, gridError
}

// Measure runs one full measurement pass against page. It either returns a
// complete report or a fatal error; per-element deviations are data, not errors.
func Measure(ctx context.Context, page Page, opts Options, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	selectors := ParseSelectors(opts.Selectors)
	if len(selectors) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatches, opts.Selectors)
	}
	combined := CombineSelectors(selectors)

	gs, err := ResolveGrid(ctx, page, opts.ExplicitGrid, opts.GridProperty, logger)
	if err != nil {
		return nil, err
	}

	var origin ElementDescriptor
	explicitOrigin := opts.OriginSelector != ""
	if explicitOrigin {
		if origin, err = SelectOrigin(ctx, page, opts.OriginSelector, nil); err != nil {
			return nil, err
		}
	}

	visible, err := eligible(ctx, page, combined)
	if err != nil {
		return nil, err
	}

	if !explicitOrigin {
		if origin, err = SelectOrigin(ctx, page, "", visible); err != nil {
			return nil, err
		}
	}

	logger.Debug("Measuring elements.",
		zap.Int("count", len(visible)),
		zap.Float64("grid_px", gs.Pixels),
		zap.String("grid_source", gs.Source.String()),
		zap.String("origin_tag", origin.Tag),
		zap.Float64("origin_baseline", origin.BaselineY),
	)

	measurements := make([]Measurement, 0, len(visible))
	for _, el := range visible {
		m, err := measureElement(ctx, page, el, origin.BaselineY, gs)
		if err != nil {
			return nil, err
		}
		measurements = append(measurements, m)
	}

	return &Report{
		Grid:         gs,
		Origin:       origin,
		Measurements: measurements,
		Tolerance:    opts.Tolerance,
	}, nil
}

// eligible queries the combined selector once and keeps the elements with a
// non-empty rendered box.
func eligible(ctx context.Context, page Page, combined string) ([]Element, error) {
	matched, err := page.QueryAll(ctx, combined)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", combined, err)
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatches, combined)
	}

	visible := make([]Element, 0, len(matched))
	for _, el := range matched {
		if el.Visible() {
			visible = append(visible, el)
		}
	}
	if len(visible) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoVisibleElements, combined)
	}
	return visible, nil
}

// measureElement takes the origin baseline as a value so that the pass
// carries no shared state.
func measureElement(ctx context.Context, prober BaselineProber, el Element, originY float64, gs GridSpec) (Measurement, error) {
	d, err := describe(ctx, prober, el)
	if err != nil {
		return Measurement{}, err
	}
	index, gridErr := Compute(d.BaselineY, originY, gs.Pixels)
	return Measurement{
		Descriptor:    d,
		GridLineIndex: index,
		GridError:     gridErr,
	}, nil
}
