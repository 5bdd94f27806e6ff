// internal/grid/resolver.go
package grid

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// ResolveGrid determines the grid interval. An explicit value > 0 wins;
// otherwise the custom property is read from the page root and converted to
// pixels. Any path that does not yield a positive, finite value returns
// ErrGridUndetectable.
func ResolveGrid(ctx context.Context, page Page, explicit float64, property string, logger *zap.Logger) (GridSpec, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if property == "" {
		property = DefaultGridProperty
	}

	if explicit > 0 {
		logger.Debug("Using explicit grid size.", zap.Float64("pixels", explicit))
		return GridSpec{Pixels: explicit, Source: SourceExplicit}, nil
	}

	undetectable := fmt.Errorf("%w: pass --grid or define %s on :root", ErrGridUndetectable, property)

	value, err := page.RootProperty(ctx, property)
	if err != nil {
		return GridSpec{}, fmt.Errorf("failed to read %s: %w", property, err)
	}
	if value == "" {
		logger.Debug("Grid property not set on root element.", zap.String("property", property))
		return GridSpec{}, undetectable
	}

	px, err := page.ResolveLength(ctx, value)
	if err != nil {
		return GridSpec{}, fmt.Errorf("failed to convert %s value %q to pixels: %w", property, value, err)
	}
	if px <= 0 || math.IsNaN(px) || math.IsInf(px, 0) {
		logger.Debug("Grid property resolved to an unusable size.",
			zap.String("property", property), zap.String("value", value), zap.Float64("pixels", px))
		return GridSpec{}, undetectable
	}

	logger.Debug("Detected grid size from custom property.",
		zap.String("property", property), zap.String("value", value), zap.Float64("pixels", px))
	return GridSpec{Pixels: px, Source: SourceCSSProperty}, nil
}
