// internal/browser/overlay.go
package browser

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	overlayElementID      = "gridcheck-baseline-overlay"
	overlayRemovalTimeout = 5 * time.Second
	jpegQuality           = 90
)

// OverlayStart returns the offset of the first grid line from the top of the
// page: the origin baseline reduced modulo the grid size into [0, size).
func OverlayStart(originY, size float64) float64 {
	start := math.Mod(originY, size)
	if start < 0 {
		start += size
	}
	if start >= size {
		start = 0
	}
	return start
}

// screenshotQuality picks the encoding from the file extension. chromedp
// captures PNG at quality 100 and JPEG otherwise.
func screenshotQuality(path string) int {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpegQuality
	default:
		return 100
	}
}

// CaptureGridOverlay draws grid lines every size pixels, aligned to originY,
// takes one full-page screenshot and writes it to path. The overlay is
// removed again even when the capture fails or ctx is canceled.
func (s *Session) CaptureGridOverlay(ctx context.Context, size, originY float64, color, path string) (err error) {
	if size <= 0 {
		return fmt.Errorf("grid size must be positive, got %v", size)
	}
	start := OverlayStart(originY, size)

	addScript, err := buildScript(addOverlayScript, overlayElementID, size, start, color)
	if err != nil {
		return err
	}
	removeScript, err := buildScript(removeOverlayScript, overlayElementID)
	if err != nil {
		return err
	}

	var added bool
	if err := s.evaluate(ctx, addScript, &added); err != nil {
		return fmt.Errorf("failed to draw grid overlay: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(Detach(ctx), overlayRemovalTimeout)
		defer cancel()
		var removed bool
		if rmErr := s.evaluate(cleanupCtx, removeScript, &removed); rmErr != nil {
			s.logger.Warn("Failed to remove grid overlay.", zap.Error(rmErr))
		}
	}()

	var buf []byte
	if err := s.runActions(ctx, chromedp.FullScreenshot(&buf, screenshotQuality(path))); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}

	s.logger.Info("Screenshot saved.", zap.String("path", path), zap.Float64("grid", size), zap.Float64("first_line", start))
	return nil
}
