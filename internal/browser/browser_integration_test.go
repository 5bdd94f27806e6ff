// internal/browser/browser_integration_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/gridcheck/internal/config"
	"github.com/xkilldash9x/gridcheck/internal/grid"
)

const (
	maxTestBrowsers           = 2
	defaultBrowserTestTimeout = 90 * time.Second
	semaphoreAcquireTimeout   = 30 * time.Second
)

var (
	browserSemaphore     *semaphore.Weighted
	browserSemaphoreOnce sync.Once
)

// getBrowserSemaphore limits the number of Chrome processes across parallel tests.
func getBrowserSemaphore() *semaphore.Weighted {
	browserSemaphoreOnce.Do(func() {
		browserSemaphore = semaphore.NewWeighted(maxTestBrowsers)
	})
	return browserSemaphore
}

// findChrome locates a Chrome binary, honoring CHROME_PATH.
func findChrome() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

type browserFixture struct {
	Ctx     context.Context
	Config  *config.Config
	Manager *Manager
	Logger  *zap.Logger
}

// newBrowserFixture launches an isolated browser for one test. It skips when
// no Chrome is installed or the test run is short.
func newBrowserFixture(t *testing.T) *browserFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	chrome := findChrome()
	if chrome == "" {
		t.Skip("no Chrome or Chromium binary found; set CHROME_PATH")
	}

	deadline, ok := t.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultBrowserTestTimeout)
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline.Add(-time.Second))
	t.Cleanup(cancel)

	sem := getBrowserSemaphore()
	acquireCtx, acquireCancel := context.WithTimeout(ctx, semaphoreAcquireTimeout)
	err := sem.Acquire(acquireCtx, 1)
	acquireCancel()
	require.NoError(t, err, "failed to acquire browser slot")
	t.Cleanup(func() { sem.Release(1) })

	cfg := config.NewDefaultConfig()
	cfg.Browser.ExecPath = chrome
	cfg.Network.NavigationTimeout = 30 * time.Second
	cfg.Network.PostLoadWait = 100 * time.Millisecond

	logger := zaptest.NewLogger(t)
	m, err := NewManager(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer shutdownCancel()
		assert.NoError(t, m.Shutdown(shutdownCtx))
	})

	return &browserFixture{Ctx: ctx, Config: cfg, Manager: m, Logger: logger}
}

const gridPage = `<!DOCTYPE html>
<html>
<head>
<style>
  :root { --baseline-grid: 1.5rem; }
  html, body { margin: 0; padding: 0; font: 16px/24px sans-serif; }
  h1, p { margin: 0 0 24px; font-size: 16px; line-height: 24px; }
  .hidden { display: none; }
</style>
</head>
<body>
  <h1 class="masthead">Title</h1>
  <p>First paragraph</p>
  <p>Second paragraph</p>
  <p class="hidden">Never shown</p>
</body>
</html>`

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSession_MeasuresAlignedPage(t *testing.T) {
	fx := newBrowserFixture(t)
	srv := serveHTML(t, gridPage)

	s, err := fx.Manager.NewSession(fx.Ctx)
	require.NoError(t, err)
	defer s.Close(context.Background())

	require.NoError(t, s.Navigate(fx.Ctx, srv.URL))

	t.Run("resolves the custom property", func(t *testing.T) {
		value, err := s.RootProperty(fx.Ctx, grid.DefaultGridProperty)
		require.NoError(t, err)
		assert.Equal(t, "1.5rem", value)

		px, err := s.ResolveLength(fx.Ctx, value)
		require.NoError(t, err)
		assert.InDelta(t, 24.0, px, 0.01)
	})

	t.Run("lists matches in document order", func(t *testing.T) {
		els, err := s.QueryAll(fx.Ctx, "h1, p")
		require.NoError(t, err)
		require.Len(t, els, 4)
		assert.Equal(t, "h1", els[0].Tag)
		assert.Equal(t, "First paragraph", els[1].Text)
		assert.False(t, els[3].Visible())
	})

	t.Run("every visible line sits on the grid", func(t *testing.T) {
		report, err := grid.Measure(fx.Ctx, s, grid.Options{
			Selectors:      "h1, p",
			OriginSelector: ".masthead",
			GridProperty:   grid.DefaultGridProperty,
			Tolerance:      0.5,
		}, fx.Logger)
		require.NoError(t, err)
		assert.Equal(t, grid.SourceCSSProperty, report.Grid.Source)
		assert.Len(t, report.Measurements, 3)
		assert.True(t, report.OK())
	})

	t.Run("probing leaves the document unchanged", func(t *testing.T) {
		var before, after int
		require.NoError(t, s.evaluate(fx.Ctx, `document.getElementsByTagName('*').length`, &before))
		els, err := s.QueryAll(fx.Ctx, "p")
		require.NoError(t, err)
		_, err = s.Baseline(fx.Ctx, els[0])
		require.NoError(t, err)
		require.NoError(t, s.evaluate(fx.Ctx, `document.getElementsByTagName('*').length`, &after))
		assert.Equal(t, before, after)
	})

	t.Run("screenshot overlay is removed afterwards", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shots", "grid.png")
		require.NoError(t, s.CaptureGridOverlay(fx.Ctx, 24, 18, "rgba(255, 0, 128, 0.6)", path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())

		var present bool
		require.NoError(t, s.evaluate(fx.Ctx, fmt.Sprintf(`!!document.getElementById(%q)`, overlayElementID), &present))
		assert.False(t, present)
	})
}

func TestManager_ShutdownIsIdempotent(t *testing.T) {
	fx := newBrowserFixture(t)

	_, err := fx.Manager.NewSession(fx.Ctx)
	require.NoError(t, err)

	require.NoError(t, fx.Manager.Shutdown(context.Background()))
	require.NoError(t, fx.Manager.Shutdown(context.Background()))

	_, err = fx.Manager.NewSession(fx.Ctx)
	assert.ErrorIs(t, err, ErrManagerClosed)
}
