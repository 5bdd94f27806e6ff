// internal/browser/allocator_test.go
package browser

import (
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/gridcheck/internal/config"
)

// flagValue finds the last value set for name; later flags win in chromedp too.
func flagValue(flags []launchFlag, name string) (interface{}, bool) {
	var (
		v     interface{}
		found bool
	)
	for _, f := range flags {
		if f.Name == name {
			v, found = f.Value, true
		}
	}
	return v, found
}

func TestLaunchFlags(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		flags := launchFlags(config.BrowserConfig{Headless: true}, "darwin")
		_, found := flagValue(flags, "headless")
		assert.False(t, found, "headless comes from chromedp's defaults")
		v, _ := flagValue(flags, "disable-cache")
		assert.Equal(t, true, v)
		_, found = flagValue(flags, "no-sandbox")
		assert.False(t, found)
	})

	t.Run("HeadlessDisabled", func(t *testing.T) {
		v, found := flagValue(launchFlags(config.BrowserConfig{Headless: false}, "darwin"), "headless")
		assert.True(t, found)
		assert.Equal(t, false, v)
	})

	t.Run("IgnoreTLSErrors", func(t *testing.T) {
		flags := launchFlags(config.BrowserConfig{Headless: true, IgnoreTLSErrors: true}, "darwin")
		_, found := flagValue(flags, "ignore-certificate-errors")
		assert.True(t, found)
		_, found = flagValue(flags, "allow-insecure-localhost")
		assert.True(t, found)
	})

	t.Run("WithViewport", func(t *testing.T) {
		cfg := config.BrowserConfig{Headless: true, Viewport: config.ViewportConfig{Width: 1920, Height: 1080}}
		v, found := flagValue(launchFlags(cfg, "darwin"), "window-size")
		assert.True(t, found)
		assert.Equal(t, "1920,1080", v)
	})

	t.Run("Linux adds container flags", func(t *testing.T) {
		flags := launchFlags(config.BrowserConfig{Headless: true}, "linux")
		_, found := flagValue(flags, "no-sandbox")
		assert.True(t, found)
		_, found = flagValue(flags, "disable-dev-shm-usage")
		assert.True(t, found)
	})

	t.Run("WithCustomArgs", func(t *testing.T) {
		cfg := config.BrowserConfig{
			Headless: true,
			Args:     []string{"--custom-arg1", "lang=de-DE", "--", "--disk-cache-size=1024"},
		}
		flags := launchFlags(cfg, "darwin")

		v, _ := flagValue(flags, "custom-arg1")
		assert.Equal(t, true, v)
		v, _ = flagValue(flags, "lang")
		assert.Equal(t, "de-DE", v)
		v, _ = flagValue(flags, "disk-cache-size")
		assert.Equal(t, "1024", v, "user args override built-in flags")
		_, found := flagValue(flags, "")
		assert.False(t, found)
	})
}

func TestDefaultAllocatorOptions(t *testing.T) {
	cfg := config.BrowserConfig{Headless: true, ExecPath: "/usr/bin/chromium"}
	opts := DefaultAllocatorOptions(cfg)
	flags := launchFlags(cfg, "linux")

	assert.GreaterOrEqual(t, len(opts), len(chromedp.DefaultExecAllocatorOptions)+1)
	assert.LessOrEqual(t, len(opts), len(chromedp.DefaultExecAllocatorOptions)+len(flags)+1)
}
