// internal/browser/allocator.go
package browser

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/gridcheck/internal/config"
)

// launchFlag is a single Chrome command line switch. Value is a bool for
// plain switches and a string for key=value switches.
type launchFlag struct {
	Name  string
	Value interface{}
}

// DefaultAllocatorOptions assembles the exec allocator options for a browser
// configured by cfg. chromedp's defaults are the starting point and later
// flags override earlier ones.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+16)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)

	for _, f := range launchFlags(cfg, runtime.GOOS) {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// launchFlags computes the switches layered on top of chromedp's defaults.
func launchFlags(cfg config.BrowserConfig, goos string) []launchFlag {
	var flags []launchFlag
	add := func(name string, value interface{}) {
		flags = append(flags, launchFlag{Name: name, Value: value})
	}

	// chromedp's defaults already run headless.
	if !cfg.Headless {
		add("headless", false)
	}
	if cfg.DisableGPU {
		add("disable-gpu", true)
	}
	if cfg.IgnoreTLSErrors {
		add("ignore-certificate-errors", true)
		add("allow-insecure-localhost", true)
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		add("window-size", fmt.Sprintf("%d,%d", cfg.Viewport.Width, cfg.Viewport.Height))
	}

	// A cached stylesheet must never decide a measurement.
	add("disable-cache", true)
	add("disk-cache-size", "0")
	// Scrollbars change the layout width between headless and headed runs.
	add("hide-scrollbars", true)
	add("font-render-hinting", "none")

	// Containers on Linux usually lack a usable sandbox and a large /dev/shm.
	if goos == "linux" {
		add("no-sandbox", true)
		add("disable-dev-shm-usage", true)
	}

	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if key == "" {
			continue
		}
		if found {
			add(key, value)
		} else {
			add(key, true)
		}
	}
	return flags
}
