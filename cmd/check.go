package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridcheck/internal/browser"
	"github.com/xkilldash9x/gridcheck/internal/config"
	"github.com/xkilldash9x/gridcheck/internal/grid"
	"github.com/xkilldash9x/gridcheck/internal/observability"
	"github.com/xkilldash9x/gridcheck/internal/reporting"
)

// ErrGridViolations is returned when the run completed but at least one
// element is outside the tolerance.
var ErrGridViolations = errors.New("elements are off the baseline grid")

const releaseTimeout = 10 * time.Second

// pageSession is a loaded browser tab as seen by the check command.
type pageSession interface {
	grid.Page
	Navigate(ctx context.Context, url string) error
	CaptureGridOverlay(ctx context.Context, size, originY float64, color, path string) error
}

// sessionOpener starts a browser and opens a tab. The returned release func
// closes both and must always be called.
type sessionOpener func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (pageSession, func(), error)

// openSession is swapped out in tests.
var openSession sessionOpener = openBrowserSession

func openBrowserSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (pageSession, func(), error) {
	manager, err := browser.NewManager(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}
	shutdown := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := manager.Shutdown(releaseCtx); err != nil {
			logger.Warn("Browser shutdown reported errors.", zap.Error(err))
		}
	}

	session, err := manager.NewSession(ctx)
	if err != nil {
		shutdown()
		return nil, func() {}, err
	}
	return session, shutdown, nil
}

// checkFlagBindings maps flag names to config keys.
var checkFlagBindings = map[string]string{
	"selectors":     "grid.selectors",
	"origin":        "grid.origin",
	"grid":          "grid.size",
	"grid-property": "grid.property",
	"tolerance":     "grid.tolerance",
	"format":        "output.format",
	"output":        "output.path",
	"screenshot":    "output.screenshot",
	"overlay-color": "output.overlay_color",
	"color":         "output.color",
	"width":         "browser.viewport.width",
	"height":        "browser.viewport.height",
	"headless":      "browser.headless",
	"timeout":       "network.navigation_timeout",
	"wait":          "network.post_load_wait",
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	defaults := config.NewDefaultConfig()

	checkCmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Measure how well the text of a page aligns to its baseline grid",
		Example: `  gridcheck check https://example.com
  gridcheck check https://example.com --grid 24 --tolerance 0.5
  gridcheck check http://localhost:8080 -s "article p, article h2" --origin ".masthead" -f json
  gridcheck check https://example.com --screenshot grid.png`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for flag, key := range checkFlagBindings {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return applyRequestFlags(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), v, args[0])
		},
	}

	f := checkCmd.Flags()
	f.StringP("selectors", "s", defaults.Grid.Selectors, "comma-separated CSS selectors of the elements to measure")
	f.String("origin", "", "CSS selector of the element whose baseline is grid line zero (default: first measured element)")
	f.Float64("grid", 0, "grid size in pixels (default: read from the page's custom property)")
	f.String("grid-property", defaults.Grid.Property, "custom property on :root that holds the grid size")
	f.Float64P("tolerance", "t", defaults.Grid.Tolerance, "maximum allowed distance from a grid line, in pixels")
	f.StringP("format", "f", defaults.Output.Format, "report format: table or json")
	f.StringP("output", "o", "", "write the report to a file instead of stdout")
	f.String("screenshot", "", "save a full-page screenshot with the grid drawn over it (.png, .jpg)")
	f.String("overlay-color", defaults.Output.OverlayColor, "CSS color of the screenshot grid lines")
	f.String("color", defaults.Output.Color, "colorize the table: auto, always or never")
	f.Int("width", defaults.Browser.Viewport.Width, "viewport width in CSS pixels")
	f.Int("height", defaults.Browser.Viewport.Height, "viewport height in CSS pixels")
	f.Bool("headless", defaults.Browser.Headless, "run Chrome without a window")
	f.Duration("timeout", defaults.Network.NavigationTimeout, "maximum time to load the page")
	f.Duration("wait", defaults.Network.PostLoadWait, "network quiet period required before measuring")
	f.String("auth", "", "HTTP basic auth credentials as user:password")
	f.StringArrayP("header", "H", nil, "extra request header as Name=Value (repeatable)")

	return checkCmd
}

// applyRequestFlags handles the flags that do not map one-to-one onto a key.
func applyRequestFlags(cmd *cobra.Command, v *viper.Viper) error {
	if f := cmd.Flags().Lookup("auth"); f != nil && f.Changed {
		user, pass, found := strings.Cut(f.Value.String(), ":")
		if !found || user == "" {
			return fmt.Errorf("--auth must be user:password")
		}
		v.Set("network.auth.username", user)
		v.Set("network.auth.password", pass)
	}

	raw, err := cmd.Flags().GetStringArray("header")
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	headers := v.GetStringMapString("network.headers")
	if headers == nil {
		headers = map[string]string{}
	}
	for _, h := range raw {
		name, value, found := strings.Cut(h, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return fmt.Errorf("invalid --header %q: want Name=Value", h)
		}
		// Header names are case-insensitive; viper lower-cases the ones from files.
		headers[strings.ToLower(name)] = strings.TrimSpace(value)
	}
	v.Set("network.headers", headers)
	return nil
}

// runCheck drives one measurement and renders its outcome. Every failure after
// the reporter exists is written to the report as well as returned.
func runCheck(ctx context.Context, stdout io.Writer, v *viper.Viper, rawURL string) error {
	logger := observability.GetLogger().With(zap.String("run_id", uuid.NewString()))

	cfg, cfgErr := config.NewConfigFromViper(v)
	reporter, err := newReporter(cfg, v, stdout)
	if err != nil {
		if cfgErr != nil {
			return cfgErr
		}
		return err
	}
	defer func() {
		if err := reporter.Close(); err != nil {
			logger.Warn("Failed to close report output.", zap.Error(err))
		}
	}()

	fail := func(err error) error {
		if werr := reporter.WriteError(err); werr != nil {
			logger.Error("Failed to write error report.", zap.Error(werr))
			return err
		}
		return &reportedError{err: err}
	}
	if cfgErr != nil {
		return fail(cfgErr)
	}

	target, err := normalizeURL(rawURL)
	if err != nil {
		return fail(err)
	}

	opts := grid.Options{
		Selectors:      cfg.Grid.Selectors,
		OriginSelector: cfg.Grid.Origin,
		ExplicitGrid:   cfg.Grid.Size,
		GridProperty:   cfg.Grid.Property,
		Tolerance:      cfg.Grid.Tolerance,
	}
	lintSelectors(opts, logger)

	logger.Info("Checking page.",
		zap.String("url", target),
		zap.String("selectors", opts.Selectors),
		zap.Float64("tolerance", opts.Tolerance),
	)

	session, release, err := openSession(ctx, cfg, logger)
	defer release()
	if err != nil {
		return fail(fmt.Errorf("failed to start browser: %w", err))
	}

	if err := session.Navigate(ctx, target); err != nil {
		return fail(err)
	}

	report, err := grid.Measure(ctx, session, opts, logger)
	if err != nil {
		if grid.IsFatal(err) {
			logger.Warn("Measurement aborted.", zap.Error(err))
		} else {
			logger.Error("Measurement failed.", zap.Error(err))
		}
		return fail(err)
	}

	var shotErr error
	if cfg.Output.Screenshot != "" {
		shotErr = session.CaptureGridOverlay(ctx, report.Grid.Pixels, report.Origin.BaselineY, cfg.Output.OverlayColor, cfg.Output.Screenshot)
		if shotErr != nil {
			logger.Error("Screenshot failed.", zap.Error(shotErr))
		}
	}

	if err := reporter.WriteReport(report); err != nil {
		return err
	}
	logger.Info("Check complete.", zap.Int("passed", report.Passed()), zap.Int("failed", report.Failed()))

	if shotErr != nil {
		return fmt.Errorf("screenshot: %w", shotErr)
	}
	if !report.OK() {
		return ErrGridViolations
	}
	return nil
}

// newReporter builds the reporter for cfg. When the config itself is invalid
// the format and destination are taken from v so that the error can still be
// reported in the requested shape.
func newReporter(cfg *config.Config, v *viper.Viper, stdout io.Writer) (reporting.Reporter, error) {
	format, path, color := v.GetString("output.format"), v.GetString("output.path"), v.GetString("output.color")
	if cfg != nil {
		format, path, color = cfg.Output.Format, cfg.Output.Path, cfg.Output.Color
	}
	if format != config.FormatJSON {
		format = config.FormatTable
	}
	if path == "" || path == "stdout" {
		return reporting.NewWriter(format, stdout, reporting.ColorEnabled(color, stdout))
	}
	return reporting.New(format, path, color)
}

// normalizeURL adds https:// to bare hosts and rejects anything a browser
// cannot load.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("a URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return "", fmt.Errorf("invalid URL %q: missing host", raw)
		}
	case "file":
	default:
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// lintSelectors warns about selectors that do not parse. The browser has the
// final say since it supports syntax a static parser may not.
func lintSelectors(opts grid.Options, logger *zap.Logger) {
	selectors := grid.ParseSelectors(opts.Selectors)
	if opts.OriginSelector != "" {
		selectors = append(selectors, opts.OriginSelector)
	}
	for _, sel := range selectors {
		if _, err := cascadia.ParseGroup(sel); err != nil {
			logger.Warn("Selector may be invalid.", zap.String("selector", sel), zap.Error(err))
		}
	}
}
