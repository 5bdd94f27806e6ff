// internal/browser/session.go
package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridcheck/internal/config"
	"github.com/xkilldash9x/gridcheck/internal/grid"
)

// Session is a single browser tab. It implements grid.Page once Navigate has
// loaded a document.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *zap.Logger

	monitor *activityMonitor
	onClose func()

	closeOnce sync.Once
	closeErr  error
}

var _ grid.Page = (*Session)(nil)

func newSession(id string, tabCtx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) *Session {
	return &Session{
		id:      id,
		ctx:     tabCtx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger.Named("session"),
		monitor: newActivityMonitor(logger),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// initialize creates the tab and turns on the event domains the monitor needs.
func (s *Session) initialize(ctx context.Context) error {
	if err := startTarget(ctx, s.ctx); err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	s.monitor.listen(s.ctx)

	if err := s.runActions(ctx, network.Enable(), runtime.Enable()); err != nil {
		return fmt.Errorf("failed to enable tab events: %w", err)
	}
	return nil
}

// runActions executes chromedp actions on the tab, bounded by ctx.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// evaluate runs a script and decodes its return value into res.
func (s *Session) evaluate(ctx context.Context, script string, res interface{}) error {
	return s.runActions(ctx, chromedp.Evaluate(script, res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true)
	}))
}

// Navigate loads url and waits until the network has been idle for the
// configured quiet period. The whole load, including the idle wait, is
// bounded by the navigation timeout. An idle wait that runs out of time is
// logged and tolerated; pages with long-lived connections never go quiet.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.Network.NavigationTimeout)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(s.cfg.Browser.Viewport.Width), int64(s.cfg.Browser.Viewport.Height)),
	}
	if headers := requestHeaders(s.cfg.Network); len(headers) > 0 {
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions, chromedp.Navigate(url))

	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.runActions(navCtx, actions...); err != nil {
		if navCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Errorf("navigation to %s timed out after %s: %w", url, s.cfg.Network.NavigationTimeout, err)
		}
		return fmt.Errorf("failed to load %s: %w", url, err)
	}

	if err := s.monitor.WaitIdle(navCtx, s.cfg.Network.PostLoadWait); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("Network did not go idle before the navigation timeout; measuring anyway.")
	}

	// Web fonts move baselines when they swap in.
	var ready bool
	if err := s.evaluate(navCtx, `document.fonts ? document.fonts.ready.then(function() { return true; }) : true`, &ready); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("Could not wait for web fonts.", zap.Error(err))
	}
	return nil
}

// requestHeaders merges configured headers with basic auth credentials.
func requestHeaders(cfg config.NetworkConfig) network.Headers {
	headers := network.Headers{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Auth.Username != "" {
		token := base64.StdEncoding.EncodeToString([]byte(cfg.Auth.Username + ":" + cfg.Auth.Password))
		headers["Authorization"] = "Basic " + token
	}
	return headers
}

func (s *Session) RootProperty(ctx context.Context, name string) (string, error) {
	script, err := buildScript(rootPropertyScript, name)
	if err != nil {
		return "", err
	}
	var value string
	if err := s.evaluate(ctx, script, &value); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return value, nil
}

func (s *Session) ResolveLength(ctx context.Context, length string) (float64, error) {
	script, err := buildScript(lengthProbeScript, length)
	if err != nil {
		return 0, err
	}
	var px float64
	if err := s.evaluate(ctx, script, &px); err != nil {
		return 0, fmt.Errorf("failed to resolve length %q: %w", length, err)
	}
	return px, nil
}

func (s *Session) QueryAll(ctx context.Context, selector string) ([]grid.Element, error) {
	script, err := buildScript(queryAllScript, selector)
	if err != nil {
		return nil, err
	}
	var infos []elementInfo
	if err := s.evaluate(ctx, script, &infos); err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}

	elements := make([]grid.Element, len(infos))
	for i, info := range infos {
		elements[i] = grid.Element{
			Selector: selector,
			Index:    info.Index,
			Tag:      info.Tag,
			Text:     info.Text,
			Width:    info.Width,
			Height:   info.Height,
		}
	}
	return elements, nil
}

func (s *Session) QueryFirst(ctx context.Context, selector string) (grid.Element, bool, error) {
	elements, err := s.QueryAll(ctx, selector)
	if err != nil || len(elements) == 0 {
		return grid.Element{}, false, err
	}
	return elements[0], true, nil
}

func (s *Session) Baseline(ctx context.Context, el grid.Element) (float64, error) {
	script, err := buildScript(baselineProbeScript, el.Selector, el.Index)
	if err != nil {
		return 0, err
	}
	var y *float64
	if err := s.evaluate(ctx, script, &y); err != nil {
		return 0, fmt.Errorf("failed to probe baseline of %s #%d: %w", el.Tag, el.Index, err)
	}
	if y == nil {
		return 0, fmt.Errorf("element %d of %q left the document before it was measured", el.Index, el.Selector)
	}
	return *y, nil
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.closeErr = fmt.Errorf("failed to close session %s: %w", s.id, err)
			}
		case <-ctx.Done():
			s.closeErr = fmt.Errorf("timed out closing session %s: %w", s.id, ctx.Err())
		}
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}
