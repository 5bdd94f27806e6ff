// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridcheck/internal/config"
)

const (
	browserLaunchTimeout = 30 * time.Second
	shutdownGracePeriod  = 10 * time.Second
)

// ErrManagerClosed is returned when a session is requested after Shutdown.
var ErrManagerClosed = errors.New("browser manager is shut down")

// Manager owns one Chrome process and the tabs opened in it.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager launches Chrome. The browser process does not inherit ctx, so a
// canceled run can still shut it down cleanly; ctx only bounds the launch.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}

	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), DefaultAllocatorOptions(cfg.Browser)...)
	m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Debugf),
	)

	launchCtx, cancel := context.WithTimeout(ctx, browserLaunchTimeout)
	defer cancel()

	if err := startTarget(launchCtx, m.browserCtx); err != nil {
		m.browserCancel()
		m.allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	m.logger.Debug("Browser launched.", zap.Bool("headless", cfg.Browser.Headless))
	return m, nil
}

// NewSession opens a new tab.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	m.mu.Unlock()

	id := uuid.NewString()
	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	s := newSession(id, tabCtx, tabCancel, m.cfg, m.logger.With(zap.String("session_id", id)))
	s.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	}

	if err := s.initialize(ctx); err != nil {
		tabCancel()
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s, nil
}

// Shutdown closes every open tab and then the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	cleanupCtx, cancel := context.WithTimeout(Detach(ctx), shutdownGracePeriod)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(m.browserCtx) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	case <-cleanupCtx.Done():
		m.logger.Warn("Browser did not close within the grace period; killing it.")
	}
	m.browserCancel()
	m.allocCancel()

	m.logger.Debug("Browser manager shut down.")
	return errors.Join(errs...)
}

// startTarget runs an empty action list on target, which starts the browser
// or opens the tab. The first Run on a chromedp context ties the process or
// tab to the context it is given, so it must receive target itself; ctx only
// bounds how long the caller waits.
func startTarget(ctx, target context.Context) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(target) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
