// internal/browser/idle.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// activityMonitor follows network traffic on a tab so navigation can wait for
// the page to go quiet. Console output and uncaught exceptions from the page
// are forwarded to the logger.
type activityMonitor struct {
	logger *zap.Logger

	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
	now          func() time.Time
}

func newActivityMonitor(logger *zap.Logger) *activityMonitor {
	return &activityMonitor{
		logger:       logger.Named("activity"),
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
		now:          time.Now,
	}
}

// listen subscribes to tab events until tabCtx ends.
func (m *activityMonitor) listen(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, m.handle)
}

func (m *activityMonitor) handle(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		// A redirect reuses the request id, so the request simply stays in flight.
		m.touch(func() { m.inflight[e.RequestID] = struct{}{} })
	case *network.EventLoadingFinished:
		m.touch(func() { delete(m.inflight, e.RequestID) })
	case *network.EventLoadingFailed:
		m.touch(func() { delete(m.inflight, e.RequestID) })
		if !e.Canceled {
			m.logger.Debug("Request failed.", zap.String("request_id", string(e.RequestID)), zap.String("error", e.ErrorText))
		}
	case *runtime.EventConsoleAPICalled:
		m.logger.Debug("Page console.", zap.String("type", string(e.Type)), zap.String("text", consoleText(e.Args)))
	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails == nil {
			return
		}
		text := e.ExceptionDetails.Text
		if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
			text = e.ExceptionDetails.Exception.Description
		}
		m.logger.Warn("Uncaught exception in page.", zap.String("text", text))
	}
}

func (m *activityMonitor) touch(update func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	update()
	m.lastActivity = m.now()
}

// pending returns the number of requests in flight and the time of the last
// network event.
func (m *activityMonitor) pending() (int, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight), m.lastActivity
}

// WaitIdle blocks until no request has been in flight for quiet, or ctx ends.
// A non-positive quiet returns immediately.
func (m *activityMonitor) WaitIdle(ctx context.Context, quiet time.Duration) error {
	if quiet <= 0 {
		return nil
	}
	ticker := time.NewTicker(quiet / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			count, _ := m.pending()
			m.logger.Debug("Gave up waiting for network idle.", zap.Int("inflight_requests", count), zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			count, last := m.pending()
			if count > 0 {
				m.logger.Debug("Waiting for network idle...", zap.Int("inflight_requests", count))
				continue
			}
			if m.now().Sub(last) >= quiet {
				return nil
			}
		}
	}
}

func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case arg.Value != nil:
			parts = append(parts, strings.Trim(string(arg.Value), `"`))
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, fmt.Sprintf("[%s]", arg.Type))
		}
	}
	return strings.Join(parts, " ")
}
