// Package session scopes one browser session to one scenario. Open creates
// it and navigates to the application; Close releases it exactly once no
// matter how often, or from where, it is called.
package session

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/config"
	"github.com/v0xg/pagekit/internal/driver"
	"github.com/v0xg/pagekit/internal/errs"
	"github.com/v0xg/pagekit/internal/page"
	"github.com/v0xg/pagekit/internal/pages"
)

// Opener starts a browser for the given settings.
type Opener func(ctx context.Context, s *config.Settings, log *zap.Logger) (driver.Driver, error)

// Session is one browser plus the page capability set bound to it
type Session struct {
	drv      driver.Driver
	base     *page.Base
	settings *config.Settings
	log      *zap.Logger

	mu      sync.Mutex
	cleanup []func() error

	closeOnce sync.Once
	closeErr  error
}

// Open starts a browser with open and loads settings.AppURL. The browser is
// released again when loading fails.
func Open(ctx context.Context, open Opener, settings *config.Settings, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}

	drv, err := open(ctx, settings, log)
	if err != nil {
		if errs.CodeOf(err) == errs.Internal {
			err = errs.Wrap(errs.Session, "start browser", err)
		}
		return nil, err
	}
	drv.SetImplicitWait(settings.ImplicitWait)

	s := &Session{
		drv: drv,
		base: page.New(drv,
			page.WithLogger(log),
			page.WithPolicy(settings.Policy()),
			page.WithHighlight(settings.HighlightStyle)),
		settings: settings,
		log:      log,
	}

	if err := drv.Navigate(ctx, settings.AppURL); err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	log.Debug("Session open", zap.String("url", settings.AppURL))
	return s, nil
}

func (s *Session) Driver() driver.Driver      { return s.drv }
func (s *Session) Base() *page.Base           { return s.base }
func (s *Session) Settings() *config.Settings { return s.settings }

// Login returns the sign-in page of this session.
func (s *Session) Login() *pages.LoginPage {
	return pages.NewLoginPage(s.base)
}

// OnClose registers fn to run before the browser quits. Functions run in
// reverse registration order.
func (s *Session) OnClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanup = append(s.cleanup, fn)
}

// Close runs the registered cleanups and quits the browser. Only the first
// call does anything; later calls return its result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		cleanup := s.cleanup
		s.cleanup = nil
		s.mu.Unlock()

		for i := len(cleanup) - 1; i >= 0; i-- {
			s.closeErr = multierr.Append(s.closeErr, cleanup[i]())
		}
		if err := s.drv.Quit(); err != nil {
			s.closeErr = multierr.Append(s.closeErr, errs.Wrap(errs.Session, "quit browser", err))
		}
		if s.closeErr != nil {
			s.log.Warn("Session closed with errors", zap.Error(s.closeErr))
			return
		}
		s.log.Debug("Session closed")
	})
	return s.closeErr
}

// Run opens a session, calls fn and closes the session on every exit path,
// including panics and runtime.Goexit. Close errors are added to fn's error.
func Run(ctx context.Context, open Opener, settings *config.Settings, log *zap.Logger, fn func(context.Context, *Session) error) (err error) {
	s, err := Open(ctx, open, settings, log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()
	return fn(ctx, s)
}
