package session

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/config"
	"github.com/v0xg/pagekit/internal/driver"
	"github.com/v0xg/pagekit/internal/driver/drivertest"
	"github.com/v0xg/pagekit/internal/errs"
	"github.com/v0xg/pagekit/internal/pages/pagestest"
)

const appURL = "https://shop.test/signin"

func settings() *config.Settings {
	return &config.Settings{
		AppURL:         appURL,
		ImplicitWait:   5 * time.Millisecond,
		ExplicitWait:   50 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
		HighlightStyle: "3px solid red",
	}
}

func fakeOpener(d *drivertest.Driver) Opener {
	return func(context.Context, *config.Settings, *zap.Logger) (driver.Driver, error) {
		return d, nil
	}
}

func TestOpen_NavigatesAndConfigures(t *testing.T) {
	d := drivertest.New()
	pagestest.Install(d, pagestest.App{URL: appURL, Email: "user@test.com", Password: "secret"})

	s, err := Open(context.Background(), fakeOpener(d), settings(), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 5*time.Millisecond, d.ImplicitWait())
	url, err := d.CurrentURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, appURL, url)
	assert.Equal(t, 50*time.Millisecond, s.Base().Policy().Timeout)
	assert.Same(t, d, s.Driver())
}

func TestOpen_OpenerFailureIsSessionError(t *testing.T) {
	open := func(context.Context, *config.Settings, *zap.Logger) (driver.Driver, error) {
		return nil, errors.New("chrome not reachable")
	}

	_, err := Open(context.Background(), open, settings(), nil)
	require.Error(t, err)
	assert.Equal(t, errs.Session, errs.CodeOf(err))
}

type failingNav struct {
	*drivertest.Driver
}

func (failingNav) Navigate(context.Context, string) error {
	return errs.New(errs.Session, "net::ERR_NAME_NOT_RESOLVED")
}

func TestOpen_NavigationFailureReleasesBrowser(t *testing.T) {
	d := drivertest.New()
	open := func(context.Context, *config.Settings, *zap.Logger) (driver.Driver, error) {
		return failingNav{d}, nil
	}

	_, err := Open(context.Background(), open, settings(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, d.Quits())
}

func TestClose_Once(t *testing.T) {
	d := drivertest.New()
	s, err := Open(context.Background(), fakeOpener(d), settings(), nil)
	require.NoError(t, err)

	var order []string
	s.OnClose(func() error { order = append(order, "first"); return nil })
	s.OnClose(func() error { order = append(order, "second"); return errors.New("gif failed") })

	err = s.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gif failed")

	assert.Equal(t, err, s.Close())
	assert.Equal(t, []string{"second", "first"}, order)
	assert.Equal(t, 1, d.Quits())
}

func TestRun_TeardownExactlyOnce(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, *Session) error
	}{
		{"success", func(context.Context, *Session) error { return nil }},
		{"step error", func(context.Context, *Session) error { return errors.New("assertion failed") }},
		{"closes inside", func(_ context.Context, s *Session) error { return s.Close() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := drivertest.New()
			_ = Run(context.Background(), fakeOpener(d), settings(), nil, tt.fn)
			assert.Equal(t, 1, d.Quits())
		})
	}
}

func TestRun_PanicStillTearsDown(t *testing.T) {
	d := drivertest.New()

	assert.PanicsWithValue(t, "boom", func() {
		_ = Run(context.Background(), fakeOpener(d), settings(), nil, func(context.Context, *Session) error {
			panic("boom")
		})
	})
	assert.Equal(t, 1, d.Quits())
}

func TestRun_GoexitStillTearsDown(t *testing.T) {
	d := drivertest.New()

	// t.FailNow in a scenario exits through runtime.Goexit
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Run(context.Background(), fakeOpener(d), settings(), nil, func(context.Context, *Session) error {
			runtime.Goexit()
			return nil
		})
	}()
	<-done
	assert.Equal(t, 1, d.Quits())
}

func TestRun_LoginFlow(t *testing.T) {
	d := drivertest.New()
	pagestest.Install(d, pagestest.App{URL: appURL, Email: "user@test.com", Password: "secret"})

	err := Run(context.Background(), fakeOpener(d), settings(), nil, func(ctx context.Context, s *Session) error {
		home, err := s.Login().SignIn(ctx, "user@test.com", "secret")
		if err != nil {
			return err
		}
		return home.AssertTitle(ctx, pagestest.HomeTitle)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Quits())
}
