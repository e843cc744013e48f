package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/config"
	"github.com/v0xg/pagekit/internal/driver"
	"github.com/v0xg/pagekit/internal/driver/rodriver"
)

// Chromium opens a rod-driven browser. chrome, chromium and edge are all
// driven over CDP; BROWSER_BIN picks the executable.
func Chromium(_ context.Context, s *config.Settings, log *zap.Logger) (driver.Driver, error) {
	log.Debug("Launching browser", zap.String("browser", s.Browser), zap.String("bin", s.BrowserBin))
	d, err := rodriver.Launch(rodriver.Options{
		Bin:        s.BrowserBin,
		Headless:   s.Headless,
		Width:      s.ViewportWidth,
		Height:     s.ViewportHeight,
		ProfileDir: s.ProfileDir,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
