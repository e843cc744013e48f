// Package config loads the environment profile a run executes against.
//
// A profile is a dotenv file <env-dir>/<profile>.env. An optional .env in the
// working directory is read first, the profile overrides it, and process
// environment variables override both. Any failure to load or validate is
// returned as an errs.Config error; a run never starts on a partial profile.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/v0xg/pagekit/internal/errs"
	"github.com/v0xg/pagekit/internal/highlight"
	"github.com/v0xg/pagekit/internal/wait"
)

// Environment keys
const (
	KeyAppURL         = "APP_URL"
	KeyBrowser        = "BROWSER"
	KeyBrowserBin     = "BROWSER_BIN"
	KeyHeadless       = "HEADLESS"
	KeyProfileDir     = "PROFILE_DIR"
	KeyViewportWidth  = "VIEWPORT_WIDTH"
	KeyViewportHeight = "VIEWPORT_HEIGHT"
	KeyImplicitWait   = "IMPLICIT_WAIT"
	KeyExplicitWait   = "EXPLICIT_WAIT"
	KeyPollInterval   = "POLL_INTERVAL"
	KeyHighlightStyle = "HIGHLIGHT_STYLE"
	KeyArtifactDir    = "ARTIFACT_DIR"
	KeyRecordGIF      = "RECORD_GIF"
	KeyDataFile       = "DATA_FILE"
	KeyDataSheet      = "DATA_SHEET"
)

var keys = []string{
	KeyAppURL, KeyBrowser, KeyBrowserBin, KeyHeadless, KeyProfileDir,
	KeyViewportWidth, KeyViewportHeight, KeyImplicitWait, KeyExplicitWait,
	KeyPollInterval, KeyHighlightStyle, KeyArtifactDir, KeyRecordGIF,
	KeyDataFile, KeyDataSheet,
}

// Settings is a loaded and validated profile
type Settings struct {
	Profile string

	AppURL     string `validate:"required,url"`
	Browser    string `validate:"oneof=chrome chromium edge"`
	BrowserBin string
	Headless   bool
	ProfileDir string

	ViewportWidth  int `validate:"gte=320,lte=7680"`
	ViewportHeight int `validate:"gte=240,lte=4320"`

	ImplicitWait time.Duration `validate:"gte=0"`
	ExplicitWait time.Duration `validate:"gt=0"`
	PollInterval time.Duration `validate:"gt=0"`

	// HighlightStyle is the debug border. Empty disables highlighting.
	HighlightStyle string

	ArtifactDir string `validate:"required"`
	RecordGIF   bool

	DataFile  string
	DataSheet string `validate:"required_with=DataFile"`
}

// Policy is the default explicit wait of the profile.
func (s *Settings) Policy() wait.Policy {
	return wait.Policy{Timeout: s.ExplicitWait, Interval: s.PollInterval, Condition: wait.Visible}
}

// Options selects what to load
type Options struct {
	EnvDir  string // directory holding <profile>.env; defaults to "env"
	Profile string // defaults to "qa"
	DotEnv  string // optional base file; defaults to ".env"

	// LookupEnv reads the process environment; defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

func defaults() map[string]string {
	return map[string]string{
		KeyBrowser:        "chrome",
		KeyHeadless:       "true",
		KeyViewportWidth:  "1280",
		KeyViewportHeight: "720",
		KeyImplicitWait:   "0s",
		KeyExplicitWait:   wait.DefaultTimeout.String(),
		KeyPollInterval:   wait.DefaultInterval.String(),
		KeyHighlightStyle: highlight.DefaultStyle,
		KeyArtifactDir:    "artifacts",
		KeyRecordGIF:      "false",
		KeyDataSheet:      "LoginData",
	}
}

// Load reads, merges, parses and validates a profile.
func Load(opts Options) (*Settings, error) {
	if opts.EnvDir == "" {
		opts.EnvDir = "env"
	}
	if opts.Profile == "" {
		opts.Profile = "qa"
	}
	if opts.DotEnv == "" {
		opts.DotEnv = ".env"
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	values := defaults()

	base, err := godotenv.Read(opts.DotEnv)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, errs.Wrap(errs.Config, "read "+opts.DotEnv, err)
	default:
		merge(values, base)
	}

	path := filepath.Join(opts.EnvDir, opts.Profile+".env")
	profile, err := godotenv.Read(path)
	if err != nil {
		return nil, errs.Wrap(errs.Config, fmt.Sprintf("load profile %q from %s", opts.Profile, path), err)
	}
	merge(values, profile)

	for _, key := range keys {
		if v, ok := opts.LookupEnv(key); ok {
			values[key] = v
		}
	}

	s, err := parse(values)
	if err != nil {
		return nil, errs.Wrap(errs.Config, fmt.Sprintf("profile %q", opts.Profile), err)
	}
	s.Profile = opts.Profile

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(s); err != nil {
		return nil, errs.Wrap(errs.Config, fmt.Sprintf("profile %q is invalid", opts.Profile), describe(err))
	}
	return s, nil
}

// merge copies only the known keys.
func merge(dst, src map[string]string) {
	for _, key := range keys {
		if v, ok := src[key]; ok {
			dst[key] = v
		}
	}
}

func parse(v map[string]string) (*Settings, error) {
	var err error
	s := &Settings{
		AppURL:         strings.TrimSpace(v[KeyAppURL]),
		Browser:        strings.ToLower(strings.TrimSpace(v[KeyBrowser])),
		BrowserBin:     v[KeyBrowserBin],
		ProfileDir:     v[KeyProfileDir],
		HighlightStyle: strings.TrimSpace(v[KeyHighlightStyle]),
		ArtifactDir:    v[KeyArtifactDir],
		DataFile:       v[KeyDataFile],
		DataSheet:      v[KeyDataSheet],
	}

	s.Headless, err = parseBool(v, KeyHeadless, err)
	s.RecordGIF, err = parseBool(v, KeyRecordGIF, err)
	s.ViewportWidth, err = parseInt(v, KeyViewportWidth, err)
	s.ViewportHeight, err = parseInt(v, KeyViewportHeight, err)
	s.ImplicitWait, err = parseDuration(v, KeyImplicitWait, err)
	s.ExplicitWait, err = parseDuration(v, KeyExplicitWait, err)
	s.PollInterval, err = parseDuration(v, KeyPollInterval, err)

	return s, err
}

func parseBool(v map[string]string, key string, acc error) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v[key]))
	if err != nil {
		return false, multierr.Append(acc, fmt.Errorf("%s: %q is not a boolean", key, v[key]))
	}
	return b, acc
}

func parseInt(v map[string]string, key string, acc error) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v[key]))
	if err != nil {
		return 0, multierr.Append(acc, fmt.Errorf("%s: %q is not an integer", key, v[key]))
	}
	return n, acc
}

// parseDuration accepts Go durations ("1.5s") or whole seconds ("30").
func parseDuration(v map[string]string, key string, acc error) (time.Duration, error) {
	raw := strings.TrimSpace(v[key])
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, acc
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, multierr.Append(acc, fmt.Errorf("%s: %q is not a duration", key, raw))
	}
	return d, acc
}

// describe turns validator errors into one line per field, named by key.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var out error
	for _, fe := range verrs {
		out = multierr.Append(out, fmt.Errorf("%s fails %q (got %v)", fieldKey(fe.Field()), fe.Tag(), fe.Value()))
	}
	return out
}

var fieldKeys = map[string]string{
	"AppURL":         KeyAppURL,
	"Browser":        KeyBrowser,
	"ViewportWidth":  KeyViewportWidth,
	"ViewportHeight": KeyViewportHeight,
	"ImplicitWait":   KeyImplicitWait,
	"ExplicitWait":   KeyExplicitWait,
	"PollInterval":   KeyPollInterval,
	"ArtifactDir":    KeyArtifactDir,
	"DataSheet":      KeyDataSheet,
}

func fieldKey(field string) string {
	if k, ok := fieldKeys[field]; ok {
		return k
	}
	return field
}
