package bdd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/artifact"
	"github.com/v0xg/pagekit/internal/config"
	"github.com/v0xg/pagekit/internal/dataset"
	"github.com/v0xg/pagekit/internal/driver"
	"github.com/v0xg/pagekit/internal/driver/drivertest"
	"github.com/v0xg/pagekit/internal/pages/pagestest"
)

const appURL = "https://shop.test/signin"

type browsers struct {
	mu      sync.Mutex
	drivers []*drivertest.Driver
}

func (b *browsers) open(context.Context, *config.Settings, *zap.Logger) (driver.Driver, error) {
	d := drivertest.New()
	pagestest.Install(d, pagestest.App{URL: appURL, Email: "user@test.com", Password: "secret"})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.drivers = append(b.drivers, d)
	return d, nil
}

func (b *browsers) quits() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, len(b.drivers))
	for i, d := range b.drivers {
		out[i] = d.Quits()
	}
	return out
}

func newRunner(t *testing.T, b *browsers) *Runner {
	t.Helper()
	store, err := artifact.Open(t.TempDir(), nil)
	require.NoError(t, err)

	return &Runner{
		Settings: &config.Settings{
			AppURL:         appURL,
			ExplicitWait:   100 * time.Millisecond,
			PollInterval:   5 * time.Millisecond,
			HighlightStyle: "3px solid red",
			RecordGIF:      true,
		},
		Open:  b.open,
		Store: store,
		Data:  dataset.Record{"email": "user@test.com", "password": "secret", "searchTerm": "go programming"},
	}
}

func glob(t *testing.T, dir, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	return matches
}

func TestFeatures_LoginScenarios(t *testing.T) {
	b := &browsers{}
	r := newRunner(t, b)

	suite := r.Suite("login", SuiteOptions{
		Paths:  []string{"testdata/login.feature"},
		Format: "progress",
		Output: io.Discard,
	})
	suite.Options.TestingT = t
	assert.Zero(t, suite.Run())

	assert.Equal(t, []int{1, 1, 1}, b.quits(), "each scenario owns one session, closed once")

	dir := r.Store.Dir()
	assert.Len(t, glob(t, dir, "Validlogin_step*.png"), 7)
	assert.Len(t, glob(t, dir, "Invalidpassword_step*.png"), 7)
	assert.Len(t, glob(t, dir, "Searchfromtestdata_step*.png"), 3)
	assert.Empty(t, glob(t, dir, "*failed.png"))
	assert.Len(t, glob(t, dir, "*.gif"), 3)

	assert.FileExists(t, filepath.Join(dir, "Validlogin_step01_Validlogin.png"))
	assert.Empty(t, glob(t, dir, "* *"), "artifact names carry no spaces")
}

func TestFeatures_StepByStepLoginReachesHome(t *testing.T) {
	b := &browsers{}
	r := newRunner(t, b)

	var out bytes.Buffer
	status := r.Run("valid-login", SuiteOptions{
		Paths:  []string{"testdata/login.feature:4"},
		Format: "progress",
		Output: &out,
	})
	assert.Zero(t, status, out.String())
	assert.NotContains(t, out.String(), "not signed in")
	assert.Len(t, glob(t, r.Store.Dir(), "Validlogin_step*.png"), 7)
}

func TestFeatures_TagFilter(t *testing.T) {
	b := &browsers{}
	r := newRunner(t, b)

	suite := r.Suite("search", SuiteOptions{
		Paths:  []string{"testdata/login.feature"},
		Tags:   "@search",
		Format: "progress",
		Output: io.Discard,
	})
	suite.Options.TestingT = t
	assert.Zero(t, suite.Run())
	assert.Equal(t, []int{1}, b.quits())
}

func TestFeatures_FailureCapturesExtraArtifact(t *testing.T) {
	b := &browsers{}
	r := newRunner(t, b)

	status := r.Run("failing", SuiteOptions{
		Paths:  []string{"testdata/failing.feature"},
		Format: "progress",
		Output: io.Discard,
	})
	assert.NotZero(t, status)
	assert.Equal(t, []int{1}, b.quits(), "a failed scenario is still torn down once")

	dir := r.Store.Dir()
	assert.Len(t, glob(t, dir, "Wronglandingpage_step01_*.png"), 1)
	assert.Len(t, glob(t, dir, "Wronglandingpage_step02_*.png"), 2)
	assert.Len(t, glob(t, dir, "Wronglandingpage_step02_Wronglandingpagefailed.png"), 1)
	assert.FileExists(t, filepath.Join(dir, "Wronglandingpage.gif"))
}

func TestFeatures_StepErrorReportedOnce(t *testing.T) {
	b := &browsers{}
	r := newRunner(t, b)

	var out bytes.Buffer
	status := r.Run("failing", SuiteOptions{
		Paths:  []string{"testdata/failing.feature"},
		Format: "progress",
		Output: &out,
	})
	require.NotZero(t, status)

	report := out.String()
	assert.NotContains(t, report, "after scenario hook failed")
	assert.NotContains(t, report, "step error:")
	assert.Contains(t, report, "Somewhere else")
}

func TestFeatures_MissingDataFailsScenario(t *testing.T) {
	b := &browsers{}
	r := newRunner(t, b)
	r.Data = nil

	status := r.Run("no-data", SuiteOptions{
		Paths:  []string{"testdata/login.feature"},
		Tags:   "@search",
		Format: "progress",
		Output: io.Discard,
	})
	assert.NotZero(t, status)
	assert.Equal(t, []int{1}, b.quits())
}
