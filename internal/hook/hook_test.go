package hook

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/v0xg/pagekit/internal/driver/drivertest"
)

type attachment struct {
	mediaType string
	name      string
	size      int
}

type fakeScenario struct {
	name     string
	failed   bool
	attached []attachment
}

func (s *fakeScenario) Name() string   { return s.name }
func (s *fakeScenario) IsFailed() bool { return s.failed }
func (s *fakeScenario) Attach(data []byte, mediaType, name string) {
	s.attached = append(s.attached, attachment{mediaType: mediaType, name: name, size: len(data)})
}

type frameLog struct {
	mu     sync.Mutex
	failed []bool
	err    error
}

func (f *frameLog) AddFrame(_ []byte, failed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, failed)
	return f.err
}

func testAfterStep_ArtifactCount(t *rapid.T) {
	name := rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,30}`).Draw(t, "scenario")
	failed := rapid.Bool().Draw(t, "failed")

	d := drivertest.New()
	h := New(d, nil)
	sc := &fakeScenario{name: name, failed: failed}

	h.BeforeStep()
	h.AfterStep(context.Background(), sc)

	want := 1
	if failed {
		want = 2
	}
	if len(sc.attached) != want {
		t.Fatalf("attached %d artifacts, want %d", len(sc.attached), want)
	}
	if d.Screenshots() != want {
		t.Fatalf("took %d screenshots, want %d", d.Screenshots(), want)
	}
	if sc.attached[0].name != name {
		t.Fatalf("first artifact named %q, want %q", sc.attached[0].name, name)
	}
	if failed {
		second := sc.attached[1].name
		if !strings.HasSuffix(second, FailedSuffix) {
			t.Fatalf("failure artifact %q lacks suffix", second)
		}
		if strings.Contains(second, " ") {
			t.Fatalf("failure artifact %q contains a space", second)
		}
	}
	for _, a := range sc.attached {
		if a.mediaType != MediaPNG || a.size == 0 {
			t.Fatalf("bad attachment %+v", a)
		}
	}
}

func TestAfterStep_ArtifactCount(t *testing.T) {
	rapid.Check(t, testAfterStep_ArtifactCount)
}

func TestFailureName(t *testing.T) {
	assert.Equal(t, "Loginwithinvalidpasswordfailed.png", FailureName("Login with invalid password"))
	assert.Equal(t, "failed.png", FailureName(""))
}

func TestStateTransitions(t *testing.T) {
	h := New(drivertest.New(), nil)
	assert.Equal(t, StepCompleted, h.State())

	h.BeforeStep()
	assert.Equal(t, StepStarted, h.State())
	assert.Equal(t, "step_started", h.State().String())

	h.AfterStep(context.Background(), &fakeScenario{name: "s"})
	assert.Equal(t, StepCompleted, h.State())
}

func TestAfterStep_CaptureErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := drivertest.New()
	d.ScreenshotErr = errors.New("target crashed")
	h := New(d, zap.New(core))
	sc := &fakeScenario{name: "Search for shoes", failed: true}

	h.BeforeStep()
	require.NotPanics(t, func() { h.AfterStep(context.Background(), sc) })

	assert.Empty(t, sc.attached)
	assert.Equal(t, StepCompleted, h.State())

	entries := logs.FilterMessage("Step screenshot failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Search for shoes", entries[0].ContextMap()["artifact"])
	assert.Equal(t, "Searchforshoesfailed.png", entries[1].ContextMap()["artifact"])
}

func TestAfterStep_SessionGoneIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := drivertest.New()
	require.NoError(t, d.Quit())
	h := New(d, zap.New(core))

	h.AfterStep(context.Background(), &fakeScenario{name: "s"})

	entries := logs.All()
	require.Len(t, entries, 1)
	err, ok := entries[0].ContextMap()["error"].(string)
	require.True(t, ok)
	assert.Equal(t, "capture s: no such session: browser has quit", err)
}

func TestAfterStep_FramesForwarded(t *testing.T) {
	frames := &frameLog{}
	h := New(drivertest.New(), nil, WithFrames(frames))

	h.AfterStep(context.Background(), &fakeScenario{name: "s"})
	h.AfterStep(context.Background(), &fakeScenario{name: "s", failed: true})

	assert.Equal(t, []bool{false, true}, frames.failed)
}

func TestAfterStep_FrameErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	frames := &frameLog{err: errors.New("decode")}
	h := New(drivertest.New(), zap.New(core), WithFrames(frames))
	sc := &fakeScenario{name: "s"}

	h.AfterStep(context.Background(), sc)

	assert.Len(t, sc.attached, 1)
	assert.Equal(t, 1, logs.FilterMessage("Recording frame dropped").Len())
}
