// Package hook captures the page after every scenario step and attaches the
// image to the scenario. A failed scenario gets a second, failure-tagged
// capture. Capture problems are logged and never fail the step.
package hook

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/errs"
)

// MediaPNG is the media type of every attachment
const MediaPNG = "image/png"

// FailedSuffix ends the name of the failure capture
const FailedSuffix = "failed.png"

// Scenario is the runner's view of the scenario being executed.
type Scenario interface {
	Name() string
	IsFailed() bool
	Attach(data []byte, mediaType, name string)
}

// Capturer produces a screenshot of the current page. driver.Driver is one.
type Capturer interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// FrameSink receives every step capture, e.g. for a run recording.
type FrameSink interface {
	AddFrame(png []byte, failed bool) error
}

// State is where the hook is in the current step.
type State int

const (
	StepStarted State = iota
	StepCompleted
)

func (s State) String() string {
	if s == StepCompleted {
		return "step_completed"
	}
	return "step_started"
}

// StepHook runs around the steps of one scenario.
type StepHook struct {
	capture Capturer
	log     *zap.Logger
	frames  FrameSink

	mu    sync.Mutex
	state State
}

// Option configures a StepHook
type Option func(*StepHook)

// WithFrames forwards captures to sink
func WithFrames(sink FrameSink) Option {
	return func(h *StepHook) { h.frames = sink }
}

func New(capture Capturer, log *zap.Logger, opts ...Option) *StepHook {
	if log == nil {
		log = zap.NewNop()
	}
	h := &StepHook{capture: capture, log: log, state: StepCompleted}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the current state.
func (h *StepHook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// BeforeStep marks a step as started
func (h *StepHook) BeforeStep() {
	h.mu.Lock()
	h.state = StepStarted
	h.mu.Unlock()
}

// AfterStep attaches one capture named after the scenario and, when the
// scenario has failed, a second one named FailureName(name).
func (h *StepHook) AfterStep(ctx context.Context, sc Scenario) {
	defer func() {
		h.mu.Lock()
		h.state = StepCompleted
		h.mu.Unlock()
	}()

	name := sc.Name()
	failed := sc.IsFailed()

	if data, ok := h.shoot(ctx, name); ok {
		sc.Attach(data, MediaPNG, name)
		h.frame(data, failed)
	}
	if !failed {
		return
	}
	if data, ok := h.shoot(ctx, FailureName(name)); ok {
		sc.Attach(data, MediaPNG, FailureName(name))
	}
}

func (h *StepHook) shoot(ctx context.Context, name string) ([]byte, bool) {
	data, err := h.capture.Screenshot(ctx)
	if err != nil {
		err = errs.Wrap(errs.ArtifactCapture, "capture "+name, err)
		h.log.Warn("Step screenshot failed", zap.String("artifact", name), zap.Error(err))
		return nil, false
	}
	return data, true
}

func (h *StepHook) frame(data []byte, failed bool) {
	if h.frames == nil {
		return
	}
	if err := h.frames.AddFrame(data, failed); err != nil {
		h.log.Warn("Recording frame dropped", zap.Error(err))
	}
}

// FailureName is the failure capture name for a scenario: spaces removed,
// FailedSuffix appended.
func FailureName(scenario string) string {
	return strings.ReplaceAll(scenario, " ", "") + FailedSuffix
}
