// Package bdd runs Gherkin features through godog. Every scenario gets its own
// browser session, opened before the first step and closed after the last,
// and a step hook that attaches a screenshot after every step.
package bdd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/artifact"
	"github.com/v0xg/pagekit/internal/config"
	"github.com/v0xg/pagekit/internal/dataset"
	"github.com/v0xg/pagekit/internal/hook"
	"github.com/v0xg/pagekit/internal/recording"
	"github.com/v0xg/pagekit/internal/session"
)

// Runner holds what every scenario of a run shares
type Runner struct {
	Settings *config.Settings
	Open     session.Opener
	Log      *zap.Logger

	// Store receives step screenshots and recordings. Optional.
	Store *artifact.Store
	// Data is the test data record steps may read accounts from. Optional.
	Data dataset.Record
}

// SuiteOptions selects the features of a run
type SuiteOptions struct {
	Paths       []string
	Tags        string
	Format      string
	Concurrency int
	Output      io.Writer
}

// Suite builds the godog suite for opts.
func (r *Runner) Suite(name string, opts SuiteOptions) godog.TestSuite {
	if opts.Format == "" {
		opts.Format = "pretty"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return godog.TestSuite{
		Name:                name,
		ScenarioInitializer: r.InitializeScenario,
		Options: &godog.Options{
			Format:      opts.Format,
			Paths:       opts.Paths,
			Tags:        opts.Tags,
			Concurrency: opts.Concurrency,
			Output:      opts.Output,
			Strict:      true,
		},
	}
}

// Run executes the suite and returns godog's exit status: 0 when every
// scenario passed.
func (r *Runner) Run(name string, opts SuiteOptions) int {
	return r.Suite(name, opts).Run()
}

// InitializeScenario is called by godog once per scenario.
func (r *Runner) InitializeScenario(sc *godog.ScenarioContext) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &scenario{runner: r, log: log}

	sc.Before(s.before)
	sc.After(s.after)
	sc.StepContext().Before(s.beforeStep)
	sc.StepContext().After(s.afterStep)
	s.registerSteps(sc)
}

// scenario is the state of one running scenario.
type scenario struct {
	runner *Runner
	log    *zap.Logger

	name    string
	failed  bool
	step    int
	session *session.Session
	hook    *hook.StepHook

	steps stepState
}

func (s *scenario) before(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	s.name = sc.Name
	s.log = s.log.With(zap.String("scenario", sc.Name))

	sess, err := session.Open(ctx, s.runner.Open, s.runner.Settings, s.log)
	if err != nil {
		return ctx, fmt.Errorf("open session: %w", err)
	}
	s.session = sess

	var opts []hook.Option
	if s.runner.Settings.RecordGIF && s.runner.Store != nil {
		rec := recording.NewRecorder(recording.Options{FPS: 1}, s.log)
		opts = append(opts, hook.WithFrames(rec))
		path := filepath.Join(s.runner.Store.Dir(), slug(sc.Name)+".gif")
		sess.OnClose(func() error {
			_, err := rec.WriteGIF(path)
			return err
		})
	}
	s.hook = hook.New(sess.Driver(), s.log, opts...)
	s.steps.login = sess.Login()
	return ctx, nil
}

// after tears the session down. The scenario error stays with godog; hooks
// return nil so it is reported once.
func (s *scenario) after(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
	if err != nil {
		s.log.Info("Scenario failed", zap.Error(err))
	}
	if s.session == nil {
		return ctx, nil
	}
	if cerr := s.session.Close(); cerr != nil {
		s.log.Warn("Teardown failed", zap.Error(cerr))
	}
	return ctx, nil
}

func (s *scenario) beforeStep(ctx context.Context, _ *godog.Step) (context.Context, error) {
	s.step++
	if s.hook != nil {
		s.hook.BeforeStep()
	}
	return ctx, nil
}

func (s *scenario) afterStep(ctx context.Context, st *godog.Step, _ godog.StepResultStatus, err error) (context.Context, error) {
	if err != nil {
		s.failed = true
	}
	if s.hook == nil {
		return ctx, nil
	}
	s.log.Debug("Step finished", zap.String("step", st.Text), zap.Bool("failed", err != nil))

	att := &attacher{ctx: ctx, scenario: s}
	s.hook.AfterStep(ctx, att)
	return att.ctx, nil
}

// attacher presents the scenario to the step hook and routes attachments to
// godog and to the artifact store.
type attacher struct {
	ctx      context.Context
	scenario *scenario
}

func (a *attacher) Name() string   { return a.scenario.name }
func (a *attacher) IsFailed() bool { return a.scenario.failed }

func (a *attacher) Attach(data []byte, mediaType, name string) {
	a.ctx = godog.Attach(a.ctx, godog.Attachment{Body: data, FileName: name, MediaType: mediaType})

	store := a.scenario.runner.Store
	if store == nil {
		return
	}
	file := fmt.Sprintf("%s_step%02d_%s", slug(a.scenario.name), a.scenario.step, slug(name))
	// The store logs write failures; they never fail a step.
	_, _ = store.Save(withExt(file, ".png"), data)
}

func slug(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "")
}

func withExt(name, ext string) string {
	if strings.HasSuffix(name, ext) {
		return name
	}
	return name + ext
}
