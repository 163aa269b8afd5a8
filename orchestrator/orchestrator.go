// Package orchestrator drives a single run end to end: it decides whether
// input must be collected before dispatch, asks for it one prompt at a
// time, and hands the program to the executor.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caffeineduck/runpad/analysis"
	"github.com/caffeineduck/runpad/executor"
	"github.com/caffeineduck/runpad/internal/logger"
	"github.com/caffeineduck/runpad/language"
)

// GenericPrompt is asked when a remote program looks like it reads input
// but prints no recognizable prompt.
const GenericPrompt = "This program appears to require input.\nPlease enter all inputs needed, separated by lines:"

// ErrRunInProgress is returned by RunOnce while another run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Dispatcher executes one request. *executor.Executor implements it.
type Dispatcher interface {
	Execute(ctx context.Context, req executor.Request, opts ...executor.Option) (executor.Result, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers fn to be called on every state change.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// WithTimeout bounds each dispatch. Input collection is not counted.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// Orchestrator runs one program at a time for one user session.
type Orchestrator struct {
	exec      Dispatcher
	requester InputRequester
	logger    *zap.Logger
	observer  Observer
	timeout   time.Duration

	running atomic.Bool
	mu      sync.Mutex
	state   State
}

// New returns an Orchestrator. A nil requester behaves like Decline.
func New(exec Dispatcher, requester InputRequester, opts ...Option) *Orchestrator {
	if requester == nil {
		requester = Decline
	}
	o := &Orchestrator{
		exec:      exec,
		requester: requester,
		logger:    zap.NewNop(),
		state:     Idle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IsRunning reports whether a run is active.
func (o *Orchestrator) IsRunning() bool {
	return o.running.Load()
}

// State returns the state of the current or most recent run.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// RunOnce executes source. For remote languages any input the program
// needs is collected up front, because the remote service only accepts
// stdin as a batch: detected prompts are always asked and their answers
// replace stdin. With Decline as requester stdin is sent unchanged. Other
// languages ask the requester while running.
//
// A program that fails on its own still yields a nil error and a Result
// with Failed set. Errors are *analysis.Error, *executor.DispatchError or
// a failure of the requester, such as a cancelled context.
func (o *Orchestrator) RunOnce(ctx context.Context, desc language.Descriptor, source, stdin string) (executor.Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		return executor.Result{}, ErrRunInProgress
	}
	defer o.running.Store(false)

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.For(ctx, o.logger)

	o.reset(runID)
	log.Info("run started", zap.String("language", desc.ID), zap.Stringer("runner", desc.Runner))

	var opts []executor.Option
	switch desc.Runner {
	case language.RemoteService:
		prompts := analysis.PromptTexts(analysis.ExtractPrompts(desc.ID, source))
		// With nobody to ask, the caller's stdin is the whole batch.
		if !o.batchOnly() {
			collected, asked, err := o.collect(ctx, runID, desc, source, stdin, prompts)
			if err != nil {
				o.transition(runID, Failed)
				log.Warn("input collection failed", zap.Error(err))
				return executor.Result{}, err
			}
			if asked {
				stdin = collected
			}
		}
		opts = append(opts, executor.WithEchoedPrompts(prompts...))
	case language.EmbeddedInterpreter:
		prompts := analysis.PromptTexts(analysis.ExtractPrompts(desc.ID, source))
		opts = append(opts, executor.WithEchoedPrompts(prompts...))
		opts = append(opts, o.inputOption()...)
	default:
		opts = append(opts, o.inputOption()...)
	}
	if o.timeout > 0 {
		opts = append(opts, executor.WithTimeout(o.timeout))
	}

	o.transition(runID, Dispatching)
	res, err := o.exec.Execute(ctx, executor.Request{Language: desc, Source: source, Stdin: stdin}, opts...)
	if err != nil {
		o.transition(runID, Failed)
		log.Warn("run failed", zap.Error(err))
		return res, err
	}

	o.transition(runID, Completed)
	log.Info("run finished",
		zap.Bool("programFailed", res.Failed),
		zap.String("entryPoint", res.EntryPoint),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// collect asks for every prompt in order and returns the answers joined by
// newlines, which replace any batched stdin. Without detected prompts it
// asks once with GenericPrompt, but only when the program looks like it
// reads input and no stdin was supplied. asked is false when nothing was
// requested.
func (o *Orchestrator) collect(ctx context.Context, runID string, desc language.Descriptor, source, stdin string, prompts []string) (string, bool, error) {
	if len(prompts) == 0 {
		if stdin != "" || !analysis.NeedsInput(desc.ID, source) {
			return "", false, nil
		}
		prompts = []string{GenericPrompt}
	}

	o.transition(runID, CollectingInputs)
	values := make([]string, 0, len(prompts))
	for _, p := range prompts {
		v, err := o.requester.RequestInput(ctx, p)
		if err != nil {
			return "", false, err
		}
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		values = append(values, v)
	}
	return strings.Join(values, "\n"), true, nil
}

// batchOnly reports whether the requester can never ask anyone.
func (o *Orchestrator) batchOnly() bool {
	_, ok := o.requester.(declineRequester)
	return ok
}

func (o *Orchestrator) inputOption() []executor.Option {
	if o.batchOnly() {
		return nil
	}
	return []executor.Option{executor.WithInput(o.requester.RequestInput)}
}

func (o *Orchestrator) reset(runID string) {
	o.mu.Lock()
	from := o.state
	o.state = Idle
	o.mu.Unlock()
	if from != Idle {
		o.notify(runID, from, Idle)
	}
}

func (o *Orchestrator) transition(runID string, to State) {
	o.mu.Lock()
	from := o.state
	if !isAllowedTransition(from, to) {
		o.mu.Unlock()
		o.logger.DPanic("invalid state transition", zap.String("from", string(from)), zap.String("to", string(to)))
		return
	}
	o.state = to
	o.mu.Unlock()

	o.logger.Debug("state", zap.String("run_id", runID), zap.String("from", string(from)), zap.String("to", string(to)))
	o.notify(runID, from, to)
}

func (o *Orchestrator) notify(runID string, from, to State) {
	if o.observer != nil {
		o.observer(runID, from, to)
	}
}

// FormatFailure renders a run error the way it is shown to the user.
func FormatFailure(err error) string {
	return "Runtime Error:\n" + err.Error()
}
