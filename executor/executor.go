package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/caffeineduck/runpad/language"
	"github.com/caffeineduck/runpad/remote"
)

// ErrNoRuntime is wrapped by a DispatchError when no runtime is registered
// for the requested language.
var ErrNoRuntime = errors.New("no runtime registered")

// Request is one program to execute.
type Request struct {
	Language language.Descriptor
	Source   string
	// Stdin holds batched input, one value per line.
	Stdin string
}

// Result holds the output and metadata from code execution. Failed marks a
// fault raised by the program itself; its message is already part of
// Output.
type Result struct {
	Output     string
	Failed     bool
	EntryPoint string
	Duration   time.Duration
}

// DispatchError reports that a program could not be run at all: the
// runtime was missing, could not start, or the remote service failed.
type DispatchError struct {
	Op       string
	Language string
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Language, e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Executor routes requests to the runner their language descriptor names.
// It is safe for concurrent use.
type Executor struct {
	scripts      map[string]Script
	interpreters map[string]Interpreter
	remote       *remote.Client
	host         *wasmHost
	logger       *zap.Logger
}

// New creates an Executor. The WASM host is only started when at least one
// interpreter is registered.
func New(opts ...ExecutorOption) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()

	e := &Executor{
		scripts:      cfg.scripts,
		interpreters: cfg.interpreters,
		remote:       cfg.remote,
		logger:       cfg.logger,
	}

	if len(cfg.interpreters) > 0 {
		host, err := newWasmHost(ctx, cfg)
		if err != nil {
			return nil, err
		}
		e.host = host
	}

	for _, id := range cfg.precompile {
		if err := e.Warm(ctx, id); err != nil {
			e.Close()
			return nil, fmt.Errorf("precompile %s: %w", id, err)
		}
	}

	return e, nil
}

// Warm compiles the interpreter registered for langID if it is not ready
// yet.
func (e *Executor) Warm(ctx context.Context, langID string) error {
	interp, ok := e.interpreters[langID]
	if !ok {
		return &DispatchError{Op: "interpreter", Language: langID, Err: ErrNoRuntime}
	}
	_, err := e.host.module(ctx, interp)
	return err
}

// Ready reports whether the interpreter for langID has been compiled.
func (e *Executor) Ready(langID string) bool {
	interp, ok := e.interpreters[langID]
	if !ok || e.host == nil {
		return false
	}
	return e.host.ready(interp.Name())
}

// Execute runs req with the strategy its descriptor selects. Program faults
// come back as a Result with Failed set; a non-nil error means the program
// never ran to completion (*analysis.Error or *DispatchError).
func (e *Executor) Execute(ctx context.Context, req Request, opts ...Option) (Result, error) {
	start := time.Now()

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	desc := req.Language
	e.logger.Debug("dispatch",
		zap.String("language", desc.ID),
		zap.Stringer("runner", desc.Runner),
		zap.Int("stdinBytes", len(req.Stdin)))

	var (
		res Result
		err error
	)
	switch desc.Runner {
	case language.InProcessScript:
		res, err = e.runScript(ctx, req, cfg)
	case language.EmbeddedInterpreter:
		res, err = e.runInterpreter(ctx, req, cfg)
	case language.RemoteService:
		res, err = e.runRemote(ctx, req, cfg)
	default:
		err = &DispatchError{Op: "dispatch", Language: desc.ID, Err: fmt.Errorf("unsupported runner %s", desc.Runner)}
	}

	res.Duration = time.Since(start)
	if err != nil {
		if cfg.timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &DispatchError{Op: "dispatch", Language: desc.ID, Err: fmt.Errorf("timeout after %v", cfg.timeout)}
		}
		e.logger.Debug("dispatch failed", zap.String("language", desc.ID), zap.Error(err))
		return res, err
	}

	e.logger.Debug("dispatch done",
		zap.String("language", desc.ID),
		zap.Bool("failed", res.Failed),
		zap.Duration("duration", res.Duration))
	return res, nil
}

func (e *Executor) runScript(ctx context.Context, req Request, cfg runConfig) (Result, error) {
	id := req.Language.ID
	script, ok := e.scripts[id]
	if !ok {
		return Result{}, &DispatchError{Op: "script", Language: id, Err: ErrNoRuntime}
	}

	console := NewConsole(ctx, req.Stdin, cfg.input)
	fault := execScript(ctx, script, req.Source, console)

	if err := console.Err(); err != nil {
		return Result{}, &DispatchError{Op: "input", Language: id, Err: err}
	}
	if fault != nil && ctx.Err() != nil {
		return Result{}, &DispatchError{Op: "script", Language: id, Err: ctx.Err()}
	}

	res := Result{Failed: fault != nil}
	console.Fault(fault)
	res.Output = console.Output()
	if res.Output == "" {
		res.Output = noOutputText
	}
	return res, nil
}

// execScript runs the script and turns a runtime panic into a fault.
func execScript(ctx context.Context, s Script, source string, console *Console) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", s.Name(), r)
		}
	}()
	return s.Exec(ctx, source, console)
}

func (e *Executor) runInterpreter(ctx context.Context, req Request, cfg runConfig) (Result, error) {
	id := req.Language.ID
	interp, ok := e.interpreters[id]
	if !ok || e.host == nil {
		return Result{}, &DispatchError{Op: "interpreter", Language: id, Err: ErrNoRuntime}
	}

	compiled, err := e.host.module(ctx, interp)
	if err != nil {
		return Result{}, &DispatchError{Op: "interpreter", Language: id, Err: err}
	}

	console := NewConsole(ctx, req.Stdin, cfg.input)
	runErr := e.host.run(ctx, compiled, interp, req.Source, console)

	if err := console.Err(); err != nil {
		return Result{}, &DispatchError{Op: "input", Language: id, Err: err}
	}
	if ctx.Err() != nil {
		return Result{}, &DispatchError{Op: "interpreter", Language: id, Err: ctx.Err()}
	}

	var res Result
	if runErr != nil {
		code, ok := exitCode(runErr)
		if !ok {
			return Result{}, &DispatchError{Op: "interpreter", Language: id, Err: fmt.Errorf("execution failed: %w", runErr)}
		}
		if code != 0 {
			res.Failed = true
			// Tracebacks already arrived on stderr.
			if !console.usedStderr() {
				console.Fault(fmt.Errorf("exit status %d", code))
			}
		}
	}
	res.Output = StripPrompts(console.Output(), cfg.echoed)
	return res, nil
}

// Close releases the interpreter host. Executing an embedded-interpreter
// language afterwards fails with ErrClosed.
func (e *Executor) Close() error {
	if e.host == nil {
		return nil
	}
	return e.host.close()
}
