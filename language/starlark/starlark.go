// Package starlark runs Starlark scripts in-process.
package starlark

import (
	"context"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/caffeineduck/runpad/executor"
)

// FileName is the name scripts run under in error messages.
const FileName = "main.star"

// Starlark implements executor.Script.
type Starlark struct {
	opts *syntax.FileOptions
}

// New returns a Starlark runtime. Top-level control flow and while loops
// are enabled so small programs read like Python.
func New() *Starlark {
	return &Starlark{opts: &syntax.FileOptions{
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}}
}

func (s *Starlark) Name() string { return "starlark" }

// Exec runs source with print and input bound to console.
func (s *Starlark) Exec(ctx context.Context, source string, console *executor.Console) error {
	thread := &starlark.Thread{
		Name:  FileName,
		Print: func(_ *starlark.Thread, msg string) { console.Println(msg) },
	}

	predeclared := starlark.StringDict{
		"input": starlark.NewBuiltin("input", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var prompt string
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "prompt?", &prompt); err != nil {
				return nil, err
			}
			line, _ := console.ReadLine(prompt)
			return starlark.String(line), nil
		}),
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	_, err := starlark.ExecFileOptions(s.opts, thread, FileName, source, predeclared)
	return err
}
