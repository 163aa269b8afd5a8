// Package golang interprets Go programs in-process with yaegi.
package golang

import (
	"context"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/caffeineduck/runpad/executor"
)

// Go implements executor.Script for `package main` programs. The standard
// library is available; os.Exit inside the program is reported as a panic
// rather than ending the host process.
type Go struct{}

func New() *Go {
	return &Go{}
}

func (g *Go) Name() string { return "go" }

// Exec runs source with a fresh interpreter whose os.Stdin, os.Stdout and
// os.Stderr are bound to console.
func (g *Go) Exec(ctx context.Context, source string, console *executor.Console) error {
	i := interp.New(interp.Options{
		Stdin:  console.Stdin(),
		Stdout: console,
		Stderr: console.Stderr(),
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return err
	}
	_, err := i.EvalWithContext(ctx, source)
	return err
}
