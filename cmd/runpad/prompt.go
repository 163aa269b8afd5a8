package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/caffeineduck/runpad/orchestrator"
)

// terminalRequester answers input requests from the terminal. Ctrl-C and
// Ctrl-D answer with an empty value, the same as a dismissed dialog.
type terminalRequester struct {
	rl   *readline.Instance
	out  io.Writer
	owns bool
}

func newTerminalRequester(out io.Writer) (*terminalRequester, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		Stdout:          out,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing readline: %w", err)
	}
	return &terminalRequester{rl: rl, out: out, owns: true}, nil
}

// shareRequester asks for input on a readline instance owned by someone
// else, restoring its prompt afterwards.
func shareRequester(rl *readline.Instance, out io.Writer) *terminalRequester {
	return &terminalRequester{rl: rl, out: out}
}

func (t *terminalRequester) RequestInput(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	saved := t.rl.Config.Prompt
	defer t.rl.SetPrompt(saved)

	if prompt == orchestrator.GenericPrompt {
		return t.readBlock(prompt)
	}

	// Only the last line of a prompt goes on the input line.
	if i := strings.LastIndex(prompt, "\n"); i >= 0 {
		fmt.Fprintln(t.out, prompt[:i])
		prompt = prompt[i+1:]
	}
	t.rl.SetPrompt(strings.TrimRight(prompt, " ") + " ")
	return t.readLine()
}

// readBlock reads lines until an empty one, for programs whose prompts
// could not be detected.
func (t *terminalRequester) readBlock(prompt string) (string, error) {
	fmt.Fprintln(t.out, prompt)
	fmt.Fprintln(t.out, "(finish with an empty line)")
	t.rl.SetPrompt("... ")

	var lines []string
	for {
		line, err := t.readLine()
		if err != nil {
			return "", err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func (t *terminalRequester) readLine() (string, error) {
	line, err := t.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", nil
	}
	return line, err
}

func (t *terminalRequester) Close() error {
	if !t.owns {
		return nil
	}
	return t.rl.Close()
}
