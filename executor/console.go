package executor

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

const (
	errorPrefix   = "Error: "
	streamPrompt  = "Program is waiting for input:"
	noOutputText  = "Program executed successfully (no output)."
	noServerReply = "Error: No output from server."
)

// InputFunc asks the user for one line of input. prompt is the text the
// program showed (or would have shown) before reading.
type InputFunc func(ctx context.Context, prompt string) (string, error)

// Console is the execution context handed to a running program: an
// ordered output buffer it may write to and a line source it may read
// from. Runtimes close over a Console instead of touching process-wide
// stdout or stdin, so nothing has to be restored after a run.
type Console struct {
	ctx   context.Context
	input InputFunc

	mu          sync.Mutex
	out         bytes.Buffer
	errLineOpen bool
	wroteStderr bool
	lines       []string
	next        int
	err         error
}

// NewConsole returns a console that reads stdin line by line and, once the
// lines run out, asks input (if non-nil).
func NewConsole(ctx context.Context, stdin string, input InputFunc) *Console {
	c := &Console{ctx: ctx, input: input}
	if stdin != "" {
		c.lines = strings.Split(stdin, "\n")
	}
	return c
}

// Println appends one output line.
func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErrLine()
	c.out.WriteString(line)
	c.out.WriteByte('\n')
}

// Write appends raw program output.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErrLine()
	return c.out.Write(p)
}

// Stderr returns a writer whose lines land in the same buffer, each
// prefixed with "Error: ".
func (c *Console) Stderr() io.Writer {
	return stderrWriter{c}
}

// Fault records a fault raised by the program as a trailing error line.
func (c *Console) Fault(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErrLine()
	c.breakLine()
	c.out.WriteString(errorPrefix)
	c.out.WriteString(err.Error())
	c.out.WriteByte('\n')
}

// ReadLine returns the next batched stdin line, or asks the input func when
// the batch is used up. ok is false when no input source is left or the
// request itself failed.
func (c *Console) ReadLine(prompt string) (line string, ok bool) {
	c.mu.Lock()
	if c.next < len(c.lines) {
		line = c.lines[c.next]
		c.next++
		c.mu.Unlock()
		return line, true
	}
	input := c.input
	c.mu.Unlock()

	if input == nil {
		return "", false
	}
	v, err := input(c.ctx, prompt)
	if err != nil {
		c.mu.Lock()
		if c.err == nil {
			c.err = err
		}
		c.mu.Unlock()
		return "", false
	}
	return v, true
}

// Stdin adapts ReadLine to a byte stream for runtimes that read os.Stdin
// style input. The prompt passed on is whatever the program printed after
// its last newline.
func (c *Console) Stdin() io.Reader {
	return &consoleReader{c: c}
}

// Output returns everything written so far without the final newline.
func (c *Console) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSuffix(c.out.String(), "\n")
}

// Err returns the first error an input request failed with.
func (c *Console) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Console) usedStderr() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wroteStderr
}

func (c *Console) pendingPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.out.String()
	tail := s[strings.LastIndexByte(s, '\n')+1:]
	if strings.TrimSpace(tail) == "" {
		return streamPrompt
	}
	return tail
}

// breakLine ends a partially written line. Callers hold mu.
func (c *Console) breakLine() {
	if n := c.out.Len(); n > 0 && c.out.Bytes()[n-1] != '\n' {
		c.out.WriteByte('\n')
	}
}

func (c *Console) closeErrLine() {
	if c.errLineOpen {
		c.out.WriteByte('\n')
		c.errLineOpen = false
	}
}

type stderrWriter struct {
	c *Console
}

func (w stderrWriter) Write(p []byte) (int, error) {
	c := w.c
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(p)
	if n > 0 {
		c.wroteStderr = true
	}
	for len(p) > 0 {
		if !c.errLineOpen {
			c.breakLine()
			c.out.WriteString(errorPrefix)
			c.errLineOpen = true
		}
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			c.out.Write(p)
			break
		}
		c.out.Write(p[:i+1])
		p = p[i+1:]
		c.errLineOpen = false
	}
	return n, nil
}

type consoleReader struct {
	c   *Console
	buf []byte
	eof bool
}

func (r *consoleReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		if r.eof {
			return 0, io.EOF
		}
		line, ok := r.c.ReadLine(r.c.pendingPrompt())
		if !ok {
			r.eof = true
			return 0, io.EOF
		}
		r.buf = []byte(line + "\n")
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
