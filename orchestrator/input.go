package orchestrator

import (
	"context"
	"sync"
)

// InputRequester asks the user for one value. A cancelled request is
// answered with "" and a nil error; an error aborts the run.
type InputRequester interface {
	RequestInput(ctx context.Context, prompt string) (string, error)
}

// RequesterFunc adapts a function to InputRequester.
type RequesterFunc func(ctx context.Context, prompt string) (string, error)

func (f RequesterFunc) RequestInput(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type declineRequester struct{}

func (declineRequester) RequestInput(context.Context, string) (string, error) {
	return "", nil
}

// Decline answers every prompt with "". Surfaces that cannot ask the
// user anything mid-run use it; programs then only see batched stdin.
var Decline InputRequester = declineRequester{}

// PendingInput is an outstanding request for input. Exactly one of Resolve
// or Cancel takes effect; later calls are ignored.
type PendingInput struct {
	Prompt string

	once  sync.Once
	reply chan string
}

// Resolve answers the request with value.
func (p *PendingInput) Resolve(value string) {
	p.once.Do(func() { p.reply <- value })
}

// Cancel answers the request with "".
func (p *PendingInput) Cancel() {
	p.Resolve("")
}

// InputChannel hands requests for input to a UI goroutine. At most one
// request is outstanding at a time; a second caller waits for the first
// to be answered.
type InputChannel struct {
	mu       sync.Mutex
	requests chan *PendingInput
}

func NewInputChannel() *InputChannel {
	return &InputChannel{requests: make(chan *PendingInput)}
}

// Requests delivers pending requests to the UI side.
func (c *InputChannel) Requests() <-chan *PendingInput {
	return c.requests
}

// RequestInput publishes a PendingInput and blocks until it is answered or
// ctx is done.
func (c *InputChannel) RequestInput(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &PendingInput{Prompt: prompt, reply: make(chan string, 1)}
	select {
	case c.requests <- p:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case v := <-p.reply:
		return v, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
