package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestInputChannelResolve(t *testing.T) {
	ch := NewInputChannel()
	go func() {
		p := <-ch.Requests()
		if p.Prompt != "Name?" {
			t.Errorf("prompt = %q", p.Prompt)
		}
		p.Resolve("Ada")
	}()

	v, err := ch.RequestInput(context.Background(), "Name?")
	if err != nil || v != "Ada" {
		t.Errorf("RequestInput = %q, %v", v, err)
	}
}

func TestInputChannelOneOutstanding(t *testing.T) {
	ch := NewInputChannel()
	var outstanding, peak atomic.Int32

	go func() {
		for p := range ch.Requests() {
			n := outstanding.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			outstanding.Add(-1)
			p.Resolve(p.Prompt)
		}
	}()

	var wg sync.WaitGroup
	for _, prompt := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := ch.RequestInput(context.Background(), prompt); err != nil || v != prompt {
				t.Errorf("RequestInput(%q) = %q, %v", prompt, v, err)
			}
		}()
	}
	wg.Wait()

	if peak.Load() != 1 {
		t.Errorf("peak outstanding = %d, want 1", peak.Load())
	}
}

func TestInputChannelContextDone(t *testing.T) {
	ch := NewInputChannel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := ch.RequestInput(ctx, "nobody listening"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	go func() {
		<-ch.Requests()
		cancel()
	}()
	if _, err := ch.RequestInput(ctx, "abandoned"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancel error, got %v", err)
	}
}

func TestDecline(t *testing.T) {
	v, err := Decline.RequestInput(context.Background(), "anything")
	if v != "" || err != nil {
		t.Errorf("Decline = %q, %v", v, err)
	}
}

func TestTransitionRules(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{Idle, CollectingInputs, true},
		{Idle, Dispatching, true},
		{Idle, Completed, false},
		{CollectingInputs, Dispatching, true},
		{CollectingInputs, Failed, true},
		{CollectingInputs, Completed, false},
		{Dispatching, Completed, true},
		{Dispatching, Failed, true},
		{Completed, Idle, true},
		{Failed, Dispatching, false},
	}
	for _, tt := range tests {
		if got := isAllowedTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if !IsTerminal(Completed) || !IsTerminal(Failed) || IsTerminal(Dispatching) {
		t.Error("IsTerminal misclassifies states")
	}
}
