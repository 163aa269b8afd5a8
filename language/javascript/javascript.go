// Package javascript runs JavaScript in-process on the goja engine.
package javascript

import (
	"context"
	"strings"

	"github.com/dop251/goja"

	"github.com/caffeineduck/runpad/executor"
)

// JavaScript implements executor.Script. Every Exec gets a fresh VM, so
// globals never carry over between runs.
type JavaScript struct{}

// New returns a JavaScript runtime.
func New() *JavaScript {
	return &JavaScript{}
}

// Name returns "javascript".
func (j *JavaScript) Name() string {
	return "javascript"
}

// Exec runs source as the body of a function, with console.log and
// prompt bound to console. A thrown value is returned as an error carrying
// its message.
func (j *JavaScript) Exec(ctx context.Context, source string, console *executor.Console) error {
	vm := goja.New()

	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return errStringify
	}

	log := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = format(vm, stringify, arg)
		}
		console.Println(strings.Join(parts, " "))
		return goja.Undefined()
	}

	con := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := con.Set(name, log); err != nil {
			return err
		}
	}
	if err := vm.Set("console", con); err != nil {
		return err
	}
	err := vm.Set("prompt", func(call goja.FunctionCall) goja.Value {
		msg := ""
		if arg := call.Argument(0); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			msg = arg.String()
		}
		line, _ := console.ReadLine(msg)
		return vm.ToValue(line)
	})
	if err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	_, err = vm.RunString("(function() {\n" + source + "\n})()")
	if err == nil {
		return nil
	}
	if ex, ok := err.(*goja.Exception); ok {
		return thrown{message(ex.Value())}
	}
	return err
}

type thrown struct{ msg string }

func (t thrown) Error() string { return t.msg }

var errStringify = thrown{"JSON.stringify unavailable"}

// format renders a console.log argument: objects as indented JSON,
// everything else through String().
func format(vm *goja.Runtime, stringify goja.Callable, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return obj.String()
	}
	out, err := stringify(goja.Undefined(), obj, goja.Null(), vm.ToValue(2))
	if err != nil || goja.IsUndefined(out) {
		return obj.String()
	}
	return out.String()
}

// message returns err.message for thrown Error objects and the plain
// string form of anything else.
func message(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
			return m.String()
		}
	}
	return v.String()
}
