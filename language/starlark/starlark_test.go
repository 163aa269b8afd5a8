package starlark

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/caffeineduck/runpad/executor"
	"github.com/caffeineduck/runpad/language"
)

func newExecutor(t *testing.T) (*executor.Executor, language.Descriptor) {
	t.Helper()
	exec, err := executor.New(executor.WithScript("starlark", New()))
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	t.Cleanup(func() { exec.Close() })
	desc, ok := language.Default().Lookup("starlark")
	if !ok {
		t.Fatal("starlark not registered")
	}
	return exec, desc
}

func TestStarlarkPrint(t *testing.T) {
	exec, desc := newExecutor(t)
	result, err := exec.Execute(context.Background(), executor.Request{Language: desc, Source: `
def square(n):
    return n * n

for i in range(1, 4):
    print(square(i))
`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "1\n4\n9" {
		t.Errorf("unexpected output %q", result.Output)
	}
}

func TestStarlarkInput(t *testing.T) {
	exec, desc := newExecutor(t)

	var asked []string
	result, err := exec.Execute(context.Background(),
		executor.Request{Language: desc, Source: `
name = input("Name? ")
age = input(prompt="Age? ")
rest = input()
print(name, age, rest == "")
`, Stdin: "Ada"},
		executor.WithInput(func(_ context.Context, p string) (string, error) {
			asked = append(asked, p)
			if p == "Age? " {
				return "36", nil
			}
			return "", nil
		}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "Ada 36 True" {
		t.Errorf("unexpected output %q", result.Output)
	}
	if len(asked) != 2 {
		t.Errorf("asked = %q", asked)
	}
}

func TestStarlarkFault(t *testing.T) {
	exec, desc := newExecutor(t)
	result, err := exec.Execute(context.Background(), executor.Request{Language: desc, Source: `
print("start")
fail("Oops")
`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Failed || !strings.HasPrefix(result.Output, "start\nError: ") || !strings.Contains(result.Output, "Oops") {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestStarlarkSyntaxError(t *testing.T) {
	exec, desc := newExecutor(t)
	result, err := exec.Execute(context.Background(), executor.Request{Language: desc, Source: `print(`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Failed || !strings.Contains(result.Output, FileName) {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestStarlarkTimeout(t *testing.T) {
	exec, desc := newExecutor(t)
	_, err := exec.Execute(context.Background(), executor.Request{Language: desc, Source: `
while True:
    pass
`}, executor.WithTimeout(100*time.Millisecond))
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout, got %v", err)
	}
}
