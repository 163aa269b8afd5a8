// Package bench measures the cost of each execution strategy and of the
// source analysis that runs before every dispatch.
//
// Run with: go test -v -run=Test ./bench/
// Benchmarks: go test -bench=. -benchtime=3x ./bench/
//
// Python benchmarks need RUNPAD_PYTHON_MODULE pointing at a WASI python.wasm.
package bench

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/caffeineduck/runpad/analysis"
	"github.com/caffeineduck/runpad/executor"
	"github.com/caffeineduck/runpad/language"
	"github.com/caffeineduck/runpad/language/golang"
	"github.com/caffeineduck/runpad/language/javascript"
	"github.com/caffeineduck/runpad/language/python"
	"github.com/caffeineduck/runpad/language/starlark"
	"github.com/caffeineduck/runpad/remote"
)

// javaSource builds a program with n helper classes ahead of the one
// holding main, the worst case for entry-point reordering.
func javaSource(n int) string {
	var b strings.Builder
	b.WriteString("import java.util.*;\n\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "class Helper%d {\n    int value() { return %d; }\n}\n\n", i, i)
	}
	b.WriteString(`public class Main {
    public static void main(String[] args) {
        Scanner sc = new Scanner(System.in);
        System.out.print("Enter a: ");
        int a = sc.nextInt();
        System.out.println(a);
    }
}
`)
	return b.String()
}

// --- Analysis ---

func BenchmarkAnalyzeEntryPoint(b *testing.B) {
	src := javaSource(50)
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		if _, err := analysis.AnalyzeEntryPoint(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtractPrompts(b *testing.B) {
	src := javaSource(50)
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		analysis.ExtractPrompts("java", src)
	}
}

func BenchmarkNeedsInput(b *testing.B) {
	src := javaSource(50)
	for i := 0; i < b.N; i++ {
		analysis.NeedsInput("java", src)
	}
}

// --- In-process scripts ---

func newScriptExecutor(b testing.TB) *executor.Executor {
	exec, err := executor.New(
		executor.WithScript("javascript", javascript.New()),
		executor.WithScript("starlark", starlark.New()),
		executor.WithScript("go", golang.New()),
	)
	if err != nil {
		b.Fatal(err)
	}
	return exec
}

func benchmarkScript(b *testing.B, id, source string) {
	exec := newScriptExecutor(b)
	defer exec.Close()
	desc, _ := language.Default().Lookup(id)
	req := executor.Request{Language: desc, Source: source, Stdin: "7"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := exec.Execute(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJavaScript(b *testing.B) {
	benchmarkScript(b, "javascript", `let s = 0; for (let i = 0; i < 1000; i++) s += i * i; console.log(s, prompt("n?"))`)
}

func BenchmarkStarlark(b *testing.B) {
	benchmarkScript(b, "starlark", `print(sum([i * i for i in range(1000)]), input("n?"))`)
}

func BenchmarkGo(b *testing.B) {
	benchmarkScript(b, "go", `package main

import "fmt"

func main() {
	s := 0
	for i := 0; i < 1000; i++ {
		s += i * i
	}
	fmt.Println(s)
}`)
}

// --- Remote service (local stub, measures client overhead only) ---

func BenchmarkRemoteRoundTrip(b *testing.B) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"run":{"stdout":"Enter a: 7\n","output":"Enter a: 7\n","code":0}}`))
	}))
	defer srv.Close()

	exec, err := executor.New(executor.WithRemote(remote.New(remote.Config{URL: srv.URL})))
	if err != nil {
		b.Fatal(err)
	}
	defer exec.Close()

	desc, _ := language.Default().Lookup("java")
	req := executor.Request{Language: desc, Source: javaSource(5), Stdin: "7"}
	echoed := executor.WithEchoedPrompts("Enter a: ")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := exec.Execute(context.Background(), req, echoed); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Embedded interpreter ---

func pythonModule(tb testing.TB) string {
	path := os.Getenv("RUNPAD_PYTHON_MODULE")
	if path == "" {
		tb.Skip("RUNPAD_PYTHON_MODULE not set")
	}
	if _, err := os.Stat(path); err != nil {
		tb.Skipf("python module unavailable: %v", err)
	}
	return path
}

func BenchmarkPython_ColdStart(b *testing.B) {
	lang := python.New(pythonModule(b))
	desc, _ := language.Default().Lookup("python")
	for i := 0; i < b.N; i++ {
		exec, _ := executor.New(executor.WithInterpreter("python", lang))
		exec.Execute(context.Background(), executor.Request{Language: desc, Source: "x=1"})
		exec.Close()
	}
}

func BenchmarkPython_WarmStart(b *testing.B) {
	exec, err := executor.New(executor.WithInterpreter("python", python.New(pythonModule(b))))
	if err != nil {
		b.Fatal(err)
	}
	defer exec.Close()
	desc, _ := language.Default().Lookup("python")
	req := executor.Request{Language: desc, Source: "print(input('n? '))", Stdin: "7"}

	exec.Execute(context.Background(), req) // compile

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		exec.Execute(context.Background(), req)
	}
}

// =============================================================================
// RUNNER COMPARISON
// =============================================================================

func TestRunnerComparison(t *testing.T) {
	fmt.Println()
	fmt.Printf("Platform: %s/%s, CPUs: %d\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	fmt.Println()

	measure := func(runs int, fn func()) time.Duration {
		var total time.Duration
		for i := 0; i < runs; i++ {
			start := time.Now()
			fn()
			total += time.Since(start)
		}
		return total / time.Duration(runs)
	}

	exec := newScriptExecutor(t)
	defer exec.Close()

	programs := []struct {
		id     string
		source string
	}{
		{"javascript", `console.log(prompt("n?"))`},
		{"starlark", `print(input("n?"))`},
		{"go", "package main\n\nimport \"fmt\"\n\nfunc main() { var n int; fmt.Scan(&n); fmt.Println(n) }"},
	}

	fmt.Printf("%-12s %10s %10s\n", "Runner", "First", "Avg(5)")
	fmt.Println(strings.Repeat("-", 34))
	for _, p := range programs {
		desc, _ := language.Default().Lookup(p.id)
		req := executor.Request{Language: desc, Source: p.source, Stdin: "7"}
		run := func() {
			res, err := exec.Execute(context.Background(), req)
			if err != nil || res.Output != "7" {
				t.Errorf("%s: output %q, err %v", p.id, res.Output, err)
			}
		}
		first := measure(1, run)
		avg := measure(5, run)
		fmt.Printf("%-12s %10s %10s\n", p.id, formatDuration(first), formatDuration(avg))
	}
	fmt.Println()
}

func formatDuration(d time.Duration) string {
	if d >= time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d >= time.Millisecond {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%dµs", d.Microseconds())
}

// =============================================================================
// DISK CACHE (simulates CLI usage)
// =============================================================================

func TestDiskCacheBenefit(t *testing.T) {
	lang := python.New(pythonModule(t))
	desc, _ := language.Default().Lookup("python")
	cacheDir := t.TempDir()

	var times []time.Duration

	// Simulate 3 separate CLI invocations (each creates new executor)
	for i := 0; i < 3; i++ {
		start := time.Now()

		exec, err := executor.New(
			executor.WithInterpreter("python", lang),
			executor.WithDiskCache(cacheDir),
		)
		if err != nil {
			t.Fatal(err)
		}
		exec.Execute(context.Background(), executor.Request{Language: desc, Source: "print(1)"})
		exec.Close()

		times = append(times, time.Since(start))
	}

	for i, d := range times {
		label := "cached"
		if i == 0 {
			label = "compile"
		}
		t.Logf("Call %d (%s): %v", i+1, label, d)
	}
	t.Logf("Speedup: %.1fx faster after first call", float64(times[0])/float64(times[1]))
}
