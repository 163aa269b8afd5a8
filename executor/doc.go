// Package executor dispatches a program to the runner its language needs
// and collects the output.
//
// # Runners
//
// Three strategies are supported, selected by [language.RunnerKind]:
//
//   - In-process scripts run inside the host process through a [Script]
//     runtime (JavaScript, Starlark, Go).
//   - Embedded interpreters are WASI modules hosted by wazero. Each module
//     is compiled once, on first use, and shared by every later run.
//   - Remote languages are sent to a Piston-compatible API via
//     [github.com/caffeineduck/runpad/remote].
//
// # Basic Usage
//
//	exec, err := executor.New(
//	    executor.WithRemote(remote.New(remote.Config{})),
//	    executor.WithScript("javascript", javascript.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Close()
//
//	desc, _ := language.Default().Lookup("javascript")
//	res, err := exec.Execute(ctx, executor.Request{Language: desc, Source: `console.log("hi")`})
//	fmt.Println(res.Output)
//
// # Input
//
// Programs read batched stdin first. Reads past the batch go to the
// [InputFunc] passed with [WithInput], which lets a UI answer prompts
// while the program is running.
package executor
