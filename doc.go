// Package runpad runs short programs for an online compiler and works out,
// before running them, what input they will ask for.
//
// # Overview
//
// Every language is described by a [language.Descriptor] whose runner kind
// picks one of three strategies:
//
//   - in-process scripts (JavaScript on goja, Starlark, Go on yaegi) run inside
//     the host and ask for input the moment the program reads it;
//   - embedded interpreters (Python on a WASI module under wazero) read
//     batched stdin and fall back to asking when it runs out;
//   - remote languages (Java, C, C++) are sent to a Piston-compatible
//     execution API, which only accepts stdin as one batch.
//
// For remote languages the [analysis] package scans the source for prompt
// literals so input can be collected one prompt at a time before dispatch,
// and for Java it reorders the source so the class holding main comes first.
//
// # Basic Usage
//
//	exec, _ := executor.New(
//	    executor.WithScript("javascript", javascript.New()),
//	    executor.WithRemote(remote.New(remote.Config{})),
//	)
//	defer exec.Close()
//
//	o := orchestrator.New(exec, requester)
//	desc, _ := language.Default().Lookup("java")
//	res, err := o.RunOnce(ctx, desc, source, "")
//	if err != nil {
//	    fmt.Println(orchestrator.FormatFailure(err))
//	}
//	fmt.Println(res.Output)
//
// The requester is anything implementing [orchestrator.InputRequester]:
// a terminal prompt, a WebSocket client through
// [orchestrator.InputChannel], or [orchestrator.Decline] when nobody can
// be asked.
//
// See the [executor], [orchestrator], [analysis] and [remote] packages for
// detailed API documentation.
package runpad
