package executor

import "context"

// Script is an in-process scripting runtime. Exec runs source to
// completion against console; a returned error is a fault raised by the
// program, not by the runtime plumbing.
type Script interface {
	// Name identifies the runtime in logs.
	Name() string

	Exec(ctx context.Context, source string, console *Console) error
}

// Interpreter defines a WASI interpreter module run by the embedded
// interpreter host.
type Interpreter interface {
	// Name returns a unique identifier for this interpreter (e.g., "python").
	// Used as the cache key for the compiled module.
	Name() string

	// Module returns the WASM binary for the interpreter.
	Module() ([]byte, error)

	// Args returns the command-line arguments that make the interpreter
	// run code, e.g. []string{"python", "-c", code}.
	Args(code string) []string
}

// DirMounter is implemented by interpreters that need host directories,
// such as a standard library tree, visible to the guest. Mounts map guest
// paths to host directories and are read-only.
type DirMounter interface {
	Mounts() map[string]string
}
