// Package python provides the Python language adapter for runpad. The
// interpreter is a CPython build for WASI, loaded from disk; it is not
// bundled into the binary.
package python

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrModuleMissing is returned when no interpreter module exists at the
// configured path.
var ErrModuleMissing = errors.New("python interpreter module not found (run `runpad interpreter fetch`)")

// Python implements executor.Interpreter and executor.DirMounter.
type Python struct {
	modulePath string
	libDir     string
}

// Option configures a Python adapter.
type Option func(*Python)

// WithLibDir mounts dir read-only as the guest's /usr/local/lib, where
// CPython WASI builds look for their standard library.
func WithLibDir(dir string) Option {
	return func(p *Python) {
		p.libDir = dir
	}
}

// New returns a Python adapter whose module is read from modulePath.
func New(modulePath string, opts ...Option) *Python {
	p := &Python{modulePath: modulePath}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "python".
func (p *Python) Name() string {
	return "python"
}

// Module reads the interpreter binary.
func (p *Python) Module() ([]byte, error) {
	if p.modulePath == "" {
		return nil, ErrModuleMissing
	}
	bin, err := os.ReadFile(p.modulePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModuleMissing, p.modulePath)
	}
	return bin, err
}

// Args runs code unbuffered so output and tracebacks stay in order.
func (p *Python) Args(code string) []string {
	return []string{"python", "-u", "-c", code}
}

// Mounts exposes the standard library directory when one is configured.
func (p *Python) Mounts() map[string]string {
	if p.libDir == "" {
		return nil
	}
	return map[string]string{"/usr/local/lib": p.libDir}
}
