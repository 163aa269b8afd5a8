package executor

import (
	"time"

	"go.uber.org/zap"

	"github.com/caffeineduck/runpad/remote"
)

// Option configures a single Execute call.
type Option func(*runConfig)

type runConfig struct {
	timeout time.Duration
	input   InputFunc
	echoed  []string
}

func defaultRunConfig() runConfig {
	return runConfig{}
}

// WithTimeout bounds a single execution. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// WithInput sets the function asked for input once batched stdin is used
// up. Without it, reads past the batch see end of input.
func WithInput(fn InputFunc) Option {
	return func(c *runConfig) {
		c.input = fn
	}
}

// WithEchoedPrompts lists prompt texts the program is expected to print;
// remote and embedded runs strip the first occurrence of each from the
// output.
func WithEchoedPrompts(prompts ...string) Option {
	return func(c *runConfig) {
		c.echoed = append(c.echoed, prompts...)
	}
}

// ExecutorOption configures the Executor at creation time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	logger           *zap.Logger
	remote           *remote.Client
	scripts          map[string]Script
	interpreters     map[string]Interpreter
	diskCache        bool
	cacheDir         string
	precompile       []string // interpreter language IDs compiled at startup
	memoryLimitPages uint32   // Max memory pages (each page = 64KB), 0 = default (4GB)
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		logger:       zap.NewNop(),
		scripts:      make(map[string]Script),
		interpreters: make(map[string]Interpreter),
	}
}

// WithLogger sets the logger used for dispatch and lifecycle events.
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(c *executorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRemote sets the client used for remote-service languages.
func WithRemote(client *remote.Client) ExecutorOption {
	return func(c *executorConfig) {
		c.remote = client
	}
}

// WithScript registers the in-process runtime for a language ID.
func WithScript(langID string, s Script) ExecutorOption {
	return func(c *executorConfig) {
		c.scripts[langID] = s
	}
}

// WithInterpreter registers the WASI interpreter for a language ID.
func WithInterpreter(langID string, i Interpreter) ExecutorOption {
	return func(c *executorConfig) {
		c.interpreters[langID] = i
	}
}

// WithDiskCache enables persistent compilation cache for faster CLI startup.
// Optionally provide a custom directory; otherwise uses ~/.cache/runpad or XDG_CACHE_HOME/runpad.
//
// Examples:
//
//	executor.New(executor.WithDiskCache())            // default dir
//	executor.New(executor.WithDiskCache("/tmp/cache")) // custom dir
func WithDiskCache(dir ...string) ExecutorOption {
	return func(c *executorConfig) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithPrecompile compiles the interpreters for the given language IDs when
// the Executor is created rather than on first use.
func WithPrecompile(langIDs ...string) ExecutorOption {
	return func(c *executorConfig) {
		c.precompile = langIDs
	}
}

// WithMemoryLimit sets the maximum memory available to interpreter
// modules. Each page is 64KB. Examples:
//   - WithMemoryLimit(256) = 16MB max
//   - WithMemoryLimit(4096) = 256MB max
//
// Default is 0 (no limit, up to 4GB).
func WithMemoryLimit(pages uint32) ExecutorOption {
	return func(c *executorConfig) {
		c.memoryLimitPages = pages
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit16MB  uint32 = 256   // 16 MB
	MemoryLimit64MB  uint32 = 1024  // 64 MB
	MemoryLimit256MB uint32 = 4096  // 256 MB
	MemoryLimit1GB   uint32 = 16384 // 1 GB
)
