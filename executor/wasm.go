package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned when an Executor is used after Close.
var ErrClosed = errors.New("executor closed")

// wasmHost owns the wazero runtime and the compiled interpreter modules.
// Each interpreter is compiled at most once; concurrent first callers
// share one compilation and a failed one is retried on the next call.
type wasmHost struct {
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled map[string]wazero.CompiledModule
	group    singleflight.Group
	logger   *zap.Logger
	mu       sync.RWMutex
	closed   bool
}

func newWasmHost(ctx context.Context, cfg executorConfig) (*wasmHost, error) {
	var cache wazero.CompilationCache
	var err error

	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = DefaultCacheDir()
		}
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		if cache != nil {
			cache.Close(ctx)
		}
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	return &wasmHost{
		runtime:  rt,
		cache:    cache,
		compiled: make(map[string]wazero.CompiledModule),
		logger:   cfg.logger,
	}, nil
}

// module returns the compiled module for interp, compiling it on first use.
func (h *wasmHost) module(ctx context.Context, interp Interpreter) (wazero.CompiledModule, error) {
	name := interp.Name()

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return nil, ErrClosed
	}
	if compiled, ok := h.compiled[name]; ok {
		h.mu.RUnlock()
		return compiled, nil
	}
	h.mu.RUnlock()

	// The compilation outlives any single caller's cancellation since
	// other callers may be waiting on it.
	compileCtx := context.WithoutCancel(ctx)
	v, err, shared := h.group.Do(name, func() (any, error) {
		h.mu.RLock()
		compiled, ok := h.compiled[name]
		h.mu.RUnlock()
		if ok {
			return compiled, nil
		}

		start := time.Now()
		bin, err := interp.Module()
		if err != nil {
			return nil, fmt.Errorf("load %s module: %w", name, err)
		}
		compiled, err = h.runtime.CompileModule(compileCtx, bin)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed {
			compiled.Close(compileCtx)
			return nil, ErrClosed
		}
		h.compiled[name] = compiled
		h.logger.Info("interpreter ready",
			zap.String("interpreter", name),
			zap.Duration("compile", time.Since(start)))
		return compiled, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		h.logger.Debug("interpreter init shared", zap.String("interpreter", name))
	}
	return v.(wazero.CompiledModule), nil
}

func (h *wasmHost) ready(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.compiled[name]
	return ok
}

// run instantiates compiled with console as its stdio. A non-zero guest
// exit is returned as *sys.ExitError.
func (h *wasmHost) run(ctx context.Context, compiled wazero.CompiledModule, interp Interpreter, code string, console *Console) error {
	moduleConfig := wazero.NewModuleConfig().
		WithStdout(console).
		WithStderr(console.Stderr()).
		WithStdin(console.Stdin()).
		WithArgs(interp.Args(code)...).
		WithName("")

	if m, ok := interp.(DirMounter); ok {
		guestPaths := make([]string, 0, len(m.Mounts()))
		for guest := range m.Mounts() {
			guestPaths = append(guestPaths, guest)
		}
		sort.Strings(guestPaths)
		fsConfig := wazero.NewFSConfig()
		for _, guest := range guestPaths {
			fsConfig = fsConfig.WithReadOnlyDirMount(m.Mounts()[guest], guest)
		}
		moduleConfig = moduleConfig.WithFSConfig(fsConfig)
	}

	mod, err := h.runtime.InstantiateModule(ctx, compiled, moduleConfig)
	if mod != nil {
		mod.Close(ctx)
	}
	return err
}

func (h *wasmHost) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	ctx := context.Background()

	var errs []error
	if err := h.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if h.cache != nil {
		if err := h.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// exitCode reports the guest exit code carried by err, if any.
func exitCode(err error) (uint32, bool) {
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// DefaultCacheDir is where compiled modules and downloaded interpreters live
// unless configured otherwise.
func DefaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "runpad")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "runpad")
	}
	return filepath.Join(os.TempDir(), "runpad-cache")
}
