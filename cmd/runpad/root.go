package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caffeineduck/runpad/executor"
	"github.com/caffeineduck/runpad/internal/config"
	"github.com/caffeineduck/runpad/internal/logger"
	"github.com/caffeineduck/runpad/language"
	"github.com/caffeineduck/runpad/language/golang"
	"github.com/caffeineduck/runpad/language/javascript"
	"github.com/caffeineduck/runpad/language/python"
	"github.com/caffeineduck/runpad/language/starlark"
	"github.com/caffeineduck/runpad/remote"
)

var rootCmd = &cobra.Command{
	Use:   "runpad [file]",
	Short: "Run snippets in JavaScript, Python, Starlark, Go, Java, C and C++",
	Long: `runpad - run code snippets and answer their input prompts interactively.

JavaScript, Starlark and Go run in-process, Python runs on a WebAssembly
interpreter, and Java, C and C++ are compiled and run by a remote
execution service. Prompts a program prints are asked before the remote
run, so stdin can be supplied in one batch.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRun, // Default to run command behavior
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringP("lang", "l", "", "Language ID or alias (default: detect from file extension)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable compilation cache")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("remote-url", "", "Remote execution API URL")
	rootCmd.PersistentFlags().String("python-module", "", "Path to the Python WASI interpreter module")
	rootCmd.PersistentFlags().String("memory", "", "Interpreter memory limit: 16mb, 64mb, 256mb, 1gb")

	// Add run-specific flags to root (for default command)
	addRunFlags(rootCmd)
}

// loadConfig reads --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetString("remote-url"); v != "" {
		cfg.Remote.URL = v
	}
	if v, _ := flags.GetString("python-module"); v != "" {
		cfg.Interpreters.Python.Module = v
	}
	if v, _ := flags.GetString("memory"); v != "" {
		pages, err := parseMemoryLimit(v)
		if err != nil {
			return cfg, err
		}
		cfg.MemoryLimitPages = pages
	}
	return cfg, nil
}

// app bundles what every command needs to run programs.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	registry *language.Registry
	exec     *executor.Executor
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	opts := []executor.ExecutorOption{
		executor.WithLogger(log),
		executor.WithRemote(remote.New(cfg.RemoteConfig())),
		executor.WithScript("javascript", javascript.New()),
		executor.WithScript("starlark", starlark.New()),
		executor.WithScript("go", golang.New()),
		executor.WithInterpreter("python", python.New(cfg.Interpreters.Python.Module,
			python.WithLibDir(cfg.Interpreters.Python.LibDir))),
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		opts = append(opts, executor.WithDiskCache(cfg.CacheDir))
	}
	if cfg.MemoryLimitPages > 0 {
		opts = append(opts, executor.WithMemoryLimit(cfg.MemoryLimitPages))
	}

	exec, err := executor.New(opts...)
	if err != nil {
		log.Sync()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		registry: defaultRegistry(cfg),
		exec:     exec,
	}, nil
}

func (a *app) Close() {
	a.exec.Close()
	a.log.Sync()
}

func parseMemoryLimit(s string) (uint32, error) {
	switch strings.ToLower(s) {
	case "16mb":
		return executor.MemoryLimit16MB, nil
	case "64mb":
		return executor.MemoryLimit64MB, nil
	case "256mb":
		return executor.MemoryLimit256MB, nil
	case "1gb":
		return executor.MemoryLimit1GB, nil
	default:
		return 0, fmt.Errorf("invalid memory limit %q (expected 16mb, 64mb, 256mb or 1gb)", s)
	}
}

func defaultRegistry(cfg config.Config) *language.Registry {
	return language.Default().WithRemote(cfg.Languages)
}
