package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var interpreterCmd = &cobra.Command{
	Use:   "interpreter",
	Short: "Manage the Python WebAssembly interpreter",
	Long: `Python programs run on a WASI build of CPython loaded from disk.

The module path comes from --python-module or interpreters.python.module in
the config file, and defaults to python.wasm in the cache directory.`,
}

var interpreterFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the interpreter module",
	RunE:  runInterpreterFetch,
}

var interpreterStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the interpreter module is and whether it loads",
	RunE:  runInterpreterStatus,
}

func init() {
	interpreterFetchCmd.Flags().String("url", "", "Module URL (default: interpreters.python.url from config)")
	interpreterFetchCmd.Flags().Bool("force", false, "Download even if the module exists")

	interpreterCmd.AddCommand(interpreterFetchCmd, interpreterStatusCmd)
	rootCmd.AddCommand(interpreterCmd)
}

func runInterpreterFetch(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	force, _ := cmd.Flags().GetBool("force")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if url == "" {
		url = cfg.Interpreters.Python.URL
	}
	if url == "" {
		return errors.New("no module URL: pass --url or set interpreters.python.url")
	}

	dest := cfg.Interpreters.Python.Module
	if !force {
		if _, err := os.Stat(dest); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already exists (use --force to replace)\n", dest)
			return nil
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Downloading %s...\n", url)
	n, err := downloadFile(cmd.Context(), url, dest)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", dest, n)
	return nil
}

// downloadFile writes url to dest through a temp file in the same
// directory, so an interrupted download never leaves a truncated module.
func downloadFile(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".python-*.wasm")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	return n, os.Rename(tmpPath, dest)
}

func runInterpreterStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	path := a.cfg.Interpreters.Python.Module
	fmt.Fprintf(out, "module:  %s\n", path)
	if a.cfg.Interpreters.Python.LibDir != "" {
		fmt.Fprintf(out, "lib dir: %s\n", a.cfg.Interpreters.Python.LibDir)
	}

	if err := a.exec.Warm(cmd.Context(), "python"); err != nil {
		fmt.Fprintf(out, "status:  unavailable (%v)\n", err)
		return nil
	}
	fmt.Fprintln(out, "status:  ready")
	return nil
}
