package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/runpad/executor"
	"github.com/caffeineduck/runpad/orchestrator"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a program once",
	Long: `Run a program and print its output.

Code can be provided via:
  - File argument: runpad run Main.java
  - Inline flag: runpad run -l python -c 'print(input("Name? "))'
  - Stdin: echo 'console.log(1+1)' | runpad run -l js

When the program asks for input and the terminal is interactive, you are
prompted for each value. For Java, C and C++ every detected prompt is asked
before the run and the answers replace --stdin; use --no-prompt to send
--stdin as is. Ctrl-C or Ctrl-D answers with an empty value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Code to execute")
	cmd.Flags().String("stdin", "", "Program input, one value per line")
	cmd.Flags().String("stdin-file", "", "Read program input from file")
	cmd.Flags().Bool("no-prompt", false, "Never ask for input; send --stdin unchanged")
	cmd.Flags().Duration("timeout", 0, "Execution timeout (default from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	code, _ := cmd.Flags().GetString("code")
	lang, _ := cmd.Flags().GetString("lang")
	stdin, _ := cmd.Flags().GetString("stdin")
	stdinFile, _ := cmd.Flags().GetString("stdin-file")
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	var source string
	var filename string
	sourceFromStdin := false

	switch {
	case code != "":
		source = code
	case len(args) > 0:
		filename = args[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			return err
		}
		source = string(data)
	default:
		// Check if stdin has data (not a terminal)
		if readline.IsTerminal(int(os.Stdin.Fd())) {
			// No piped input, show help
			return cmd.Help()
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		source = string(data)
		sourceFromStdin = true
		if source == "" {
			return cmd.Help()
		}
	}

	if stdinFile != "" {
		data, err := os.ReadFile(stdinFile)
		if err != nil {
			return err
		}
		stdin = string(data)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	desc, err := a.registry.Resolve(lang, filename)
	if err != nil {
		return err
	}

	var requester orchestrator.InputRequester = orchestrator.Decline
	if !noPrompt && !sourceFromStdin && readline.IsTerminal(int(os.Stdin.Fd())) {
		term, err := newTerminalRequester(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer term.Close()
		requester = term
	}

	if timeout == 0 {
		timeout = a.cfg.RunTimeout
	}
	o := orchestrator.New(a.exec, requester,
		orchestrator.WithLogger(a.log),
		orchestrator.WithTimeout(timeout))

	res, err := o.RunOnce(cmd.Context(), desc, source, stdin)
	return printResult(cmd, res, err)
}

// printResult writes a run's output, or its failure to stderr. A run
// that could not complete and a program fault both exit non-zero.
func printResult(cmd *cobra.Command, res executor.Result, err error) error {
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), orchestrator.FormatFailure(err))
		return exitCode(1)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Output)
	if res.Failed {
		return exitCode(1)
	}
	return nil
}

// exitCode ends the process with a status after output was already
// written, without printing an error.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
