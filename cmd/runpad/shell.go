package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/runpad/language"
	"github.com/caffeineduck/runpad/orchestrator"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Edit and run programs interactively",
	Long: `Start an interactive editing session.

Lines you type are appended to the current program. Commands start with a
colon:
  :run          run the program, answering its prompts as they come
  :lang <id>    switch language and load its starter program
  :load <file>  replace the program with a file (language from extension)
  :show         print the program
  :clear        empty the program
  :help         list commands

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().String("history", "", "History file path (default: ~/.runpad_history)")
	rootCmd.AddCommand(shellCmd)
}

const shellPrompt = "> "

// editor holds the program being edited in a shell session.
type editor struct {
	registry *language.Registry
	lang     language.Descriptor
	lines    []string
}

func (e *editor) setLanguage(d language.Descriptor) {
	e.lang = d
	e.lines = strings.Split(d.DefaultSource, "\n")
}

func (e *editor) source() string {
	return strings.Join(e.lines, "\n")
}

func runShell(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	historyFile, _ := cmd.Flags().GetString("history")

	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".runpad_history")
	}
	if lang == "" {
		lang = "javascript"
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	desc, err := a.registry.Resolve(lang, "")
	if err != nil {
		return err
	}
	ed := &editor{registry: a.registry}
	ed.setLanguage(desc)

	out := cmd.OutOrStdout()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            shellPrompt,
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            out,
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	o := orchestrator.New(a.exec, shareRequester(rl, out),
		orchestrator.WithLogger(a.log),
		orchestrator.WithTimeout(a.cfg.RunTimeout))

	fmt.Fprintf(cmd.ErrOrStderr(), "runpad shell, %s loaded (type :help for commands)\n", ed.lang.DisplayName)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "exit" || trimmed == "quit" {
			return nil
		}
		if !strings.HasPrefix(trimmed, ":") {
			ed.lines = append(ed.lines, line)
			continue
		}

		name, arg, _ := strings.Cut(trimmed[1:], " ")
		arg = strings.TrimSpace(arg)
		switch name {
		case "run":
			res, err := o.RunOnce(cmd.Context(), ed.lang, ed.source(), "")
			if err != nil {
				fmt.Fprintln(out, orchestrator.FormatFailure(err))
				continue
			}
			fmt.Fprintln(out, res.Output)
		case "lang":
			d, err := ed.registry.Resolve(arg, "")
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				continue
			}
			ed.setLanguage(d)
			fmt.Fprintf(out, "%s loaded\n", d.DisplayName)
		case "load":
			data, err := os.ReadFile(arg)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				continue
			}
			if d, ok := ed.registry.ForFile(arg); ok {
				ed.lang = d
			}
			ed.lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			fmt.Fprintf(out, "loaded %s as %s\n", arg, ed.lang.DisplayName)
		case "show":
			for i, l := range ed.lines {
				fmt.Fprintf(out, "%3d  %s\n", i+1, l)
			}
		case "clear":
			ed.lines = nil
		case "help":
			fmt.Fprintln(out, cmd.Long)
		default:
			fmt.Fprintf(cmd.ErrOrStderr(), "unknown command :%s (try :help)\n", name)
		}
	}
}
