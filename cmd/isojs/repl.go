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

	"github.com/isojs/isojs"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive REPL with persistent state",
	Long: `Start an interactive session backed by a single long-lived context.

Features:
  - Command history (up/down arrows)
  - History search (Ctrl+R)
  - Multi-line input (end line with \)

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
	Run: runRepl,
}

func init() {
	replCmd.Flags().String("history", "", "History file path (default: ~/.isojs_history)")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) {
	cfg := LoadConfig()
	log := cfg.Logger()
	defer log.Sync()
	applyStrict(cmd)

	historyFile, _ := cmd.Flags().GetString("history")
	if historyFile == "" {
		historyFile = cfg.HistoryFile
	}
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".isojs_history")
	}

	iso := isojs.NewIsolate()
	defer iso.Dispose()
	ctx := isojs.NewContext(iso)
	defer ctx.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fatal(err)
	}
	defer rl.Close()

	fmt.Fprintf(os.Stderr, "isojs %s (type 'exit' to quit, Ctrl+D to exit)\n", isojs.Version())

	var multiLine strings.Builder
	inMultiLine := false
	lineNo := 0

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if inMultiLine {
					multiLine.Reset()
					inMultiLine = false
					rl.SetPrompt("> ")
				}
				continue
			}
			if err == io.EOF {
				fmt.Println()
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			break
		}

		if strings.HasSuffix(line, "\\") {
			multiLine.WriteString(strings.TrimSuffix(line, "\\"))
			multiLine.WriteString("\n")
			inMultiLine = true
			rl.SetPrompt("... ")
			continue
		}
		if inMultiLine {
			multiLine.WriteString(line)
			line = multiLine.String()
			multiLine.Reset()
			inMultiLine = false
			rl.SetPrompt("> ")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		lineNo++
		val, err := ctx.RunScript(line, fmt.Sprintf("<repl:%d>", lineNo))
		if err != nil {
			printREPLError(err)
			continue
		}
		iso.PerformMicrotaskCheckpoint()
		fmt.Println(renderValue(ctx, val))
	}
}

// renderValue formats a completion value for the terminal: JSON where the
// value serializes, the engine's string form otherwise.
func renderValue(ctx *isojs.Context, val *isojs.Value) string {
	if val.IsUndefined() {
		return "undefined"
	}
	if s, err := isojs.JSONStringify(ctx, val); err == nil && s != "undefined" {
		return s
	}
	return val.String()
}

func printREPLError(err error) {
	var jsErr *isojs.JSError
	if errors.As(err, &jsErr) && jsErr.StackTrace != "" {
		fmt.Fprintln(os.Stderr, jsErr.StackTrace)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
