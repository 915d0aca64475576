package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/isojs/isojs/pool"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a script (stateless execution)",
	Long: `Execute a script in a pooled isolate and print its completion value.

Source can be provided via:
  - File argument: isojs run script.js
  - Inline flag: isojs run -c '1 + 2'
  - Stdin: echo '1 + 2' | isojs run`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Script to execute")
	cmd.Flags().String("origin", "", "Origin name used in error locations (default: file name or <run>)")
	cmd.Flags().Duration("timeout", 0, "Execution deadline (default from ISOJS_TIMEOUT)")
	cmd.Flags().Bool("json", false, "Emit a JSON envelope instead of the bare value")
}

// runEnvelope is the machine-readable output of isojs run --json.
type runEnvelope struct {
	Value      json.RawMessage `json:"value"`
	DurationMS float64         `json:"duration_ms"`
	Worker     string          `json:"worker"`
}

func runRun(cmd *cobra.Command, args []string) {
	cfg := LoadConfig()
	log := cfg.Logger()
	defer log.Sync()
	applyStrict(cmd)

	source, origin := readSource(cmd, args)
	if source == "" {
		cmd.Help()
		return
	}
	if flagOrigin, _ := cmd.Flags().GetString("origin"); flagOrigin != "" {
		origin = flagOrigin
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = cfg.Timeout
	}

	p, err := pool.New(pool.Config{
		Size:        1,
		ExecTimeout: timeout,
		Logger:      log,
	})
	if err != nil {
		fatal(err)
	}
	defer p.Close()

	res, err := p.Run(context.Background(), source, origin)
	if err != nil {
		fatal(err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		raw := res.JSON
		if !json.Valid([]byte(raw)) {
			// undefined and function values stringify to non-JSON text.
			raw = "null"
		}
		out, err := sonic.MarshalString(runEnvelope{
			Value:      json.RawMessage(raw),
			DurationMS: float64(res.Duration) / float64(time.Millisecond),
			Worker:     res.WorkerID,
		})
		if err != nil {
			fatal(err)
		}
		fmt.Println(out)
		return
	}
	fmt.Println(res.JSON)
}

// readSource resolves the script text from flag, file argument, or stdin.
func readSource(cmd *cobra.Command, args []string) (source, origin string) {
	code, _ := cmd.Flags().GetString("code")
	switch {
	case code != "":
		return code, "<run>"
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal(err)
		}
		return string(data), args[0]
	default:
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", ""
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal(err)
		}
		return string(data), "<stdin>"
	}
}
