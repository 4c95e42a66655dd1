package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	console "github.com/danielgatis/go-headless-console"
)

var (
	replayDetail string
	replayRows   int
	replayCols   int
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Replay a recording and print the resulting screen as JSON",
	Long: `Feed a recording (raw console output, which may embed private editing
commands) into a fresh console and print its snapshot. Use - to read stdin.

Example:
  headless-console run --record session.rec
  headless-console replay session.rec --detail styled`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayDetail, "detail", string(console.SnapshotDetailText), "snapshot detail: text, styled or full")
	replayCmd.Flags().IntVar(&replayRows, "rows", 0, "screen rows (default: terminal.rows)")
	replayCmd.Flags().IntVar(&replayCols, "cols", 0, "screen columns (default: terminal.cols)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading recording: %w", err)
	}

	detail := console.SnapshotDetail(replayDetail)
	switch detail {
	case console.SnapshotDetailText, console.SnapshotDetailStyled, console.SnapshotDetailFull:
	default:
		return fmt.Errorf("unknown detail %q", replayDetail)
	}

	snap := replay(data, detail)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// replay writes data into a console configured like the recording one.
func replay(data []byte, detail console.SnapshotDetail) *console.ConsoleSnapshot {
	rows, cols := cfg.Terminal.Rows, cfg.Terminal.Cols
	if replayRows > 0 {
		rows = replayRows
	}
	if replayCols > 0 {
		cols = replayCols
	}

	c := console.NewConsole(
		console.WithPrompt(cfg.Console.Prompt),
		console.WithInsertMode(cfg.Console.InsertMode),
		console.WithTerminal(console.WithSize(rows, cols)),
	)
	_, _ = c.Write(data)
	c.Sync()
	return c.Snapshot(detail)
}
