package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"reelsmith/internal/captions"
	"reelsmith/pkg/sceneplan"
)

var layoutTranscript string

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the caption lines and blocks a transcript segments into",
		RunE:  runLayout,
	}
	cmd.Flags().StringVar(&layoutTranscript, "transcript", "", "Word-level transcript JSON")
	return cmd
}

type layoutLine struct {
	Block    int     `json:"block"`
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Width    int     `json:"width"`
	Overflow bool    `json:"overflow,omitempty"`
}

func runLayout(cmd *cobra.Command, _ []string) error {
	if err := requireFlag("transcript", layoutTranscript); err != nil {
		return err
	}
	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}

	words, err := sceneplan.LoadTranscript(pp.ResolveInput(layoutTranscript))
	if err != nil && len(words) == 0 {
		return err
	}
	opts, err := captions.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	engine := captions.NewEngine(pp.Root)
	defer engine.Close()
	builder := captions.NewBuilder(engine, captions.NewRenderCache(), opts, zerolog.Nop())

	var lines []layoutLine
	for bi, block := range captions.GroupBlocks(builder.Lines(words), opts.LineCount) {
		for _, line := range block.Lines {
			width, err := engine.Measure(line.Text, builder.Options.Style)
			if err != nil {
				return err
			}
			lines = append(lines, layoutLine{
				Block:    bi + 1,
				Text:     line.Text,
				Start:    line.Start,
				End:      line.End,
				Width:    width,
				Overflow: line.Overflow,
			})
		}
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), lines)
	}
	writeLayout(cmd.OutOrStdout(), lines, opts.MaxWidth)
	return nil
}

func writeLayout(w io.Writer, lines []layoutLine, maxWidth int) {
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		width := strconv.Itoa(l.Width)
		if l.Overflow {
			width += " !"
		}
		rows = append(rows, []string{strconv.Itoa(l.Block), seconds(l.Start), seconds(l.End), width, l.Text})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"BLOCK", "START", "END", "WIDTH", "TEXT"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(w, "%d lines, max width %dpx\n", len(lines), maxWidth)
}
