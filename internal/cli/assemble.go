package cli

import (
	"fmt"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/logx"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/tui"
)

var (
	assemblePlan       string
	assembleTranscript string
	assembleOutput     string
	assembleForce      bool
	assembleNoProgress bool
)

func newAssembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Render the final video from a scene plan and transcript",
		RunE:  runAssemble,
	}

	cmd.Flags().StringVar(&assemblePlan, "plan", "", "Scene plan JSON")
	cmd.Flags().StringVar(&assembleTranscript, "transcript", "", "Word-level transcript JSON")
	cmd.Flags().StringVarP(&assembleOutput, "output", "o", "", "Output file (default output/<video_project_id>.mp4)")
	cmd.Flags().BoolVar(&assembleForce, "force", false, "Re-run every stage even if its inputs are unchanged")
	cmd.Flags().BoolVar(&assembleNoProgress, "no-progress", false, "Disable interactive progress output")

	return cmd
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	if err := requireFlag("plan", assemblePlan); err != nil {
		return err
	}
	if err := requireFlag("transcript", assembleTranscript); err != nil {
		return err
	}
	ctx := commandContext(cmd)

	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}
	if results := cfg.ValidateStrict(pp.Root); config.HasErrors(results) {
		for _, r := range results {
			if r.Level == "error" {
				fmt.Fprintf(cmd.ErrOrStderr(), "config: %s\n", r.Message)
			}
		}
		return fmt.Errorf("configuration is invalid")
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, assembleNoProgress, outputJSON)

	var console io.Writer
	if verbose && mode != tui.ModeTUI {
		console = cmd.ErrOrStderr()
	}
	logger, closer, err := logx.New(pp, logx.Options{Console: console, Verbose: verbose})
	if err != nil {
		return err
	}
	defer closer.Close()

	p := pipeline.New(pp, cfg, nil, logger)
	in := pipeline.Inputs{
		PlanPath:       pp.ResolveInput(assemblePlan),
		TranscriptPath: pp.ResolveInput(assembleTranscript),
		Output:         assembleOutput,
		Force:          assembleForce,
	}

	var result pipeline.Result
	switch mode {
	case tui.ModeTUI:
		model := tui.NewStageModel("reelsmith assemble " + filepath.Base(in.PlanPath))
		err = tui.RunWithWork(out, model, func(send func(tea.Msg)) error {
			p.Reporter = tui.NewStageReporter(send)
			var runErr error
			result, runErr = p.Run(ctx, in)
			return runErr
		})
	case tui.ModePlain:
		p.Reporter = tui.NewPlainReporter(cmd.ErrOrStderr())
		result, err = p.Run(ctx, in)
	default:
		result, err = p.Run(ctx, in)
	}

	if outputJSON {
		payload := struct {
			pipeline.Result
			Error string `json:"error,omitempty"`
		}{Result: result}
		if err != nil {
			payload.Error = err.Error()
		}
		if werr := writeJSON(out, payload); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return err
	}
	writeAssembleSummary(out, result)
	return nil
}

func writeAssembleSummary(w io.Writer, result pipeline.Result) {
	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)

	fmt.Fprintf(w, "\n%s %s\n", bold.Render("Output:"), result.Output)
	fmt.Fprintf(w, "Duration %.2fs, %d scenes, %d overlays, %d caption lines\n",
		result.Duration, len(result.Timeline.Entries), result.Overlays, result.CaptionLines)
	if len(result.Timeline.Entries) > 0 {
		writeTimeline(w, result.Timeline)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, yellow.Render(fmt.Sprintf("%d warnings:", len(result.Warnings))))
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}
