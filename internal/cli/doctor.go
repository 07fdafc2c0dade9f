package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/media"
	"reelsmith/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg, ffprobe, encoders and configuration",
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"` // "ok", "warning", "error"
	Summary string   `json:"summary"`
	Hints   []string `json:"hints,omitempty"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	runner := media.CmdRunner{}

	statuses := tools.Detect(ctx, runner, cfg.Tools)
	var checks []healthCheck
	for _, st := range statuses {
		checks = append(checks, checkTool(st))
	}
	for _, st := range statuses {
		if st.Tool == "ffmpeg" && st.Satisfied {
			checks = append(checks, checkEncoders(cmd, runner, st.Path, cfg))
		}
	}
	checks = append(checks, checkConfig(cfg, pp.Root))

	if err := writeDoctorResult(cmd.OutOrStdout(), pp.Root, checks); err != nil {
		return err
	}
	for _, c := range checks {
		if c.Status == "error" {
			return fmt.Errorf("%s check failed", strings.ToLower(c.Name))
		}
	}
	return nil
}

func checkTool(st tools.Status) healthCheck {
	if st.Satisfied {
		return healthCheck{Name: st.Tool, Status: "ok", Summary: fmt.Sprintf("%s (%s)", st.Version, st.Path)}
	}
	return healthCheck{Name: st.Tool, Status: "error", Summary: st.Error, Hints: st.Hints}
}

func checkEncoders(cmd *cobra.Command, runner media.Runner, ffmpegPath string, cfg config.Config) healthCheck {
	checks, err := tools.CheckEncoders(commandContext(cmd), runner, ffmpegPath, cfg.Video.Codec, cfg.Audio.Codec)
	if err != nil {
		return healthCheck{Name: "Encoders", Status: "warning", Summary: err.Error()}
	}
	var have, missing []string
	for _, c := range checks {
		if c.Available {
			have = append(have, c.Encoder)
		} else {
			missing = append(missing, c.Encoder)
		}
	}
	if len(missing) > 0 {
		return healthCheck{
			Name:    "Encoders",
			Status:  "error",
			Summary: "missing " + strings.Join(missing, ", "),
			Hints:   []string{"set video.codec / audio.codec to an encoder listed by ffmpeg -encoders"},
		}
	}
	return healthCheck{Name: "Encoders", Status: "ok", Summary: strings.Join(have, ", ")}
}

func checkConfig(cfg config.Config, root string) healthCheck {
	results := cfg.ValidateStrict(root)
	var warnings, errs int
	var first string
	for _, v := range results {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errs++
			if first == "" {
				first = v.Message
			}
		}
	}

	summary := fmt.Sprintf("%dx%d @ %d fps", cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS)
	if errs > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%d errors: %s", errs, first)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func writeDoctorResult(out io.Writer, projectRoot string, checks []healthCheck) error {
	if outputJSON {
		return writeJSON(out, checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+projectRoot)
	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
		for _, hint := range c.Hints {
			fmt.Fprintf(out, "  %-12s %s\n", "", hint)
		}
	}
	return nil
}
