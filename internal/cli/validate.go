package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/pkg/sceneplan"
)

var (
	validatePlan       string
	validateTranscript string
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the scene plan, transcript, assets and configuration without rendering",
		RunE:  runValidate,
	}
	cmd.Flags().StringVar(&validatePlan, "plan", "", "Scene plan JSON")
	cmd.Flags().StringVar(&validateTranscript, "transcript", "", "Word-level transcript JSON")
	return cmd
}

type validationIssue struct {
	Level   string `json:"level"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

type validationReport struct {
	Valid  bool              `json:"valid"`
	Scenes int               `json:"scenes"`
	Words  int               `json:"words"`
	Issues []validationIssue `json:"issues"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if err := requireFlag("plan", validatePlan); err != nil {
		return err
	}
	if err := requireFlag("transcript", validateTranscript); err != nil {
		return err
	}
	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}

	report := buildValidationReport(pp.ResolveInput(validatePlan), pp.ResolveInput(validateTranscript), cfg, pp.Root)
	if outputJSON {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		writeValidationReport(cmd.OutOrStdout(), report)
	}
	if !report.Valid {
		return errors.New("validation failed")
	}
	return nil
}

// buildValidationReport classifies problems the way a run would treat them:
// anything that stops a run is an error, anything that only degrades it is a
// warning.
func buildValidationReport(planPath, transcriptPath string, cfg config.Config, root string) validationReport {
	report := validationReport{Issues: []validationIssue{}}
	add := func(level, source, message string) {
		report.Issues = append(report.Issues, validationIssue{Level: level, Source: source, Message: message})
	}

	plan, err := sceneplan.LoadPlan(planPath)
	var verrs sceneplan.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		for _, issue := range verrs {
			switch {
			case issue.Scene == 0:
				add("error", "plan", issue.Error())
			case issue.Field == "fx_suggestion.type":
				add("warning", "plan", issue.Error()+" (overlay ignored)")
			default:
				add("warning", "plan", issue.Error()+" (scene skipped)")
			}
		}
	default:
		add("error", "plan", err.Error())
	}
	report.Scenes = len(plan.Scenes)

	if len(plan.Scenes) > 0 || plan.MasterVOPath != "" {
		checkFile := func(level, label, path string) {
			if path == "" {
				return
			}
			if _, err := os.Stat(path); err != nil {
				add(level, "assets", fmt.Sprintf("%s %s not found", label, path))
			}
		}
		checkFile("error", "voiceover", plan.VoiceoverPath())
		checkFile("warning", "background music", plan.MusicPath())
		for i, scene := range plan.Scenes {
			checkFile("warning", fmt.Sprintf("scene #%d asset", i+1), plan.ResolvePath(scene.AssetPath))
		}
	}

	words, err := sceneplan.LoadTranscript(transcriptPath)
	verrs = nil
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		for _, issue := range verrs {
			add("warning", "transcript", issue.Error())
		}
	default:
		add("error", "transcript", err.Error())
	}
	report.Words = len(words)

	for _, r := range cfg.ValidateStrict(root) {
		add(r.Level, "config", r.Message)
	}

	report.Valid = true
	for _, issue := range report.Issues {
		if issue.Level == "error" {
			report.Valid = false
		}
	}
	return report
}

func writeValidationReport(w io.Writer, report validationReport) {
	fmt.Fprintf(w, "%d scenes, %d words\n", report.Scenes, report.Words)
	if len(report.Issues) == 0 {
		fmt.Fprintln(w, "No problems found.")
		return
	}
	rows := make([][]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		rows = append(rows, []string{issue.Level, issue.Source, issue.Message})
	}
	fmt.Fprintln(w, renderTable([]string{"LEVEL", "SOURCE", "MESSAGE"}, rows, nil))
	if report.Valid {
		fmt.Fprintln(w, "Inputs are usable; warnings degrade the render.")
	}
}
