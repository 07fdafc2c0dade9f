package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"reelsmith/internal/pipeline"
	"reelsmith/internal/timeline"
)

var (
	planPlan       string
	planTranscript string
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the reconciled scene timeline without rendering",
		RunE:  runPlan,
	}
	cmd.Flags().StringVar(&planPlan, "plan", "", "Scene plan JSON")
	cmd.Flags().StringVar(&planTranscript, "transcript", "", "Word-level transcript JSON")
	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if err := requireFlag("plan", planPlan); err != nil {
		return err
	}
	if err := requireFlag("transcript", planTranscript); err != nil {
		return err
	}
	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}

	docs, err := pipeline.LoadDocuments(pp.ResolveInput(planPlan), pp.ResolveInput(planTranscript))
	if err != nil {
		return err
	}

	// Scenes whose asset is missing will be dropped by the visual stage.
	missing := map[int]string{}
	for i, scene := range docs.Plan.Scenes {
		if _, err := os.Stat(docs.Plan.ResolvePath(scene.AssetPath)); err != nil {
			missing[i] = "asset missing"
		}
	}
	tl, err := docs.Timeline(cfg, missing)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), tl)
	}
	writeTimeline(cmd.OutOrStdout(), tl)
	return nil
}

func writeTimeline(w io.Writer, tl timeline.Plan) {
	rows := make([][]string, 0, len(tl.Entries))
	for _, e := range tl.Entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Index + 1),
			e.SceneID,
			string(e.VisualType),
			seconds(e.Planned),
			seconds(e.Lead),
			seconds(e.Gap),
			seconds(e.Extension),
			seconds(e.Effective),
			seconds(e.Offset),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "SCENE", "TYPE", "PLANNED", "LEAD", "GAP", "EXTEND", "EFFECTIVE", "AT"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	for _, d := range tl.Dropped {
		fmt.Fprintf(w, "skipped #%d %s: %s\n", d.Index+1, d.SceneID, d.Reason)
	}
	fmt.Fprintf(w, "total %.2fs, speech ends at %.2fs\n", tl.Total(), tl.TranscriptEnd)
}
