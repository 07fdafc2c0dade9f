package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelsmith/internal/paths"
)

var (
	cleanDryRun bool
	cleanLogs   bool
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stage artifacts and render state",
		RunE:  runClean,
	}
	cmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "List what would be removed without deleting")
	cmd.Flags().BoolVar(&cleanLogs, "logs", false, "Also remove log files")
	return cmd
}

type cleanResult struct {
	Removed    int   `json:"removed"`
	FreedBytes int64 `json:"freed_bytes"`
	DryRun     bool  `json:"dry_run"`
}

func runClean(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		out = io.Discard
	}
	result := cleanResult{DryRun: cleanDryRun}

	if err := removeTree(pp.BuildDir, out, &result); err != nil {
		return err
	}
	if err := removeFile(pp.StateFile, out, &result); err != nil {
		return err
	}
	if cleanLogs {
		if err := removeTree(pp.LogsDir, out, &result); err != nil {
			return err
		}
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	verb := "Removed"
	if cleanDryRun {
		verb = "Would remove"
	}
	fmt.Fprintf(out, "%s %d files (%.1f MB)\n", verb, result.Removed, float64(result.FreedBytes)/(1<<20))
	return nil
}

// removeTree deletes every regular file below dir, then the emptied
// directories. The directory itself is kept.
func removeTree(dir string, out io.Writer, result *cleanResult) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, f := range files {
		if err := removeFile(f, out, result); err != nil {
			return err
		}
	}
	if cleanDryRun {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = os.RemoveAll(filepath.Join(dir, e.Name()))
		}
	}
	return nil
}

func removeFile(path string, out io.Writer, result *cleanResult) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	result.Removed++
	result.FreedBytes += info.Size()
	if cleanDryRun {
		fmt.Fprintf(out, "would remove %s\n", path)
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
