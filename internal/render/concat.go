package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteConcatList writes an ffmpeg concat demuxer list to concatFile.
// It verifies each clip path exists before writing.
func WriteConcatList(concatFile string, clips []Clip) error {
	var missing []string
	for _, clip := range clips {
		if _, err := os.Stat(clip.Path); os.IsNotExist(err) {
			missing = append(missing, clip.Path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %d clip file(s):\n  %s", len(missing), strings.Join(missing, "\n  "))
	}

	f, err := os.Create(concatFile)
	if err != nil {
		return fmt.Errorf("create concat list: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "ffconcat version 1.0")
	for _, clip := range clips {
		fmt.Fprintf(f, "file %s\n", quoteConcatPath(clip.Path))
	}
	return nil
}

// quoteConcatPath escapes single quotes in paths for the concat file format.
func quoteConcatPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "'" + strings.ReplaceAll(abs, "'", `'\''`) + "'"
}

// ConcatClips joins normalized clips into one silent visual track,
// re-encoded at the target frame rate.
func (s *Service) ConcatClips(ctx context.Context, clips []Clip, output string) (Clip, error) {
	if len(clips) == 0 {
		return Clip{}, errors.New("no clips to concatenate")
	}
	listPath := strings.TrimSuffix(output, filepath.Ext(output)) + ".ffconcat"
	if err := os.MkdirAll(filepath.Dir(listPath), 0o755); err != nil {
		return Clip{}, fmt.Errorf("prepare concat dir: %w", err)
	}
	if err := WriteConcatList(listPath, clips); err != nil {
		return Clip{}, err
	}

	total := 0.0
	for _, clip := range clips {
		total += clip.Duration
	}

	args := BuildConcatArgs(listPath, s.FPS(), total, output, s.videoEncodeArgs())
	if err := s.ffmpeg(ctx, "concat", output, args); err != nil {
		return Clip{}, err
	}
	return Clip{Path: output, Duration: total, Size: s.Target(), FPS: s.FPS()}, nil
}

// BuildConcatArgs assembles the concat-demuxer join.
func BuildConcatArgs(listPath string, fps int, total float64, output string, encode []string) []string {
	args := []string{
		"-hide_banner", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vf", fpsFilter(fps),
		"-r", fmt.Sprint(fps),
		"-t", formatSeconds(total),
		"-an",
	}
	args = append(args, encode...)
	return append(args, "-movflags", "+faststart", output)
}
