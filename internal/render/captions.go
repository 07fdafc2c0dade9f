package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// minSpan is the shortest interval worth a track entry.
const minSpan = 0.001

// CaptionFrame is one full-frame transparent caption image shown over
// [Start, End).
type CaptionFrame struct {
	Image string
	Start float64
	End   float64
}

// TrackEntry is one image and how long it stays on screen.
type TrackEntry struct {
	Image    string
	Duration float64
}

// BuildCaptionTrack lays caption frames on a timeline of length total,
// filling gaps with blank. Frames are expected in start order; an overlap
// is resolved in favour of the earlier frame.
func BuildCaptionTrack(frames []CaptionFrame, blank string, total float64) []TrackEntry {
	var entries []TrackEntry
	cursor := 0.0
	for _, frame := range frames {
		start := frame.Start
		if start < cursor {
			start = cursor
		}
		end := frame.End
		if total > 0 && end > total {
			end = total
		}
		if end-start < minSpan {
			continue
		}
		if gap := start - cursor; gap >= minSpan {
			entries = append(entries, TrackEntry{Image: blank, Duration: gap})
		}
		entries = append(entries, TrackEntry{Image: frame.Image, Duration: end - start})
		cursor = end
	}
	if tail := total - cursor; tail >= minSpan {
		entries = append(entries, TrackEntry{Image: blank, Duration: tail})
	}
	return entries
}

// WriteCaptionTrack writes entries as an ffconcat script. The final file is
// listed twice because the concat demuxer ignores the last duration.
func WriteCaptionTrack(path string, entries []TrackEntry) error {
	if len(entries) == 0 {
		return errors.New("caption track is empty")
	}
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "file %s\nduration %s\n", quoteConcatPath(entry.Image), formatSeconds(entry.Duration))
	}
	fmt.Fprintf(&b, "file %s\n", quoteConcatPath(entries[len(entries)-1].Image))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare caption track dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write caption track: %w", err)
	}
	return nil
}

// BuildCaptionArgs overlays the caption track on base as a single stream.
func BuildCaptionArgs(base, track string, duration float64, fps int, videoEncode []string, output string) []string {
	graph := fmt.Sprintf("[1:v]%s,format=rgba[cap];[0:v][cap]overlay=0:0:eof_action=pass:format=auto[vout]", fpsFilter(fps))
	args := []string{
		"-hide_banner", "-y",
		"-i", base,
		"-f", "concat",
		"-safe", "0",
		"-i", track,
		"-filter_complex", graph,
		"-map", "[vout]",
		"-map", "0:a?",
	}
	args = append(args, videoEncode...)
	return append(args,
		"-c:a", "copy",
		"-t", formatSeconds(duration),
		"-movflags", "+faststart",
		output,
	)
}

// BurnCaptions composites the caption frames onto base and writes the final
// file. With no frames the base is copied to output unchanged.
func (s *Service) BurnCaptions(ctx context.Context, base Clip, frames []CaptionFrame, blank, output string) (Clip, error) {
	if len(frames) == 0 {
		s.Logger.Info().Msg("no captions to burn, copying render")
		args := []string{"-hide_banner", "-y", "-i", base.Path, "-map", "0", "-c", "copy", "-movflags", "+faststart", output}
		if err := s.ffmpeg(ctx, "captions-copy", output, args); err != nil {
			return Clip{}, err
		}
		return s.probeClip(ctx, output)
	}

	entries := BuildCaptionTrack(frames, blank, base.Duration)
	track := strings.TrimSuffix(output, filepath.Ext(output)) + ".captions.ffconcat"
	if dir := s.Paths.CaptionsDir; dir != "" {
		track = filepath.Join(dir, "track.ffconcat")
	}
	if err := WriteCaptionTrack(track, entries); err != nil {
		return Clip{}, err
	}

	args := BuildCaptionArgs(base.Path, track, base.Duration, s.FPS(), s.videoEncodeArgs(), output)
	if err := s.ffmpeg(ctx, "captions", output, args); err != nil {
		return Clip{}, err
	}
	return s.probeClip(ctx, output)
}
