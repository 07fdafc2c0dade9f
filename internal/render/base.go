package render

import (
	"context"
	"fmt"
)

// AssembleBase binds the visual track to the soundtrack and forces the
// result to the soundtrack's duration. A visual track that falls short is
// freeze-extended first. The result is probed; an empty file is an error.
func (s *Service) AssembleBase(ctx context.Context, visual Clip, audio AudioTrack, output string) (Clip, error) {
	if audio.Duration <= 0 {
		return Clip{}, fmt.Errorf("soundtrack has no duration")
	}

	actual := visual.Duration
	if info, err := s.Prober.Probe(ctx, visual.Path); err == nil && info.Duration > 0 {
		actual = info.Duration
	} else if err != nil {
		s.Logger.Warn().Err(err).Msg("visual track probe failed, trusting planned duration")
	}

	extra := audio.Duration - actual
	if extra > frameSeconds(s.FPS())/2 {
		s.Logger.Info().Float64("extra", extra).Msg("visual track short of soundtrack, holding last frame")
	} else {
		extra = 0
	}

	args := BuildBaseArgs(visual.Path, audio.Path, audio.Duration, extra, s.videoEncodeArgs(), s.audioEncodeArgs(), output)
	if err := s.ffmpeg(ctx, "base", output, args); err != nil {
		return Clip{}, err
	}

	clip, err := s.probeClip(ctx, output)
	if err != nil {
		return Clip{}, fmt.Errorf("base render: %w", err)
	}
	return clip, nil
}

// BuildBaseArgs muxes video from the first input with audio from the second,
// cut at duration. When extra > 0 the video is re-encoded with its last frame
// held; otherwise it is stream-copied.
func BuildBaseArgs(visual, audio string, duration, extra float64, videoEncode, audioEncode []string, output string) []string {
	args := []string{
		"-hide_banner", "-y",
		"-i", visual,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
	}
	if hold := ExtendByHoldingLastFrame(extra); hold != "" {
		args = append(args, "-vf", hold)
		args = append(args, videoEncode...)
	} else {
		args = append(args, "-c:v", "copy")
	}
	args = append(args, audioEncode...)
	return append(args,
		"-t", formatSeconds(duration),
		"-movflags", "+faststart",
		output,
	)
}
