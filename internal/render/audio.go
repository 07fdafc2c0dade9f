package render

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// AudioTrack is the authoritative soundtrack of a run. Its duration is the
// output duration.
type AudioTrack struct {
	Path     string
	Duration float64
	Mixed    bool
}

// MixOptions shapes the background music bed.
type MixOptions struct {
	Volume     float64
	FadeInSec  float64
	FadeOutSec float64
}

// LoopCount returns how many extra copies of a source of length source must
// follow the first for the total to reach target.
func LoopCount(target, source float64) int {
	if source <= 0 || target <= source {
		return 0
	}
	return int(math.Ceil(target/source)) - 1
}

// MusicFilter builds the filter chain for the music bed: trimmed to exactly
// duration, scaled by a constant volume, with fades no longer than half the
// duration each.
func MusicFilter(duration float64, opts MixOptions) string {
	fadeIn := clamp(opts.FadeInSec, 0, duration/2)
	fadeOut := clamp(opts.FadeOutSec, 0, duration/2)
	steps := []string{
		"atrim=0:" + formatSeconds(duration),
		"asetpts=PTS-STARTPTS",
		"volume=" + formatFloat(opts.Volume),
	}
	if fadeIn > 0 {
		steps = append(steps, fmt.Sprintf("afade=t=in:st=0:d=%s", formatSeconds(fadeIn)))
	}
	if fadeOut > 0 {
		steps = append(steps, fmt.Sprintf("afade=t=out:st=%s:d=%s", formatSeconds(duration-fadeOut), formatSeconds(fadeOut)))
	}
	return strings.Join(steps, ",")
}

// BuildMixArgs lays looped music under the voiceover. amix runs with
// normalize=0 so the voiceover keeps its level.
func BuildMixArgs(voiceover, music string, duration, musicDuration float64, opts MixOptions, output string, encode []string) []string {
	graph := fmt.Sprintf("[1:a]%s[bg];[0:a][bg]amix=inputs=2:duration=first:dropout_transition=0:normalize=0[aout]",
		MusicFilter(duration, opts))
	args := []string{
		"-hide_banner", "-y",
		"-i", voiceover,
		"-stream_loop", fmt.Sprint(LoopCount(duration, musicDuration)),
		"-i", music,
		"-filter_complex", graph,
		"-map", "[aout]",
		"-t", formatSeconds(duration),
		"-vn",
	}
	args = append(args, encode...)
	return append(args, output)
}

// MixAudio builds the soundtrack. The voiceover must be readable; its
// duration becomes authoritative. Music problems are not fatal: the
// voiceover alone is returned.
func (s *Service) MixAudio(ctx context.Context, voiceover, music, output string) (AudioTrack, error) {
	duration, err := s.Prober.Duration(ctx, voiceover)
	if err != nil {
		return AudioTrack{}, fmt.Errorf("voiceover: %w", err)
	}
	voiceOnly := AudioTrack{Path: voiceover, Duration: duration}

	if strings.TrimSpace(music) == "" {
		return voiceOnly, nil
	}

	log := s.Logger.With().Str("music", music).Logger()
	info, err := s.Prober.Probe(ctx, music)
	if err != nil || !info.HasAudio || info.Duration <= 0 {
		log.Warn().Err(err).Msg("background music unusable, using voiceover only")
		return voiceOnly, nil
	}

	opts := MixOptions{
		Volume:     s.Config.Music.Volume,
		FadeInSec:  s.Config.Music.FadeInSec,
		FadeOutSec: s.Config.Music.FadeOutSec,
	}
	args := BuildMixArgs(voiceover, music, duration, info.Duration, opts, output, s.audioEncodeArgs())
	if err := s.ffmpeg(ctx, "audio-mix", output, args); err != nil {
		log.Warn().Err(err).Msg("music mix failed, using voiceover only")
		return voiceOnly, nil
	}
	log.Debug().Int("loops", LoopCount(duration, info.Duration)).Msg("music mixed")
	return AudioTrack{Path: output, Duration: duration, Mixed: true}, nil
}
