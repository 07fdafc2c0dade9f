package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"reelsmith/internal/config"
	"reelsmith/internal/logx"
	"reelsmith/internal/media"
	"reelsmith/internal/paths"
)

// Service drives ffmpeg for every media-producing stage of a run.
type Service struct {
	Paths  paths.ProjectPaths
	Config config.Config
	Runner media.Runner
	Prober media.Prober
	Logger zerolog.Logger

	ffmpegPath string
	stderr     io.Writer
}

// NewService prepares a renderer bound to a project. Empty tool paths fall
// back to the configured overrides and then to the names on PATH.
func NewService(pp paths.ProjectPaths, cfg config.Config, runner media.Runner, logger zerolog.Logger) *Service {
	if runner == nil {
		runner = media.CmdRunner{}
	}
	ffmpegPath := firstNonEmpty(cfg.Tools.FFmpeg, "ffmpeg")
	return &Service{
		Paths:      pp,
		Config:     cfg,
		Runner:     runner,
		Prober:     media.NewProber(runner, cfg.Tools.FFprobe),
		Logger:     logx.Component(logger, "render"),
		ffmpegPath: ffmpegPath,
	}
}

// SetStderr mirrors ffmpeg diagnostics to w in addition to the log files.
func (s *Service) SetStderr(w io.Writer) {
	s.stderr = w
}

// Target returns the output frame size.
func (s *Service) Target() media.Size {
	return media.Size{W: s.Config.Video.Width, H: s.Config.Video.Height}
}

// FPS returns the output frame rate.
func (s *Service) FPS() int {
	return s.Config.Video.FPS
}

// ffmpeg runs one ffmpeg invocation with its stderr captured in a dedicated
// log file. A failed run removes the partial output.
func (s *Service) ffmpeg(ctx context.Context, label, outputPath string, args []string) error {
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}
	if err := os.MkdirAll(s.Paths.LogsDir, 0o755); err != nil {
		return fmt.Errorf("ensure logs directory: %w", err)
	}

	logPath := filepath.Join(s.Paths.LogsDir, "ffmpeg-"+SafeFileSlug(label)+".log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	fmt.Fprintln(logFile, media.CommandLine(s.ffmpegPath, args))

	runOpts := media.RunOptions{Dir: s.Paths.Root, Stderr: logFile}
	if s.stderr != nil {
		runOpts.Stderr = io.MultiWriter(logFile, s.stderr)
	}

	s.Logger.Debug().Str("step", label).Str("output", outputPath).Msg("ffmpeg start")
	result, err := s.Runner.Run(ctx, s.ffmpegPath, args, runOpts)
	if err != nil {
		_ = os.Remove(outputPath)
		if tail := media.StderrTail(result.Stderr, 2); tail != "" {
			return fmt.Errorf("ffmpeg %s failed: %w: %s (see %s)", label, err, tail, logPath)
		}
		return fmt.Errorf("ffmpeg %s failed: %w (see %s)", label, err, logPath)
	}
	return nil
}

// videoEncodeArgs returns the H.264 encoder settings shared by every stage
// that re-encodes video.
func (s *Service) videoEncodeArgs() []string {
	cfg := s.Config.Video
	codec := firstNonEmpty(cfg.Codec, "libx264")
	args := []string{"-c:v", codec}
	if preset := strings.TrimSpace(cfg.Preset); preset != "" {
		args = append(args, "-preset", preset)
	}
	if crf := cfg.CRFValue(); crf >= 0 {
		args = append(args, "-crf", strconv.Itoa(crf))
	}
	return append(args, "-pix_fmt", "yuv420p")
}

func (s *Service) audioEncodeArgs() []string {
	cfg := s.Config.Audio
	args := []string{"-c:a", firstNonEmpty(cfg.Codec, "aac")}
	if cfg.BitrateKbps > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%dk", cfg.BitrateKbps))
	}
	if cfg.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(cfg.SampleRate))
	}
	if cfg.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(cfg.Channels))
	}
	return args
}

// probeClip reads back a rendered file.
func (s *Service) probeClip(ctx context.Context, path string) (Clip, error) {
	info, err := s.Prober.Probe(ctx, path)
	if err != nil {
		return Clip{}, err
	}
	if info.Duration <= 0 {
		return Clip{}, fmt.Errorf("%s has zero length", filepath.Base(path))
	}
	return Clip{Path: path, Duration: info.Duration, Size: info.Size(), FPS: s.FPS()}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
