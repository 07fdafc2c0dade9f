package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrNoVideoStream is returned when a file has no decodable video stream.
var ErrNoVideoStream = errors.New("no video stream")

// Info summarizes the parts of an ffprobe report the pipeline relies on.
type Info struct {
	Path       string
	Duration   float64
	Width      int
	Height     int
	FPS        float64
	HasVideo   bool
	HasAudio   bool
	VideoCodec string
	AudioCodec string
}

// Size returns the frame dimensions of the first video stream.
func (i Info) Size() Size {
	return Size{W: i.Width, H: i.Height}
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Duration   string `json:"duration"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// Prober inspects media files with ffprobe.
type Prober struct {
	Runner  Runner
	FFprobe string
}

// NewProber returns a Prober bound to the given runner and ffprobe binary.
func NewProber(runner Runner, ffprobe string) Prober {
	if runner == nil {
		runner = CmdRunner{}
	}
	if strings.TrimSpace(ffprobe) == "" {
		ffprobe = "ffprobe"
	}
	return Prober{Runner: runner, FFprobe: ffprobe}
}

// Probe runs ffprobe against path and decodes its JSON report.
func (p Prober) Probe(ctx context.Context, path string) (Info, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, errors.New("ffprobe: empty path")
	}
	if _, err := os.Stat(path); err != nil {
		return Info{}, fmt.Errorf("ffprobe: %w", err)
	}

	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		path,
	}
	result, err := p.Runner.Run(ctx, p.FFprobe, args, RunOptions{})
	if err != nil {
		if tail := StderrTail(result.Stderr, 3); tail != "" {
			return Info{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, tail)
		}
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	if len(result.Stdout) == 0 {
		return Info{}, fmt.Errorf("ffprobe %s: no output", path)
	}
	return parseProbe(path, result.Stdout)
}

func parseProbe(path string, raw []byte) (Info, error) {
	var parsed probeResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Info{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := Info{Path: path, Duration: parseSeconds(parsed.Format.Duration)}
	for _, stream := range parsed.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.FPS = ParseFrameRate(stream.RFrameRate)
			if info.Duration == 0 {
				info.Duration = parseSeconds(stream.Duration)
			}
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			if info.Duration == 0 {
				info.Duration = parseSeconds(stream.Duration)
			}
		}
	}
	return info, nil
}

// Duration probes path and returns its container duration in seconds.
func (p Prober) Duration(ctx context.Context, path string) (float64, error) {
	info, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("%s: duration unavailable", path)
	}
	return info.Duration, nil
}

// ParseFrameRate converts an ffprobe rational such as "30000/1001" to frames
// per second. Malformed values yield 0.
func ParseFrameRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseSeconds(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
