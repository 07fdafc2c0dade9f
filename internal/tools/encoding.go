package tools

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"reelsmith/internal/media"
)

// ListEncoders returns the encoder names compiled into ffmpeg.
func ListEncoders(ctx context.Context, runner media.Runner, ffmpegPath string) (map[string]bool, error) {
	if runner == nil {
		runner = media.CmdRunner{}
	}
	result, err := runner.Run(ctx, ffmpegPath, []string{"-hide_banner", "-encoders"}, media.RunOptions{})
	if err != nil {
		return nil, fmt.Errorf("list encoders: %w", err)
	}
	return parseEncoders(result.Stdout), nil
}

// parseEncoders reads the table printed by ffmpeg -encoders. Entries follow
// a "------" separator and start with a six-letter capability field.
func parseEncoders(out []byte) map[string]bool {
	encoders := map[string]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	started := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !started {
			started = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}

// EncoderCheck is the outcome of checking the configured encoders.
type EncoderCheck struct {
	Encoder   string `json:"encoder"`
	Available bool   `json:"available"`
}

// CheckEncoders reports whether each named encoder is available. A failed
// listing marks every encoder unavailable and returns the error.
func CheckEncoders(ctx context.Context, runner media.Runner, ffmpegPath string, names ...string) ([]EncoderCheck, error) {
	available, err := ListEncoders(ctx, runner, ffmpegPath)
	checks := make([]EncoderCheck, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		checks = append(checks, EncoderCheck{Encoder: name, Available: available[name]})
	}
	return checks, err
}
