package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/media"
)

type versionRunner struct {
	out  map[string]string
	fail bool
}

func (r versionRunner) Run(ctx context.Context, command string, args []string, opts media.RunOptions) (media.RunResult, error) {
	if r.fail {
		return media.RunResult{}, errors.New("exit status 1")
	}
	return media.RunResult{Stdout: []byte(r.out[filepath.Base(command)])}, nil
}

func fakeBinary(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNormalizeFFmpegVersion(t *testing.T) {
	cases := map[string]string{
		"ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers": "6.1.1",
		"ffprobe version n7.0 Copyright (c) 2007-2024":                                "7.0",
		"ffmpeg version N-113000-g1234abcd Copyright":                                 "N-113000-g1234abcd",
		"something else": "something else",
	}
	for line, want := range cases {
		if got := normalizeFFmpegVersion(line); got != want {
			t.Errorf("normalizeFFmpegVersion(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestMeetsMinimum(t *testing.T) {
	cases := []struct {
		version, minimum string
		want             bool
	}{
		{"6.1.1", "5.1", true},
		{"5.1", "5.1", true},
		{"5.0.3", "5.1", false},
		{"4.4.2-0ubuntu0.22.04.1", "5.1", false},
		{"N-113000-g1234abcd", "5.1", true},
		{"", "5.1", false},
		{"1.0", "", true},
	}
	for _, tc := range cases {
		if got := meetsMinimum(tc.version, tc.minimum); got != tc.want {
			t.Errorf("meetsMinimum(%q, %q) = %v, want %v", tc.version, tc.minimum, got, tc.want)
		}
	}
}

func TestDetectWithOverrides(t *testing.T) {
	dir := t.TempDir()
	overrides := config.ToolsConfig{
		FFmpeg:  fakeBinary(t, dir, "ffmpeg"),
		FFprobe: fakeBinary(t, dir, "ffprobe"),
	}
	runner := versionRunner{out: map[string]string{
		"ffmpeg":  "ffmpeg version 6.0 Copyright (c) 2000-2023\nbuilt with gcc",
		"ffprobe": "ffprobe version 4.4.2 Copyright (c) 2007-2021",
	}}

	statuses := Detect(context.Background(), runner, overrides)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	byName := map[string]Status{}
	for _, st := range statuses {
		byName[st.Tool] = st
	}
	ffmpeg := byName["ffmpeg"]
	if !ffmpeg.Satisfied || ffmpeg.Version != "6.0" || !ffmpeg.Override || ffmpeg.Path != overrides.FFmpeg {
		t.Errorf("unexpected ffmpeg status %+v", ffmpeg)
	}
	ffprobe := byName["ffprobe"]
	if ffprobe.Satisfied || ffprobe.Error == "" || len(ffprobe.Hints) == 0 {
		t.Errorf("expected outdated ffprobe to fail with hints, got %+v", ffprobe)
	}
	if Satisfied(statuses) {
		t.Error("Satisfied should be false when one tool is outdated")
	}
}

func TestDetectMissingOverride(t *testing.T) {
	overrides := config.ToolsConfig{FFmpeg: filepath.Join(t.TempDir(), "nope", "ffmpeg")}
	statuses := Detect(context.Background(), versionRunner{}, overrides)
	for _, st := range statuses {
		if st.Tool == "ffmpeg" && (st.Satisfied || st.Error == "") {
			t.Errorf("missing override should be reported, got %+v", st)
		}
	}
}

func TestDetectVersionFailure(t *testing.T) {
	dir := t.TempDir()
	overrides := config.ToolsConfig{FFmpeg: fakeBinary(t, dir, "ffmpeg"), FFprobe: fakeBinary(t, dir, "ffprobe")}
	for _, st := range Detect(context.Background(), versionRunner{fail: true}, overrides) {
		if st.Satisfied || st.Path == "" {
			t.Errorf("expected unsatisfied status with path, got %+v", st)
		}
	}
}

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 V....D h264_videotoolbox    VideoToolbox H.264 Encoder (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
 V..... png                  PNG (Portable Network Graphics) image
`

func TestParseEncoders(t *testing.T) {
	encoders := parseEncoders([]byte(encodersOutput))
	for _, name := range []string{"libx264", "h264_videotoolbox", "aac", "png"} {
		if !encoders[name] {
			t.Errorf("expected %s in %v", name, encoders)
		}
	}
	if encoders["Video"] || encoders["="] {
		t.Errorf("legend lines leaked into encoders: %v", encoders)
	}
}

func TestCheckEncoders(t *testing.T) {
	runner := versionRunner{out: map[string]string{"ffmpeg": encodersOutput}}
	checks, err := CheckEncoders(context.Background(), runner, "ffmpeg", "libx264", "libopus", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 2 || !checks[0].Available || checks[1].Available {
		t.Errorf("unexpected checks %+v", checks)
	}

	checks, err = CheckEncoders(context.Background(), versionRunner{fail: true}, "ffmpeg", "libx264")
	if err == nil || len(checks) != 1 || checks[0].Available {
		t.Errorf("expected failure marking encoder unavailable, got %+v, %v", checks, err)
	}
}
