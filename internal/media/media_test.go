package media

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type scriptedRunner struct {
	stdout []byte
	stderr []byte
	err    error
	calls  [][]string
}

func (r *scriptedRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	r.calls = append(r.calls, append([]string{command}, args...))
	return RunResult{Stdout: r.stdout, Stderr: r.stderr}, r.err
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const sampleProbe = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001", "duration": "4.950000"},
    {"codec_type": "audio", "codec_name": "aac", "duration": "5.000000"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "5.005000"}
}`

func TestProbeParsesStreams(t *testing.T) {
	path := touch(t, t.TempDir(), "clip.mp4")
	runner := &scriptedRunner{stdout: []byte(sampleProbe)}
	prober := NewProber(runner, "/usr/bin/ffprobe")

	info, err := prober.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if !info.HasVideo || !info.HasAudio {
		t.Fatalf("expected video and audio streams, got %+v", info)
	}
	if info.Size() != (Size{W: 1920, H: 1080}) {
		t.Errorf("size = %v", info.Size())
	}
	if info.Duration != 5.005 {
		t.Errorf("duration = %v, want format duration 5.005", info.Duration)
	}
	if info.FPS < 29.96 || info.FPS > 29.98 {
		t.Errorf("fps = %v", info.FPS)
	}
	if len(runner.calls) != 1 || runner.calls[0][0] != "/usr/bin/ffprobe" {
		t.Fatalf("unexpected calls %v", runner.calls)
	}
	if last := runner.calls[0][len(runner.calls[0])-1]; last != path {
		t.Errorf("path should be final argument, got %q", last)
	}
}

func TestProbeFallsBackToStreamDuration(t *testing.T) {
	path := touch(t, t.TempDir(), "vo.wav")
	runner := &scriptedRunner{stdout: []byte(`{"streams":[{"codec_type":"audio","duration":"12.5"}],"format":{"duration":"N/A"}}`)}

	d, err := NewProber(runner, "").Duration(context.Background(), path)
	if err != nil {
		t.Fatalf("Duration error: %v", err)
	}
	if d != 12.5 {
		t.Errorf("duration = %v, want 12.5", d)
	}
}

func TestProbeMissingFile(t *testing.T) {
	runner := &scriptedRunner{}
	_, err := NewProber(runner, "").Probe(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(runner.calls) != 0 {
		t.Errorf("ffprobe should not run for a missing file")
	}
}

func TestProbeFailureIncludesStderr(t *testing.T) {
	path := touch(t, t.TempDir(), "broken.mp4")
	runner := &scriptedRunner{err: errors.New("exit status 1"), stderr: []byte("\nmoov atom not found\n")}
	_, err := NewProber(runner, "").Probe(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "moov atom not found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestDurationRejectsZero(t *testing.T) {
	path := touch(t, t.TempDir(), "empty.mp4")
	runner := &scriptedRunner{stdout: []byte(`{"streams":[],"format":{}}`)}
	if _, err := NewProber(runner, "").Duration(context.Background(), path); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := map[string]float64{
		"30/1":  30,
		"25":    25,
		"0/0":   0,
		"":      0,
		"abc/1": 0,
	}
	for input, want := range cases {
		if got := ParseFrameRate(input); got != want {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestImageSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.White)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	size, err := ImageSize(path)
	if err != nil {
		t.Fatalf("ImageSize error: %v", err)
	}
	if size != (Size{W: 40, H: 30}) {
		t.Errorf("size = %v", size)
	}

	if _, err := ImageSize(touch(t, dir, "garbage.jpg")); err == nil {
		t.Error("expected decode error for garbage image")
	}
}

func TestKindFromExtension(t *testing.T) {
	if KindFromExtension("a/B.JPG") != KindImage {
		t.Error("jpg should be an image")
	}
	if KindFromExtension("clip.webm") != KindVideo {
		t.Error("webm should be a video")
	}
	if KindFromExtension("notes.txt") != KindUnknown {
		t.Error("txt should be unknown")
	}
}

func TestCommandLineQuotesFilters(t *testing.T) {
	got := CommandLine("ffmpeg", []string{"-i", "a.mp4", "-vf", "scale=1:2,crop=1:2"})
	if !strings.Contains(got, `"scale=1:2,crop=1:2"`) {
		t.Errorf("filter argument should be quoted: %s", got)
	}
}

func TestStderrTail(t *testing.T) {
	got := StderrTail([]byte("one\n\ntwo\nthree\n"), 2)
	if got != "two | three" {
		t.Errorf("StderrTail = %q", got)
	}
}
