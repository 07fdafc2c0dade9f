package render

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"reelsmith/internal/media"
)

// Clip is a file-backed, silent, normalized visual segment.
type Clip struct {
	Path     string
	Duration float64
	Size     media.Size
	FPS      int
}

// ClipRequest asks for one scene's asset to be normalized.
type ClipRequest struct {
	SceneID  string
	Index    int
	Source   string
	Kind     media.Kind
	Duration float64
}

// cacheKey identifies a normalized clip by everything that shapes its pixels.
func (r ClipRequest) cacheKey(target media.Size, fps int) string {
	return fmt.Sprintf("%s|%.3f|%dx%d|%d", r.Source, r.Duration, target.W, target.H, fps)
}

// ClipCache remembers clips rendered during one run so a re-plan after a
// failed scene does not re-encode unchanged scenes.
type ClipCache struct {
	clips map[string]Clip
}

// NewClipCache returns an empty cache.
func NewClipCache() *ClipCache {
	return &ClipCache{clips: map[string]Clip{}}
}

func (c *ClipCache) get(key string) (Clip, bool) {
	if c == nil {
		return Clip{}, false
	}
	clip, ok := c.clips[key]
	if !ok {
		return Clip{}, false
	}
	if _, err := os.Stat(clip.Path); err != nil {
		delete(c.clips, key)
		return Clip{}, false
	}
	return clip, true
}

func (c *ClipCache) put(key string, clip Clip) {
	if c == nil {
		return
	}
	c.clips[key] = clip
}

// Len reports the number of cached clips.
func (c *ClipCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.clips)
}

// TransformClip converts one asset into a silent clip of exactly the
// requested duration at the target size and frame rate. It returns false
// when the scene cannot be used; the reason is logged.
func (s *Service) TransformClip(ctx context.Context, req ClipRequest, cache *ClipCache) (Clip, bool) {
	log := s.Logger.With().Str("scene", req.SceneID).Str("asset", req.Source).Logger()
	target := s.Target()
	fps := s.FPS()

	if req.Duration <= 0 {
		log.Warn().Float64("duration", req.Duration).Msg("skipping scene with non-positive duration")
		return Clip{}, false
	}
	if _, err := os.Stat(req.Source); err != nil {
		log.Warn().Err(err).Msg("skipping scene: asset missing")
		return Clip{}, false
	}

	key := req.cacheKey(target, fps)
	if clip, ok := cache.get(key); ok {
		log.Debug().Str("clip", clip.Path).Msg("reusing clip")
		return clip, true
	}

	kind := req.Kind
	if kind == media.KindUnknown {
		kind = media.KindFromExtension(req.Source)
	}

	var (
		src    media.Size
		native float64
	)
	if kind == media.KindImage {
		size, err := media.ImageSize(req.Source)
		if err != nil {
			// Formats the Go decoders do not know may still be readable by ffprobe.
			info, perr := s.Prober.Probe(ctx, req.Source)
			if perr != nil || !info.HasVideo {
				log.Warn().Err(err).Msg("skipping scene: unreadable image")
				return Clip{}, false
			}
			size = info.Size()
		}
		src = size
	} else {
		info, err := s.Prober.Probe(ctx, req.Source)
		if err != nil {
			log.Warn().Err(err).Msg("skipping scene: probe failed")
			return Clip{}, false
		}
		if !info.HasVideo {
			log.Warn().Msg("skipping scene: no video stream")
			return Clip{}, false
		}
		src = info.Size()
		native = info.Duration
		if native <= 0 {
			// A container without duration (an image ffprobe recognised) is a still.
			kind = media.KindImage
		} else {
			kind = media.KindVideo
		}
	}

	geom := CoverCrop(src, target)
	if !geom.Valid() {
		log.Warn().Str("size", src.String()).Msg("skipping scene: zero-area source")
		return Clip{}, false
	}

	output := s.clipPath(req, key)
	var args []string
	if kind == media.KindImage {
		args = BuildStillClipArgs(req.Source, geom, req.Duration, fps, output, s.videoEncodeArgs())
	} else {
		args = BuildVideoClipArgs(req.Source, geom, native, req.Duration, fps, output, s.videoEncodeArgs())
	}

	label := fmt.Sprintf("clip-%03d-%s", req.Index+1, req.SceneID)
	if err := s.ffmpeg(ctx, label, output, args); err != nil {
		log.Warn().Err(err).Msg("skipping scene: transform failed")
		return Clip{}, false
	}

	clip := Clip{Path: output, Duration: req.Duration, Size: target, FPS: fps}
	cache.put(key, clip)
	log.Debug().Float64("duration", req.Duration).Str("clip", output).Msg("clip ready")
	return clip, true
}

func (s *Service) clipPath(req ClipRequest, key string) string {
	sum := sha256.Sum256([]byte(key))
	name := fmt.Sprintf("%03d-%s-%x.mp4", req.Index+1, SafeFileSlug(req.SceneID), sum[:4])
	return filepath.Join(s.Paths.ClipsDir, name)
}

// BuildStillClipArgs renders an image as a motionless clip.
func BuildStillClipArgs(source string, geom Geometry, duration float64, fps int, output string, encode []string) []string {
	dur := formatSeconds(duration)
	args := []string{
		"-hide_banner", "-y",
		"-loop", "1",
		"-framerate", fmt.Sprint(fps),
		"-t", dur,
		"-i", source,
		"-vf", joinFilters(geom.Filter(), fpsFilter(fps)),
		"-t", dur,
		"-an",
	}
	args = append(args, encode...)
	return append(args, "-movflags", "+faststart", output)
}

// BuildVideoClipArgs trims a video to duration, or freezes its last frame
// when the source is shorter. Source audio is always dropped.
func BuildVideoClipArgs(source string, geom Geometry, native, duration float64, fps int, output string, encode []string) []string {
	hold := ""
	if extra := duration - native; native > 0 && extra > frameSeconds(fps)/2 {
		hold = ExtendByHoldingLastFrame(extra)
	}
	args := []string{
		"-hide_banner", "-y",
		"-i", source,
		"-vf", joinFilters(geom.Filter(), fpsFilter(fps), hold),
		"-t", formatSeconds(duration),
		"-an",
	}
	args = append(args, encode...)
	return append(args, "-movflags", "+faststart", output)
}

func frameSeconds(fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return 1 / float64(fps)
}
