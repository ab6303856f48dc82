// Package composer renders the final overlay video. It probes the
// background clip with ffprobe, computes overlay placements, and drives
// ffmpeg to trim, composite and encode.
package composer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/video-overlay/internal/layout"
	"github.com/aliskhannn/video-overlay/internal/model"
)

// fallbackFPS is used when the background stream does not report a frame
// rate.
const fallbackFPS = 24.0

// Config holds encoder settings. Zero values are filled with the defaults
// the worker ships with.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	Preset      string
	Threads     int
}

// Input describes one composition: three local media files in, one local
// media file out.
type Input struct {
	BackgroundPath  string
	Image1Path      string
	Image2Path      string
	OutputPath      string
	IncludeAudio    bool
	DurationSeconds float64
}

// Composer produces a single output media file from an Input.
type Composer struct {
	cfg Config
}

// New creates a Composer, applying defaults for unset config fields.
func New(cfg Config) *Composer {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.Preset == "" {
		cfg.Preset = "medium"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 2
	}

	return &Composer{cfg: cfg}
}

// Compose renders in.OutputPath from the background clip and the two
// overlay images. The clip is trimmed to the clamped requested duration,
// never extended beyond its source length. Audio is carried over only
// when requested and present in the source.
func (c *Composer) Compose(ctx context.Context, in Input) error {
	probe, err := c.probe(ctx, in.BackgroundPath)
	if err != nil {
		return fmt.Errorf("probe background: %w", err)
	}

	trim := trimDuration(in.DurationSeconds, probe.Duration)

	size1, err := imageSize(in.Image1Path)
	if err != nil {
		return fmt.Errorf("read image1: %w", err)
	}
	size2, err := imageSize(in.Image2Path)
	if err != nil {
		return fmt.Errorf("read image2: %w", err)
	}

	frame := layout.Size{Width: probe.Width, Height: probe.Height}
	p1, p2 := layout.Stack(frame, size1, size2)

	zlog.Logger.Info().
		Int("frame_w", probe.Width).
		Int("frame_h", probe.Height).
		Float64("trim", trim).
		Bool("audio", in.IncludeAudio && probe.HasAudio).
		Msg("composing overlay video")

	args := c.buildArgs(in, probe, trim, p1, p2)

	cmd := exec.CommandContext(ctx, c.cfg.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String()))
	}

	return nil
}

// trimDuration clamps the requested duration to the supported range and
// caps it at the source length when ffprobe reported one. A source of 0
// means the container did not carry a duration; the clamped request is
// used as-is and ffmpeg stops at end of stream on its own.
func trimDuration(requested, source float64) float64 {
	d := model.ClampDuration(requested)
	if source > 0 && source < d {
		return source
	}
	return d
}

// buildArgs assembles the ffmpeg invocation: background first, then the
// two images as looped stills, scaled and overlaid in order so image1
// sits under image2.
func (c *Composer) buildArgs(in Input, p probeResult, trim float64, p1, p2 layout.Placement) []string {
	fps := p.FPS
	if fps <= 0 {
		fps = fallbackFPS
	}

	filter := fmt.Sprintf(
		"[1:v]scale=%d:%d[img1];[2:v]scale=%d:%d[img2];"+
			"[0:v][img1]overlay=%d:%d[base];[base][img2]overlay=%d:%d[out]",
		p1.Width, p1.Height, p2.Width, p2.Height,
		p1.X, p1.Y, p2.X, p2.Y,
	)

	args := []string{
		"-y",
		"-i", in.BackgroundPath,
		"-loop", "1", "-i", in.Image1Path,
		"-loop", "1", "-i", in.Image2Path,
		"-filter_complex", filter,
		"-map", "[out]",
	}

	if in.IncludeAudio && p.HasAudio {
		args = append(args,
			"-map", "0:a",
			"-c:a", "aac",
		)
	} else {
		args = append(args, "-an")
	}

	args = append(args,
		"-t", strconv.FormatFloat(trim, 'f', -1, 64),
		"-c:v", "libx264",
		"-preset", c.cfg.Preset,
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-threads", strconv.Itoa(c.cfg.Threads),
		in.OutputPath,
	)

	return args
}

// imageSize decodes an overlay image to learn its natural dimensions and
// to reject unreadable files before ffmpeg runs.
func imageSize(path string) (layout.Size, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return layout.Size{}, fmt.Errorf("decode %s: %w", path, err)
	}

	b := img.Bounds()

	return layout.Size{Width: b.Dx(), Height: b.Dy()}, nil
}

// tail returns the last few lines of ffmpeg's stderr, where the actual
// error lives.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}

	return strings.Join(lines, " | ")
}
