package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// probeResult is what the composer needs to know about the background
// clip: frame size, source duration, frame rate and whether an audio
// stream exists.
type probeResult struct {
	Width    int
	Height   int
	Duration float64
	FPS      float64
	HasAudio bool
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

// probe runs ffprobe against the given file and extracts the fields the
// composer cares about.
func (c *Composer) probe(ctx context.Context, path string) (probeResult, error) {
	cmd := exec.CommandContext(ctx, c.cfg.FFprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return probeResult{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, tail(stderr.String()))
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return probeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	return parseProbe(out)
}

func parseProbe(out ffprobeOutput) (probeResult, error) {
	var res probeResult

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if res.Width == 0 {
				res.Width = s.Width
				res.Height = s.Height
				res.FPS = parseFrameRate(s.AvgFrameRate)
				if res.FPS <= 0 {
					res.FPS = parseFrameRate(s.RFrameRate)
				}
			}
		case "audio":
			res.HasAudio = true
		}
	}

	if res.Width <= 0 || res.Height <= 0 {
		return probeResult{}, fmt.Errorf("no video stream found")
	}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		res.Duration = d
	}

	return res, nil
}

// parseFrameRate handles ffprobe's rational frame rates like "30000/1001".
func parseFrameRate(r string) float64 {
	if r == "" || r == "0/0" {
		return 0
	}

	num, den, ok := strings.Cut(r, "/")
	if !ok {
		f, _ := strconv.ParseFloat(r, 64)
		return f
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}

	return n / d
}
