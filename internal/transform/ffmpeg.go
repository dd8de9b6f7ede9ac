package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/trend-relay/internal/command"
)

const (
	defaultFFmpegPath  = "ffmpeg"
	defaultFFprobePath = "ffprobe"
)

// FFmpeg locates the ffmpeg/ffprobe binaries and runs them.
type FFmpeg struct {
	Path      string
	ProbePath string
	Verbose   bool
	Runner    command.Runner
}

// NewFFmpeg creates an FFmpeg with default binary names.
func NewFFmpeg(runner command.Runner) *FFmpeg {
	return &FFmpeg{
		Path:      defaultFFmpegPath,
		ProbePath: defaultFFprobePath,
		Runner:    runner,
	}
}

// Run executes ffmpeg with the shared preamble followed by args.
func (f *FFmpeg) Run(ctx context.Context, args ...string) error {
	loglevel := "error"
	if f.Verbose {
		loglevel = "info"
	}
	full := append([]string{"-hide_banner", "-nostdin", "-y", "-loglevel", loglevel}, args...)
	_, err := f.Runner.Run(ctx, f.ffmpegPath(), full...)
	return err
}

// ProbeDuration returns the container duration of path in seconds.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := f.Runner.Run(ctx, f.probePath(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(out.Stdout)
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable duration %q: %w", raw, err)
	}
	return d, nil
}

func (f *FFmpeg) ffmpegPath() string {
	if f.Path == "" {
		return defaultFFmpegPath
	}
	return f.Path
}

func (f *FFmpeg) probePath() string {
	if f.ProbePath == "" {
		return defaultFFprobePath
	}
	return f.ProbePath
}

// seconds formats a duration in seconds for ffmpeg arguments.
func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// videoEncodeArgs re-encodes to H.264/AAC in an mp4 container.
var videoEncodeArgs = []string{
	"-c:v", "libx264", "-preset", "veryfast", "-crf", "23",
	"-c:a", "aac", "-b:a", "128k",
	"-movflags", "+faststart",
}
