package transform

import (
	"context"
	"fmt"
	"strings"
)

// Watermark positions.
const (
	PositionTopLeft     = "top-left"
	PositionTopRight    = "top-right"
	PositionBottomLeft  = "bottom-left"
	PositionBottomRight = "bottom-right"
)

const watermarkMargin = 20

// Watermark burns a text label or an image overlay into the video.
// ImagePath wins when both are set.
type Watermark struct {
	FF        *FFmpeg
	Text      string
	ImagePath string
	Position  string
	FontSize  int
}

// Name returns the stage name.
func (m *Watermark) Name() string { return StageWatermark }

// Apply writes the watermarked clip into the work directory.
func (m *Watermark) Apply(ctx context.Context, w Work) (Work, error) {
	if m.Text == "" && m.ImagePath == "" {
		return w, &TransformError{Stage: StageWatermark, Message: "neither text nor image configured"}
	}

	out, err := outputPath(w.Dir, StageWatermark, ".mp4")
	if err != nil {
		return w, &TransformError{Stage: StageWatermark, Message: "reserve output", Cause: err}
	}

	var args []string
	if m.ImagePath != "" {
		x, y := overlayCoords(m.Position)
		args = []string{
			"-i", w.Path, "-i", m.ImagePath,
			"-filter_complex", fmt.Sprintf("[0:v][1:v]overlay=%s:%s[v]", x, y),
			"-map", "[v]", "-map", "0:a?",
		}
	} else {
		args = []string{"-i", w.Path, "-vf", m.drawtext(), "-map", "0:v", "-map", "0:a?"}
	}
	args = append(args, videoEncodeArgs...)
	args = append(args, out)

	if err := m.FF.Run(ctx, args...); err != nil {
		return w, &TransformError{Stage: StageWatermark, Message: "ffmpeg", Cause: err}
	}

	w.Path = out
	return w, nil
}

func (m *Watermark) drawtext() string {
	size := m.FontSize
	if size <= 0 {
		size = 36
	}
	x, y := textCoords(m.Position)
	return fmt.Sprintf("drawtext=text='%s':fontcolor=white@0.85:fontsize=%d:box=1:boxcolor=black@0.4:boxborderw=8:x=%s:y=%s",
		escapeDrawtext(m.Text), size, x, y)
}

func textCoords(position string) (string, string) {
	m := fmt.Sprint(watermarkMargin)
	switch position {
	case PositionTopLeft:
		return m, m
	case PositionTopRight:
		return "w-tw-" + m, m
	case PositionBottomLeft:
		return m, "h-th-" + m
	default:
		return "w-tw-" + m, "h-th-" + m
	}
}

func overlayCoords(position string) (string, string) {
	m := fmt.Sprint(watermarkMargin)
	switch position {
	case PositionTopLeft:
		return m, m
	case PositionTopRight:
		return "W-w-" + m, m
	case PositionBottomLeft:
		return m, "H-h-" + m
	default:
		return "W-w-" + m, "H-h-" + m
	}
}

// escapeDrawtext escapes characters that are special inside a quoted drawtext value.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `'\''`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
