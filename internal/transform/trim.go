package transform

import (
	"context"
	"fmt"
)

// Trim keeps the window [StartSeconds, EndSeconds) of the clip. Clips too
// short to reach StartSeconds are kept from the beginning instead.
type Trim struct {
	FF           *FFmpeg
	StartSeconds float64
	EndSeconds   float64
}

// Name returns the stage name.
func (t *Trim) Name() string { return StageTrim }

// Apply writes the trimmed clip into the work directory.
func (t *Trim) Apply(ctx context.Context, w Work) (Work, error) {
	if t.EndSeconds <= t.StartSeconds || t.EndSeconds <= 0 {
		return w, &TransformError{Stage: StageTrim, Message: fmt.Sprintf("empty window %.1fs..%.1fs", t.StartSeconds, t.EndSeconds)}
	}

	duration, err := t.FF.ProbeDuration(ctx, w.Path)
	if err != nil {
		return w, &TransformError{Stage: StageTrim, Message: "probe duration", Cause: err}
	}

	start := t.StartSeconds
	if start < 0 || start >= duration {
		start = 0
	}
	end := t.EndSeconds
	if end > duration {
		end = duration
	}
	length := end - start
	if length <= 0 {
		return w, &TransformError{Stage: StageTrim, Message: fmt.Sprintf("clip has no content (duration %.1fs)", duration)}
	}

	out, err := outputPath(w.Dir, StageTrim, ".mp4")
	if err != nil {
		return w, &TransformError{Stage: StageTrim, Message: "reserve output", Cause: err}
	}

	args := []string{"-ss", seconds(start), "-i", w.Path, "-t", seconds(length)}
	args = append(args, videoEncodeArgs...)
	args = append(args, out)
	if err := t.FF.Run(ctx, args...); err != nil {
		return w, &TransformError{Stage: StageTrim, Message: "ffmpeg", Cause: err}
	}

	w.Path = out
	return w, nil
}
