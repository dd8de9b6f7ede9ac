package transform

import (
	"context"
	"fmt"
)

// Voiceover replaces the clip's audio with narration (or keeps the original
// audio when no narration is configured) and reserves the final CTASeconds
// for a call-to-action clip. The video is capped at MaxSeconds.
type Voiceover struct {
	FF            *FFmpeg
	NarrationPath string
	CTAPath       string
	CTASeconds    float64
	MaxSeconds    float64
}

// Name returns the stage name.
func (v *Voiceover) Name() string { return StageVoiceover }

// Apply writes the re-voiced clip into the work directory.
func (v *Voiceover) Apply(ctx context.Context, w Work) (Work, error) {
	if v.CTAPath == "" {
		return w, &TransformError{Stage: StageVoiceover, Message: "cta_path not configured"}
	}

	duration, err := v.FF.ProbeDuration(ctx, w.Path)
	if err != nil {
		return w, &TransformError{Stage: StageVoiceover, Message: "probe duration", Cause: err}
	}
	if v.MaxSeconds > 0 && duration > v.MaxSeconds {
		duration = v.MaxSeconds
	}
	if duration <= v.CTASeconds {
		return w, &TransformError{Stage: StageVoiceover,
			Message: fmt.Sprintf("clip (%.1fs) shorter than the %.1fs call-to-action", duration, v.CTASeconds)}
	}

	out, err := outputPath(w.Dir, StageVoiceover, ".mp4")
	if err != nil {
		return w, &TransformError{Stage: StageVoiceover, Message: "reserve output", Cause: err}
	}

	args := v.args(w.Path, duration, out)
	if err := v.FF.Run(ctx, args...); err != nil {
		return w, &TransformError{Stage: StageVoiceover, Message: "ffmpeg", Cause: err}
	}

	w.Path = out
	return w, nil
}

// args builds the mixing command. The main track is padded with silence and
// cut to exactly duration-CTASeconds so the CTA always lands at the end.
func (v *Voiceover) args(in string, duration float64, out string) []string {
	main := duration - v.CTASeconds

	args := []string{"-i", in}
	mainInput := "0:a"
	ctaInput := "1:a"
	if v.NarrationPath != "" {
		args = append(args, "-i", v.NarrationPath)
		mainInput = "1:a"
		ctaInput = "2:a"
	}
	args = append(args, "-i", v.CTAPath)

	filter := fmt.Sprintf(
		"[%s]apad,atrim=0:%s,asetpts=PTS-STARTPTS[main];"+
			"[%s]apad,atrim=0:%s,asetpts=PTS-STARTPTS[cta];"+
			"[main][cta]concat=n=2:v=0:a=1[aout]",
		mainInput, seconds(main), ctaInput, seconds(v.CTASeconds))

	args = append(args,
		"-filter_complex", filter,
		"-map", "0:v", "-map", "[aout]",
		"-t", seconds(duration),
	)
	args = append(args, videoEncodeArgs...)
	return append(args, out)
}
