package transform

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/jonathan/trend-relay/internal/command"
)

// fakeMedia stands in for ffmpeg/ffprobe. ffprobe answers with duration;
// ffmpeg writes its final argument so outputs exist on disk.
type fakeMedia struct {
	duration  string
	probeErr  error
	ffmpegErr error
	calls     [][]string
}

func (f *fakeMedia) Run(_ context.Context, name string, args ...string) (command.Output, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if strings.HasSuffix(name, "ffprobe") {
		if f.probeErr != nil {
			return command.Output{}, f.probeErr
		}
		return command.Output{Stdout: f.duration + "\n"}, nil
	}
	if f.ffmpegErr != nil {
		return command.Output{Stderr: "Invalid data"}, f.ffmpegErr
	}
	out := args[len(args)-1]
	if err := os.WriteFile(out, []byte("encoded"), 0644); err != nil {
		return command.Output{}, err
	}
	return command.Output{}, nil
}

func (f *fakeMedia) lastFFmpeg() []string {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i][0] == "ffmpeg" {
			return f.calls[i]
		}
	}
	return nil
}

var errExit = errors.New("exit status 1")

// argAfter returns the argument following flag, or "".
func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
