// Package command runs external media tools (yt-dlp, ffmpeg, ffprobe) and
// captures their output for error classification.
package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Output holds the captured streams of one invocation.
type Output struct {
	Stdout string
	Stderr string
}

// Runner executes a command. Implementations must honor ctx.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs commands with os/exec. When Verbose is set stderr is tee'd
// to os.Stderr in real time.
type ExecRunner struct {
	Verbose bool
}

// Run executes name with args and returns its captured output. A non-zero
// exit is returned as *ExitError carrying the tail of stderr.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if r.Verbose {
		cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return out, &ExitError{Name: name, Stderr: Tail(out.Stderr, 20), Cause: err}
	}
	return out, nil
}

// LookPath reports the resolved path of a tool, or an error if it is not installed.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return path, nil
}

// ExitError is a failed invocation.
type ExitError struct {
	Name   string
	Stderr string
	Cause  error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Name, e.Cause, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Name, e.Cause)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// Tail returns at most the last n non-empty lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
