// Package download resolves a video URL to a local file using yt-dlp.
package download

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/trend-relay/internal/command"
)

const (
	defaultYtdlpPath = "yt-dlp"
	defaultFormat    = "best"
	defaultTimeout   = 15 * time.Minute

	// SourceBase is the file name stem of a downloaded original.
	SourceBase = "source"
)

// partialSuffixes mark files yt-dlp leaves behind mid-download.
var partialSuffixes = []string{".part", ".ytdl", ".temp", ".tmp"}

// Result is a resolved local artifact.
type Result struct {
	Path   string
	Reused bool
}

// Downloader fetches videos with yt-dlp into a caller-owned directory.
type Downloader struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp".
	Path string
	// Format is the yt-dlp format selector. Defaults to "best".
	Format string
	// Timeout bounds a single download. Defaults to 15 minutes.
	Timeout time.Duration
	// ExtraArgs are appended before the URL.
	ExtraArgs []string
	Runner    command.Runner
}

// New creates a downloader with defaults.
func New(runner command.Runner) *Downloader {
	return &Downloader{
		Path:    defaultYtdlpPath,
		Format:  defaultFormat,
		Timeout: defaultTimeout,
		Runner:  runner,
	}
}

// Download fetches url into dir as source.<ext>. If a complete source file is
// already present (from an interrupted earlier run) it is reused without
// touching the network.
func (d *Downloader) Download(ctx context.Context, url, dir string) (Result, error) {
	if existing := FindSource(dir); existing != "" {
		log.Printf("[DOWNLOAD] Reusing existing artifact %s", existing)
		return Result{Path: existing, Reused: true}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{}, &DownloadError{URL: url, Message: "create work directory", Cause: err}
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := d.Runner.Run(cmdCtx, d.path(), d.args(url, dir)...)
	if err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return Result{}, &DownloadError{URL: url, Message: fmt.Sprintf("timed out after %s", timeout), Cause: err}
		}
		return Result{}, &DownloadError{URL: url, Message: "yt-dlp failed", Cause: err}
	}

	if printed := lastLine(out.Stdout); printed != "" && isComplete(printed) {
		if _, err := os.Stat(printed); err == nil {
			return Result{Path: printed}, nil
		}
	}
	if found := FindSource(dir); found != "" {
		return Result{Path: found}, nil
	}
	return Result{}, ErrNoArtifact
}

// FindSource returns the completed source file in dir, or "".
func FindSource(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, SourceBase+".*"))
	if err != nil {
		return ""
	}
	sort.Strings(matches)
	for _, m := range matches {
		if !isComplete(m) {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
			return m
		}
	}
	return ""
}

func (d *Downloader) args(url, dir string) []string {
	format := d.Format
	if format == "" {
		format = defaultFormat
	}
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"-f", format,
		"-o", filepath.Join(dir, SourceBase+".%(ext)s"),
		"--print", "after_move:filepath",
	}
	args = append(args, d.ExtraArgs...)
	return append(args, url)
}

func (d *Downloader) path() string {
	if d.Path == "" {
		return defaultYtdlpPath
	}
	return d.Path
}

func isComplete(path string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(path, suffix) {
			return false
		}
	}
	return true
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
