// Package transcode drives the external ffmpeg process that converts merged
// uploads to the playback format.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes one external process invocation. Errors from a binary that
// could not be started (missing or not executable) must satisfy isNotFound so
// the caller can fall through to the next candidate.
type Runner interface {
	Run(ctx context.Context, path string, args []string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, path string, args []string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = fmt.Sprintf("%s exited with code %d", filepath.Base(path), exitErr.ExitCode())
		}
		return errors.New(msg)
	}
	// start failure: keeps ENOENT/EACCES wrapped for candidate fallback
	return err
}

// FFmpeg resolves and invokes the transcoder binary. Candidates are tried in
// order and only a not-found class of failure moves on to the next one; an
// invocation that ran and failed is terminal for the job.
type FFmpeg struct {
	// OverridePath is the operator-configured binary, tried first.
	OverridePath string
	// BundledPath points at a binary shipped next to the service executable.
	// Resolved lazily when empty.
	BundledPath string

	Runner Runner
}

// Args builds the fixed invocation: overwrite output, drop any video stream,
// strip metadata, encode constant 128k MP3.
func Args(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-map_metadata", "-1",
		"-codec:a", "libmp3lame",
		"-b:a", "128k",
		outputPath,
	}
}

// Candidates returns the ordered, deduplicated list of binaries to try:
// explicit override, bundled sidecar, then bare "ffmpeg" from PATH.
func (f *FFmpeg) Candidates() []string {
	raw := []string{
		strings.TrimSpace(f.OverridePath),
		strings.TrimSpace(f.bundled()),
		"ffmpeg",
	}

	seen := map[string]struct{}{}
	var out []string
	for _, c := range raw {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (f *FFmpeg) bundled() string {
	if f.BundledPath != "" {
		return f.BundledPath
	}
	self, err := os.Executable()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(filepath.Dir(self), "ffmpeg")
	if info, err := os.Stat(candidate); err != nil || info.IsDir() {
		return ""
	}
	return candidate
}

// Transcode converts inputPath into an MP3 at outputPath.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	runner := f.Runner
	if runner == nil {
		runner = execRunner{}
	}

	var notFound []string
	for _, candidate := range f.Candidates() {
		err := runner.Run(ctx, candidate, Args(inputPath, outputPath))
		if err == nil {
			return nil
		}
		if isNotFound(err) {
			notFound = append(notFound, candidate)
			continue
		}
		return err
	}

	return fmt.Errorf(
		"ffmpeg executable not available, tried: %s. Set FFMPEG_PATH or install ffmpeg in PATH",
		strings.Join(notFound, ", "),
	)
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}
