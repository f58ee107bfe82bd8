package transcode

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls []string
	errs  map[string]error
}

func (r *fakeRunner) Run(_ context.Context, path string, _ []string) error {
	r.calls = append(r.calls, path)
	return r.errs[path]
}

func notFound(path string) error {
	return fmt.Errorf("exec %q: %w", path, exec.ErrNotFound)
}

func TestCandidatesOrderAndDedupe(t *testing.T) {
	f := &FFmpeg{OverridePath: "/opt/ffmpeg", BundledPath: "/opt/ffmpeg"}
	require.Equal(t, []string{"/opt/ffmpeg", "ffmpeg"}, f.Candidates())

	f = &FFmpeg{OverridePath: " /usr/local/bin/ffmpeg ", BundledPath: "/srv/app/ffmpeg"}
	require.Equal(t, []string{"/usr/local/bin/ffmpeg", "/srv/app/ffmpeg", "ffmpeg"}, f.Candidates())
}

func TestTranscodeFallsThroughOnNotFound(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"/missing/ffmpeg": notFound("/missing/ffmpeg"),
	}}
	f := &FFmpeg{OverridePath: "/missing/ffmpeg", BundledPath: "/srv/app/ffmpeg", Runner: runner}

	require.NoError(t, f.Transcode(context.Background(), "in.wav", "out.mp3"))
	require.Equal(t, []string{"/missing/ffmpeg", "/srv/app/ffmpeg"}, runner.calls)
}

func TestTranscodeStopsOnExecutionError(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"/opt/ffmpeg": errors.New("Invalid data found when processing input"),
	}}
	f := &FFmpeg{OverridePath: "/opt/ffmpeg", BundledPath: "/srv/app/ffmpeg", Runner: runner}

	err := f.Transcode(context.Background(), "in.wav", "out.mp3")
	require.EqualError(t, err, "Invalid data found when processing input")
	// an invocation that ran and failed must not be retried elsewhere
	require.Equal(t, []string{"/opt/ffmpeg"}, runner.calls)
}

func TestTranscodeAllCandidatesMissing(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"/missing/ffmpeg": notFound("/missing/ffmpeg"),
		"/srv/app/ffmpeg": notFound("/srv/app/ffmpeg"),
		"ffmpeg":          notFound("ffmpeg"),
	}}
	f := &FFmpeg{OverridePath: "/missing/ffmpeg", BundledPath: "/srv/app/ffmpeg", Runner: runner}

	err := f.Transcode(context.Background(), "in.wav", "out.mp3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "/missing/ffmpeg")
	require.Contains(t, err.Error(), "/srv/app/ffmpeg")
	require.Contains(t, err.Error(), "FFMPEG_PATH")
	require.Len(t, runner.calls, 3)
}

func TestArgs(t *testing.T) {
	require.Equal(t, []string{
		"-y",
		"-i", "in.wav",
		"-vn",
		"-map_metadata", "-1",
		"-codec:a", "libmp3lame",
		"-b:a", "128k",
		"out.mp3",
	}, Args("in.wav", "out.mp3"))
}
