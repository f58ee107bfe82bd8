package testsupport

import (
	"context"
	"io"
	"os"
)

// CopyTranscoder stands in for ffmpeg by copying the merged source verbatim,
// so tests can compare the published blob against the uploaded bytes. Set
// Err to force the failure path instead.
type CopyTranscoder struct {
	Err error
}

func (t *CopyTranscoder) Transcode(_ context.Context, inputPath, outputPath string) error {
	if t.Err != nil {
		return t.Err
	}
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
