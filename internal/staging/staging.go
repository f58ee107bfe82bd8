// Package staging manages the transient per-session chunk directories that
// hold raw byte ranges between upload and merge.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Area is the root under which every upload session owns one directory. The
// directory lives until the job reaches a terminal state, then is removed
// unconditionally.
type Area struct {
	root string
}

func New(root string) *Area {
	return &Area{root: root}
}

func (a *Area) Root() string { return a.root }

// SessionDir returns the staging directory path for a session without
// creating it.
func (a *Area) SessionDir(sessionID string) string {
	return filepath.Join(a.root, sessionID)
}

// EnsureSessionDir creates the session directory if needed and returns it.
func (a *Area) EnsureSessionDir(sessionID string) (string, error) {
	dir := a.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	return dir, nil
}

// ChunkPath names the on-disk file for a chunk index inside a session
// directory.
func ChunkPath(dir string, index int) string {
	return filepath.Join(dir, strconv.Itoa(index)+".part")
}

// WriteChunk stores one chunk, overwriting any previous upload of the same
// index. The parent directory is recreated if a cleanup raced us.
func WriteChunk(dir string, index int, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	if err := os.WriteFile(ChunkPath(dir, index), data, 0o644); err != nil {
		return fmt.Errorf("write chunk %d: %w", index, err)
	}
	return nil
}

// MissingChunks reports every index in [0, totalChunks) without a staged
// file. The received set in the session record is advisory only; completion
// trusts the disk.
func MissingChunks(dir string, totalChunks int) []int {
	var missing []int
	for i := 0; i < totalChunks; i++ {
		if _, err := os.Stat(ChunkPath(dir, i)); err != nil {
			missing = append(missing, i)
		}
	}
	return missing
}

// Merge concatenates all staged chunks in index order into destination.
func Merge(dir string, totalChunks int, destination string) error {
	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create merge target: %w", err)
	}

	for i := 0; i < totalChunks; i++ {
		in, err := os.Open(ChunkPath(dir, i))
		if err != nil {
			out.Close()
			return fmt.Errorf("open chunk %d: %w", i, err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return fmt.Errorf("append chunk %d: %w", i, err)
		}
	}
	return out.Close()
}

// Remove deletes a session directory and everything in it. Best effort;
// callers ignore the error by contract.
func Remove(dir string) error {
	return os.RemoveAll(dir)
}
