package staging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAreaLayout(t *testing.T) {
	root := t.TempDir()
	area := New(root)

	require.Equal(t, root, area.Root())
	require.Equal(t, filepath.Join(root, "session-0"), area.SessionDir("session-0"))
}

func TestMergeReverseOrder(t *testing.T) {
	area := New(t.TempDir())
	dir, err := area.EnsureSessionDir("session-1")
	require.NoError(t, err)

	chunks := [][]byte{
		bytes.Repeat([]byte("a"), 64),
		bytes.Repeat([]byte("b"), 64),
		bytes.Repeat([]byte("c"), 10),
	}

	// receive order must not matter, only index order does
	for i := len(chunks) - 1; i >= 0; i-- {
		require.NoError(t, WriteChunk(dir, i, chunks[i]))
	}
	require.Empty(t, MissingChunks(dir, len(chunks)))

	dest := filepath.Join(t.TempDir(), "merged")
	require.NoError(t, Merge(dir, len(chunks), dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, bytes.Join(chunks, nil), got)
}

func TestWriteChunkOverwrites(t *testing.T) {
	area := New(t.TempDir())
	dir, err := area.EnsureSessionDir("session-2")
	require.NoError(t, err)

	require.NoError(t, WriteChunk(dir, 0, []byte("first")))
	require.NoError(t, WriteChunk(dir, 0, []byte("second")))

	got, err := os.ReadFile(ChunkPath(dir, 0))
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)
}

func TestMissingChunks(t *testing.T) {
	area := New(t.TempDir())
	dir, err := area.EnsureSessionDir("session-3")
	require.NoError(t, err)

	require.NoError(t, WriteChunk(dir, 1, []byte("x")))
	require.NoError(t, WriteChunk(dir, 3, []byte("x")))

	require.Equal(t, []int{0, 2, 4}, MissingChunks(dir, 5))
}

func TestRemove(t *testing.T) {
	area := New(t.TempDir())
	dir, err := area.EnsureSessionDir("session-4")
	require.NoError(t, err)
	require.NoError(t, WriteChunk(dir, 0, []byte("x")))

	require.NoError(t, Remove(dir))
	_, statErr := os.Stat(dir)
	require.True(t, os.IsNotExist(statErr))

	// removing again is fine
	require.NoError(t, Remove(dir))
}
