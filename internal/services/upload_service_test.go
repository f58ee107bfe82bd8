package services

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redevc/audio-service/internal/models"
	"github.com/redevc/audio-service/internal/staging"
	"github.com/redevc/audio-service/internal/testsupport"
	"github.com/redevc/audio-service/internal/utils"
)

const (
	testMaxBytes   = 524288000
	testChunkBytes = 5000000
)

type uploadFixture struct {
	svc      UploadService
	sessions *testsupport.SessionStore
	assets   *testsupport.AssetStore
	area     *staging.Area
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	sessions := testsupport.NewSessionStore()
	assets := testsupport.NewAssetStore()
	area := staging.New(t.TempDir())
	return &uploadFixture{
		svc:      NewUploadService(sessions, assets, area, testMaxBytes, testChunkBytes),
		sessions: sessions,
		assets:   assets,
		area:     area,
	}
}

func TestCreateSession(t *testing.T) {
	f := newUploadFixture(t)

	out, err := f.svc.CreateSession(context.Background(), "user-1", "track.wav", "audio/wav", 12000000)
	require.NoError(t, err)
	require.Equal(t, int64(testChunkBytes), out.ChunkSize)
	require.Equal(t, 3, out.TotalChunks)
	require.Equal(t, int64(testMaxBytes), out.MaxBytes)

	sess, err := f.sessions.GetBySessionID(context.Background(), out.UploadID)
	require.NoError(t, err)
	require.Equal(t, models.SessionUploading, sess.Status)
	require.DirExists(t, sess.ChunksDir)
}

func TestCreateSessionTinyFileGetsOneChunk(t *testing.T) {
	f := newUploadFixture(t)

	out, err := f.svc.CreateSession(context.Background(), "user-1", "blip.wav", "", 10)
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalChunks)
}

func TestCreateSessionTooLarge(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.svc.CreateSession(context.Background(), "user-1", "huge.wav", "", testMaxBytes+1)
	require.True(t, utils.IsCode(err, utils.CodePayloadTooLarge))
}

func TestCreateSessionValidation(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.svc.CreateSession(context.Background(), "user-1", "", "", 100)
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = f.svc.CreateSession(context.Background(), "user-1", "x.wav", "", 0)
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestAcceptChunkSizeRule(t *testing.T) {
	f := newUploadFixture(t)
	out, err := f.svc.CreateSession(context.Background(), "user-1", "track.wav", "", 12000000)
	require.NoError(t, err)
	require.Equal(t, 3, out.TotalChunks)

	// middle chunks carry the full chunk size
	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "application/octet-stream", bytes.Repeat([]byte{1}, testChunkBytes))
	require.NoError(t, err)

	// the last chunk must be exactly the remainder
	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 2, "application/octet-stream", bytes.Repeat([]byte{3}, 2000000))
	require.NoError(t, err)

	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 2, "application/octet-stream", bytes.Repeat([]byte{3}, 2000001))
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 1, "application/octet-stream", bytes.Repeat([]byte{2}, 2000000))
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestAcceptChunkIdempotent(t *testing.T) {
	f := newUploadFixture(t)
	out, err := f.svc.CreateSession(context.Background(), "user-1", "blip.wav", "", 10)
	require.NoError(t, err)

	first, err := f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "application/octet-stream", []byte("0123456789"))
	require.NoError(t, err)
	require.Equal(t, 1, first.ReceivedChunks)

	again, err := f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "application/octet-stream", []byte("9876543210"))
	require.NoError(t, err)
	require.Equal(t, 1, again.ReceivedChunks)

	sess, err := f.sessions.GetBySessionID(context.Background(), out.UploadID)
	require.NoError(t, err)
	require.Len(t, sess.ReceivedChunks, 1)

	// the overwrite won
	got, err := os.ReadFile(staging.ChunkPath(sess.ChunksDir, 0))
	require.NoError(t, err)
	require.Equal(t, []byte("9876543210"), got)
}

func TestAcceptChunkRejections(t *testing.T) {
	f := newUploadFixture(t)
	out, err := f.svc.CreateSession(context.Background(), "user-1", "blip.wav", "", 10)
	require.NoError(t, err)
	body := []byte("0123456789")

	_, err = f.svc.AcceptChunk(context.Background(), "user-1", "no-such-session", 0, "application/octet-stream", body)
	require.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = f.svc.AcceptChunk(context.Background(), "someone-else", out.UploadID, 0, "application/octet-stream", body)
	require.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 1, "application/octet-stream", body)
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "text/plain", body)
	require.True(t, utils.IsCode(err, utils.CodeUnsupportedMedia))

	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "application/octet-stream", nil)
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	require.NoError(t, f.sessions.SetStatus(context.Background(), out.UploadID, models.SessionQueued, nil))
	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "application/octet-stream", body)
	require.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestCompleteDetectsMissingChunkFiles(t *testing.T) {
	f := newUploadFixture(t)
	out, err := f.svc.CreateSession(context.Background(), "user-1", "track.wav", "", 12000000)
	require.NoError(t, err)

	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "application/octet-stream", bytes.Repeat([]byte{1}, testChunkBytes))
	require.NoError(t, err)
	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 1, "application/octet-stream", bytes.Repeat([]byte{2}, testChunkBytes))
	require.NoError(t, err)
	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 2, "application/octet-stream", bytes.Repeat([]byte{3}, 2000000))
	require.NoError(t, err)

	// the index was recorded as received, but the file vanished: completion
	// must trust the disk
	sess, err := f.sessions.GetBySessionID(context.Background(), out.UploadID)
	require.NoError(t, err)
	require.NoError(t, os.Remove(staging.ChunkPath(sess.ChunksDir, 1)))

	_, err = f.svc.Complete(context.Background(), "user-1", out.UploadID)
	require.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	require.Contains(t, err.Error(), "missing uploaded chunks (1)")
}

func TestCompleteEnqueuesAsset(t *testing.T) {
	f := newUploadFixture(t)
	out, err := f.svc.CreateSession(context.Background(), "user-1", "blip.wav", "audio/wav", 10)
	require.NoError(t, err)

	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "application/octet-stream", []byte("0123456789"))
	require.NoError(t, err)

	done, err := f.svc.Complete(context.Background(), "user-1", out.UploadID)
	require.NoError(t, err)
	require.Equal(t, models.AssetQueued, done.Status)

	asset, err := f.assets.GetByAssetID(context.Background(), done.AssetID)
	require.NoError(t, err)
	require.Equal(t, out.UploadID, asset.UploadID)
	require.Equal(t, "user-1", asset.UploaderID)
	require.Equal(t, "blip.wav", asset.OriginalFileName)

	sess, err := f.sessions.GetBySessionID(context.Background(), out.UploadID)
	require.NoError(t, err)
	require.Equal(t, models.SessionQueued, sess.Status)
	require.NotNil(t, sess.AssetID)
	require.Equal(t, done.AssetID, *sess.AssetID)
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newUploadFixture(t)
	out, err := f.svc.CreateSession(context.Background(), "user-1", "blip.wav", "", 10)
	require.NoError(t, err)
	_, err = f.svc.AcceptChunk(context.Background(), "user-1", out.UploadID, 0, "application/octet-stream", []byte("0123456789"))
	require.NoError(t, err)

	first, err := f.svc.Complete(context.Background(), "user-1", out.UploadID)
	require.NoError(t, err)

	retry, err := f.svc.Complete(context.Background(), "user-1", out.UploadID)
	require.NoError(t, err)
	require.Equal(t, first.AssetID, retry.AssetID)
	require.Equal(t, models.AssetQueued, retry.Status)
}
