package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redevc/audio-service/internal/models"
	mongorepo "github.com/redevc/audio-service/internal/repositories/mongo"
	"github.com/redevc/audio-service/internal/staging"
	"github.com/redevc/audio-service/internal/utils"
)

const (
	maxFileNameLen = 255
	maxMimeTypeLen = 128

	// Retention windows. A session gets more time to live as its asset nears
	// durability.
	uploadingTTL = 24 * time.Hour
	queuedTTL    = 7 * 24 * time.Hour
)

type CreateSessionResult struct {
	UploadID    string
	ChunkSize   int64
	TotalChunks int
	MaxBytes    int64
}

type ChunkResult struct {
	UploadID       string
	Index          int
	ReceivedChunks int
	TotalChunks    int
}

type CompleteResult struct {
	AssetID string
	Status  string
}

type UploadService interface {
	CreateSession(ctx context.Context, uploaderID, fileName, mimeType string, sizeBytes int64) (*CreateSessionResult, error)
	AcceptChunk(ctx context.Context, userID, uploadID string, index int, contentType string, body []byte) (*ChunkResult, error)
	Complete(ctx context.Context, userID, uploadID string) (*CompleteResult, error)
}

type uploadService struct {
	sessions mongorepo.UploadSessionRepository
	assets   mongorepo.AudioAssetRepository
	staging  *staging.Area

	maxUploadBytes int64
	chunkBytes     int64
}

func NewUploadService(
	sessions mongorepo.UploadSessionRepository,
	assets mongorepo.AudioAssetRepository,
	stagingArea *staging.Area,
	maxUploadBytes, chunkBytes int64,
) UploadService {
	return &uploadService{
		sessions:       sessions,
		assets:         assets,
		staging:        stagingArea,
		maxUploadBytes: maxUploadBytes,
		chunkBytes:     chunkBytes,
	}
}

func (s *uploadService) CreateSession(ctx context.Context, uploaderID, fileName, mimeType string, sizeBytes int64) (*CreateSessionResult, error) {
	const op = "UploadService.CreateSession"

	fileName = strings.TrimSpace(fileName)
	if fileName == "" || len(fileName) > maxFileNameLen {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file name is required and must be at most 255 characters", nil)
	}
	if len(mimeType) > maxMimeTypeLen {
		return nil, utils.E(utils.CodeInvalidArgument, op, "mime type is too long", nil)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if sizeBytes <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "size must be a positive number of bytes", nil)
	}
	if sizeBytes > s.maxUploadBytes {
		msg := fmt.Sprintf("file too large, max allowed is %d bytes", s.maxUploadBytes)
		return nil, utils.E(utils.CodePayloadTooLarge, op, msg, nil)
	}

	totalChunks := int((sizeBytes + s.chunkBytes - 1) / s.chunkBytes)
	if totalChunks < 1 {
		totalChunks = 1
	}

	uploadID := uuid.NewString()
	chunksDir, err := s.staging.EnsureSessionDir(uploadID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to prepare staging directory", err)
	}

	now := time.Now().UTC()
	session := &models.UploadSession{
		SessionID:      uploadID,
		UploaderID:     uploaderID,
		FileName:       fileName,
		MimeType:       mimeType,
		SizeBytes:      sizeBytes,
		ChunkSize:      s.chunkBytes,
		TotalChunks:    totalChunks,
		ReceivedChunks: []int{},
		Status:         models.SessionUploading,
		ChunksDir:      chunksDir,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(uploadingTTL),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create upload session", err)
	}

	return &CreateSessionResult{
		UploadID:    uploadID,
		ChunkSize:   s.chunkBytes,
		TotalChunks: totalChunks,
		MaxBytes:    s.maxUploadBytes,
	}, nil
}

func (s *uploadService) AcceptChunk(ctx context.Context, userID, uploadID string, index int, contentType string, body []byte) (*ChunkResult, error) {
	const op = "UploadService.AcceptChunk"

	session, err := s.getOwnedSession(ctx, op, userID, uploadID)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionUploading {
		return nil, utils.E(utils.CodeConflict, op, "upload session is not accepting chunks", nil)
	}
	if index < 0 || index >= session.TotalChunks {
		return nil, utils.E(utils.CodeInvalidArgument, op, "chunk index out of bounds", nil)
	}
	if contentType != "" && !strings.Contains(contentType, "application/octet-stream") {
		return nil, utils.E(utils.CodeUnsupportedMedia, op, "content-type must be application/octet-stream", nil)
	}
	if len(body) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "chunk body is empty", nil)
	}
	if expected := session.ExpectedChunkSize(index); int64(len(body)) != expected {
		msg := fmt.Sprintf("invalid chunk size for index %d, expected %d bytes", index, expected)
		return nil, utils.E(utils.CodeInvalidArgument, op, msg, nil)
	}

	// Disjoint file per index: concurrent chunk writes never contend, and a
	// re-upload of the same index simply overwrites.
	if err := staging.WriteChunk(session.ChunksDir, index, body); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store chunk", err)
	}
	if err := s.sessions.AddReceivedChunk(ctx, session.SessionID, index); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record chunk", err)
	}

	received := len(session.ReceivedChunks)
	if !session.HasChunk(index) {
		received++
	}

	return &ChunkResult{
		UploadID:       session.SessionID,
		Index:          index,
		ReceivedChunks: received,
		TotalChunks:    session.TotalChunks,
	}, nil
}

func (s *uploadService) Complete(ctx context.Context, userID, uploadID string) (*CompleteResult, error) {
	const op = "UploadService.Complete"

	session, err := s.getOwnedSession(ctx, op, userID, uploadID)
	if err != nil {
		return nil, err
	}

	// Completion is idempotent: a retry after a successful completion gets
	// the already-linked asset back.
	if session.AssetID != nil {
		existing, err := s.assets.GetByAssetID(ctx, *session.AssetID)
		if err == nil {
			return &CompleteResult{AssetID: existing.AssetID, Status: existing.Status}, nil
		}
	}

	if session.Status != models.SessionUploading {
		return nil, utils.E(utils.CodeConflict, op, "upload session cannot be completed in current state", nil)
	}

	// Trust the disk, not the received set: a crash between chunk write and
	// record leaves the set ahead of reality either way.
	if missing := staging.MissingChunks(session.ChunksDir, session.TotalChunks); len(missing) > 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, missingChunksMessage(missing), nil)
	}

	now := time.Now().UTC()
	asset := &models.AudioAsset{
		AssetID:          uuid.NewString(),
		UploadID:         session.SessionID,
		UploaderID:       session.UploaderID,
		OriginalFileName: session.FileName,
		OriginalMimeType: session.MimeType,
		SizeBytes:        session.SizeBytes,
		Status:           models.AssetQueued,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to enqueue audio asset", err)
	}
	if err := s.sessions.LinkAsset(ctx, session.SessionID, asset.AssetID, now.Add(queuedTTL)); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update upload session", err)
	}

	return &CompleteResult{AssetID: asset.AssetID, Status: models.AssetQueued}, nil
}

func (s *uploadService) getOwnedSession(ctx context.Context, op, userID, uploadID string) (*models.UploadSession, error) {
	session, err := s.sessions.GetBySessionID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "upload session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load upload session", err)
	}
	if session.UploaderID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "upload session belongs to another user", nil)
	}
	return session, nil
}

func missingChunksMessage(missing []int) string {
	capped := missing
	if len(capped) > 10 {
		capped = capped[:10]
	}
	parts := make([]string, len(capped))
	for i, idx := range capped {
		parts[i] = strconv.Itoa(idx)
	}
	return "missing uploaded chunks (" + strings.Join(parts, ", ") + ")"
}
