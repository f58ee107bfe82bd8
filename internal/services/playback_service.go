package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/redevc/audio-service/internal/httprange"
	"github.com/redevc/audio-service/internal/models"
	mongorepo "github.com/redevc/audio-service/internal/repositories/mongo"
	"github.com/redevc/audio-service/internal/storage"
	"github.com/redevc/audio-service/internal/utils"
)

type AssetStatusResult struct {
	ID           string
	Status       string
	ErrorMessage string
	PlaybackURL  string
}

// StreamResult carries an open blob window ready to copy to a response body.
type StreamResult struct {
	Body        io.ReadCloser
	Range       httprange.ByteRange
	ContentType string
}

// UnsatisfiableRange reports the blob size alongside a rejected Range header
// so callers can render the "bytes */<total>" hint.
type UnsatisfiableRange struct {
	Total int64
}

func (e *UnsatisfiableRange) Error() string {
	return fmt.Sprintf("unsatisfiable range for %d byte blob", e.Total)
}

type PlaybackService interface {
	Status(ctx context.Context, userID, role, assetID string) (*AssetStatusResult, error)
	Stream(ctx context.Context, assetID, rangeHeader string) (*StreamResult, error)
}

type playbackService struct {
	assets  mongorepo.AudioAssetRepository
	blobs   storage.BlobStore
	baseURL string
}

func NewPlaybackService(assets mongorepo.AudioAssetRepository, blobs storage.BlobStore, publicBaseURL string) PlaybackService {
	return &playbackService{
		assets:  assets,
		blobs:   blobs,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *playbackService) Status(ctx context.Context, userID, role, assetID string) (*AssetStatusResult, error) {
	const op = "PlaybackService.Status"

	asset, err := s.getAsset(ctx, op, assetID)
	if err != nil {
		return nil, err
	}

	if asset.UploaderID != userID && !utils.IsPublisherRole(role) {
		return nil, utils.E(utils.CodeForbidden, op, "access denied for this audio asset", nil)
	}

	out := &AssetStatusResult{
		ID:           asset.AssetID,
		Status:       asset.Status,
		ErrorMessage: asset.ErrorMessage,
	}
	if asset.Status == models.AssetReady {
		out.PlaybackURL = s.baseURL + "/media/audio/assets/" + asset.AssetID + "/mp3"
	}
	return out, nil
}

func (s *playbackService) Stream(ctx context.Context, assetID, rangeHeader string) (*StreamResult, error) {
	const op = "PlaybackService.Stream"

	asset, err := s.getAsset(ctx, op, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != models.AssetReady {
		return nil, utils.E(utils.CodeConflict, op, "audio asset is not ready", nil)
	}

	filename := asset.OutputFilename()
	if asset.Storage != nil && asset.Storage.Filename != "" {
		filename = asset.Storage.Filename
	}

	info, err := s.blobs.Stat(ctx, filename)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "audio file not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve audio file", err)
	}

	byteRange, err := httprange.Parse(rangeHeader, info.Size)
	if err != nil {
		return nil, utils.E(utils.CodeRangeUnsatisfied, op, "invalid byte range", &UnsatisfiableRange{Total: info.Size})
	}

	body, err := s.blobs.OpenRange(ctx, filename, byteRange.Start, byteRange.Length())
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "audio file not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to open audio file", err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return &StreamResult{Body: body, Range: byteRange, ContentType: contentType}, nil
}

func (s *playbackService) getAsset(ctx context.Context, op, assetID string) (*models.AudioAsset, error) {
	asset, err := s.assets.GetByAssetID(ctx, assetID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "audio asset not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load audio asset", err)
	}
	return asset, nil
}
