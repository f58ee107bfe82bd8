package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/redevc/audio-service/internal/models"
	"github.com/redevc/audio-service/internal/utils"
)

type UploadSessionRepository interface {
	Create(ctx context.Context, s *models.UploadSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.UploadSession, error)
	AddReceivedChunk(ctx context.Context, sessionID string, index int) error
	LinkAsset(ctx context.Context, sessionID, assetID string, expiresAt time.Time) error
	SetStatus(ctx context.Context, sessionID, status string, expiresAt *time.Time) error
	SetStatusByAssetID(ctx context.Context, assetID, status string) error
}

type uploadSessionRepo struct {
	col *mongo.Collection
}

func NewUploadSessionRepo(db *mongo.Database) UploadSessionRepository {
	return &uploadSessionRepo{col: db.Collection("audio_upload_sessions")}
}

func (r *uploadSessionRepo) Create(ctx context.Context, s *models.UploadSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *uploadSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.UploadSession, error) {
	var s models.UploadSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AddReceivedChunk records the index as received. $addToSet makes re-sends of
// an already-received index a no-op.
func (r *uploadSessionRepo) AddReceivedChunk(ctx context.Context, sessionID string, index int) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$set":      bson.M{"updated_at": time.Now().UTC()},
			"$addToSet": bson.M{"received_chunks": index},
		},
	)
	return err
}

// LinkAsset flips a completed session to queued and binds it to its asset.
// Retention is pushed forward; the staged chunks must outlive the queue wait.
func (r *uploadSessionRepo) LinkAsset(ctx context.Context, sessionID, assetID string, expiresAt time.Time) error {
	now := time.Now().UTC()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"status":       models.SessionQueued,
			"asset_id":     assetID,
			"completed_at": now,
			"updated_at":   now,
			"expires_at":   expiresAt,
		}},
	)
	return err
}

func (r *uploadSessionRepo) SetStatus(ctx context.Context, sessionID, status string, expiresAt *time.Time) error {
	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if expiresAt != nil {
		set["expires_at"] = expiresAt.UTC()
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"session_id": sessionID}, bson.M{"$set": set})
	return err
}

func (r *uploadSessionRepo) SetStatusByAssetID(ctx context.Context, assetID, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"asset_id": assetID},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}},
	)
	return err
}
