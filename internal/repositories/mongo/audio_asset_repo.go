package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/redevc/audio-service/internal/models"
	"github.com/redevc/audio-service/internal/utils"
)

type AudioAssetRepository interface {
	Create(ctx context.Context, a *models.AudioAsset) error
	GetByAssetID(ctx context.Context, assetID string) (*models.AudioAsset, error)
	// ClaimNextQueued conditionally moves the oldest queued asset to
	// processing. Returns (nil, nil) when nothing is claimable, including a
	// lost race against a concurrent claimant.
	ClaimNextQueued(ctx context.Context) (*models.AudioAsset, error)
	MarkReady(ctx context.Context, assetID string, storage models.AssetStorage) error
	MarkFailed(ctx context.Context, assetID, message string) error
}

type audioAssetRepo struct {
	col *mongo.Collection
}

func NewAudioAssetRepo(db *mongo.Database) AudioAssetRepository {
	return &audioAssetRepo{col: db.Collection("audio_assets")}
}

func (r *audioAssetRepo) Create(ctx context.Context, a *models.AudioAsset) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	_, err := r.col.InsertOne(ctx, a)
	return err
}

func (r *audioAssetRepo) GetByAssetID(ctx context.Context, assetID string) (*models.AudioAsset, error) {
	var a models.AudioAsset
	err := r.col.FindOne(ctx, bson.M{"asset_id": assetID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *audioAssetRepo) ClaimNextQueued(ctx context.Context) (*models.AudioAsset, error) {
	var candidate models.AudioAsset
	err := r.col.FindOne(ctx,
		bson.M{"status": models.AssetQueued},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	).Decode(&candidate)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// The guard on status makes this a compare-and-set: under concurrent
	// pollers at most one update matches.
	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"asset_id": candidate.AssetID, "status": models.AssetQueued},
		bson.M{
			"$set":   bson.M{"status": models.AssetProcessing, "updated_at": now},
			"$unset": bson.M{"error_message": ""},
		},
	)
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		return nil, nil
	}

	candidate.Status = models.AssetProcessing
	candidate.UpdatedAt = now
	candidate.ErrorMessage = ""
	return &candidate, nil
}

func (r *audioAssetRepo) MarkReady(ctx context.Context, assetID string, storage models.AssetStorage) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"asset_id": assetID},
		bson.M{
			"$set": bson.M{
				"status":     models.AssetReady,
				"storage":    storage,
				"updated_at": time.Now().UTC(),
			},
			"$unset": bson.M{"error_message": ""},
		},
	)
	return err
}

func (r *audioAssetRepo) MarkFailed(ctx context.Context, assetID, message string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"asset_id": assetID},
		bson.M{"$set": bson.M{
			"status":        models.AssetFailed,
			"error_message": message,
			"updated_at":    time.Now().UTC(),
		}},
	)
	return err
}
