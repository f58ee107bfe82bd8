package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// audio_upload_sessions indexes
	sessions := db.Collection("audio_upload_sessions")
	_, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_session_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "uploader_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_uploader_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("by_status_updated"),
		},
		// TTL index: store reclaims abandoned sessions past expires_at
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
	})
	if err != nil && !isIndexOptionsConflict(err) {
		return err
	}

	// audio_assets indexes
	assets := db.Collection("audio_assets")
	_, err = assets.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "asset_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_asset_id").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "upload_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_upload_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "uploader_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_uploader_created"),
		},
		// the worker's claim query scans this one
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("by_status_created"),
		},
		{
			Keys:    bson.D{{Key: "storage.filename", Value: 1}},
			Options: options.Index().SetName("by_storage_filename"),
		},
	})
	if err != nil && !isIndexOptionsConflict(err) {
		return err
	}

	// playback resolves blobs by name, newest first
	files := db.Collection("audio_mp3.files")
	_, err = files.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "filename", Value: 1}, {Key: "uploadDate", Value: -1}},
		Options: options.Index().SetName("by_filename_upload_date"),
	})
	if err != nil && !isIndexOptionsConflict(err) {
		return err
	}
	return nil
}

// isIndexOptionsConflict tolerates re-running against indexes created by an
// older build with different options.
func isIndexOptionsConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(85)
}
