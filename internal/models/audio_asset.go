package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Asset lifecycle. Ready and failed are terminal; a failed asset is retried
// only by starting a new upload.
const (
	AssetQueued     = "queued"
	AssetProcessing = "processing"
	AssetReady      = "ready"
	AssetFailed     = "failed"
)

// AssetStorage describes the published artifact in the blob store. Present
// exactly when the asset is ready.
type AssetStorage struct {
	Filename    string `bson:"filename" json:"filename"`
	ContentType string `bson:"content_type" json:"contentType"`
	SizeBytes   int64  `bson:"size_bytes" json:"sizeBytes"`
}

// AudioAsset is one transcoding job and its eventual playable artifact,
// created one-to-one with a completed upload session.
type AudioAsset struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	AssetID string             `bson:"asset_id" json:"id"` // uuid v4

	UploadID   string `bson:"upload_id" json:"uploadId"`
	UploaderID string `bson:"uploader_id" json:"uploaderId"`

	OriginalFileName string `bson:"original_file_name" json:"originalFileName"`
	OriginalMimeType string `bson:"original_mime_type" json:"originalMimeType"`
	SizeBytes        int64  `bson:"size_bytes" json:"sizeBytes"`

	Status       string        `bson:"status" json:"status"`
	ErrorMessage string        `bson:"error_message,omitempty" json:"errorMessage,omitempty"`
	Storage      *AssetStorage `bson:"storage,omitempty" json:"storage,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// OutputFilename is the deterministic blob name of the transcoded artifact.
func (a *AudioAsset) OutputFilename() string {
	return a.AssetID + ".mp3"
}
