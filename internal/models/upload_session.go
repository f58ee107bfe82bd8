package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Upload session lifecycle. Only "uploading" accepts chunk writes; there is
// no path back to "uploading" once a completion has been accepted.
const (
	SessionUploading  = "uploading"
	SessionQueued     = "queued"
	SessionProcessing = "processing"
	SessionReady      = "ready"
	SessionFailed     = "failed"
)

// UploadSession tracks one chunked-upload attempt. TotalChunks is fixed at
// creation; ReceivedChunks is a set of indices in [0, TotalChunks).
type UploadSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"uploadId"` // uuid v4, caller-visible

	UploaderID string `bson:"uploader_id" json:"uploaderId"`
	FileName   string `bson:"file_name" json:"fileName"`
	MimeType   string `bson:"mime_type" json:"mimeType"`
	SizeBytes  int64  `bson:"size_bytes" json:"sizeBytes"`

	ChunkSize      int64   `bson:"chunk_size" json:"chunkSize"`
	TotalChunks    int     `bson:"total_chunks" json:"totalChunks"`
	ReceivedChunks []int   `bson:"received_chunks" json:"receivedChunks"`
	Status         string  `bson:"status" json:"status"`
	AssetID        *string `bson:"asset_id,omitempty" json:"assetId,omitempty"`
	ChunksDir      string  `bson:"chunks_dir" json:"-"`

	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	ExpiresAt   time.Time  `bson:"expires_at" json:"-"` // TTL index target
}

// ExpectedChunkSize returns the exact byte length chunk writes must carry for
// the given index. Every chunk is ChunkSize except the last, which carries
// the remainder of the declared total.
func (s *UploadSession) ExpectedChunkSize(index int) int64 {
	if index != s.TotalChunks-1 {
		return s.ChunkSize
	}
	remaining := s.SizeBytes - s.ChunkSize*int64(s.TotalChunks-1)
	if remaining > 0 {
		return remaining
	}
	return s.ChunkSize
}

// HasChunk reports whether the index is already in the received set.
func (s *UploadSession) HasChunk(index int) bool {
	for _, got := range s.ReceivedChunks {
		if got == index {
			return true
		}
	}
	return false
}
