package config

import (
	"os"
	"strconv"
	"time"
)

// Blob store backends.
const (
	BlobBackendGridFS = "gridfs"
	BlobBackendGCS    = "gcs"
)

// Audio holds the tunables of the upload/transcode pipeline. All values come
// from the environment with production defaults.
type Audio struct {
	MaxUploadBytes int64
	ChunkBytes     int64
	StagingDir     string
	PollInterval   time.Duration
	FFmpegPath     string
	BlobBackend    string
	GCSBucket      string
	PublicBaseURL  string
}

func LoadAudio() Audio {
	return Audio{
		MaxUploadBytes: envInt64("AUDIO_UPLOAD_MAX_BYTES", 524288000),
		ChunkBytes:     envInt64("AUDIO_UPLOAD_CHUNK_BYTES", 5242880),
		StagingDir:     envString("AUDIO_UPLOAD_TMP_DIR", "/tmp/redevc-audio"),
		PollInterval:   time.Duration(envInt64("AUDIO_WORKER_POLL_MS", 3000)) * time.Millisecond,
		FFmpegPath:     os.Getenv("FFMPEG_PATH"),
		BlobBackend:    envString("AUDIO_BLOB_BACKEND", BlobBackendGridFS),
		GCSBucket:      os.Getenv("AUDIO_GCS_BUCKET"),
		PublicBaseURL:  envString("PUBLIC_BASE_URL", "http://localhost:8080"),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
