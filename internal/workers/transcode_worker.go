package workers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/redevc/audio-service/internal/models"
	mongorepo "github.com/redevc/audio-service/internal/repositories/mongo"
	"github.com/redevc/audio-service/internal/staging"
	"github.com/redevc/audio-service/internal/storage"
)

// readyTTL keeps a finished session around long enough for the uploader to
// notice before the store's expiry reclaims it.
const readyTTL = 30 * 24 * time.Hour

// Transcoder converts a merged source file into the playback format.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// TranscodeWorker polls the asset store for queued jobs, claims them one at a
// time and runs them to a terminal state. Claiming goes through the store's
// conditional update, so any number of worker processes may share a store:
// at most one of them processes a given asset.
type TranscodeWorker struct {
	Assets     mongorepo.AudioAssetRepository
	Sessions   mongorepo.UploadSessionRepository
	Blobs      storage.BlobStore
	Staging    *staging.Area
	Transcoder Transcoder

	Logger       *logrus.Logger
	PollInterval time.Duration

	ticking atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start validates dependencies and launches the polling loop: one immediate
// tick, then one per interval until the context ends or Stop is called.
func (w *TranscodeWorker) Start(ctx context.Context) error {
	if w.Assets == nil || w.Sessions == nil || w.Blobs == nil || w.Staging == nil || w.Transcoder == nil {
		return errors.New("TranscodeWorker missing dependency: Assets/Sessions/Blobs/Staging/Transcoder must be set")
	}
	if w.PollInterval <= 0 {
		w.PollInterval = 3 * time.Second
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(runCtx)

	w.Logger.WithFields(logrus.Fields{
		"poll_interval": w.PollInterval.String(),
		"staging_dir":   w.Staging.Root(),
	}).Info("audio worker started")
	return nil
}

// Stop ends the polling loop and waits for an in-flight tick to finish.
func (w *TranscodeWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *TranscodeWorker) loop(ctx context.Context) {
	defer close(w.done)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce drains the queue: claim the oldest queued asset, process it, repeat
// until no claim succeeds. A tick that fires while another is still running
// is skipped, not queued. Callable without Start for one-shot draining.
func (w *TranscodeWorker) RunOnce(ctx context.Context) {
	if w.Logger == nil {
		w.Logger = logrus.New()
	}
	if !w.ticking.CompareAndSwap(false, true) {
		return
	}
	defer w.ticking.Store(false)

	for {
		if ctx.Err() != nil {
			return
		}
		asset, err := w.Assets.ClaimNextQueued(ctx)
		if err != nil {
			w.Logger.WithError(err).Error("audio worker claim failed")
			return
		}
		if asset == nil {
			return
		}
		w.processAsset(ctx, asset)
	}
}

func (w *TranscodeWorker) processAsset(ctx context.Context, asset *models.AudioAsset) {
	log := w.Logger.WithFields(logrus.Fields{
		"asset_id":  asset.AssetID,
		"upload_id": asset.UploadID,
	})

	session, err := w.Sessions.GetBySessionID(ctx, asset.UploadID)
	if err != nil {
		// Without the session there is no staging directory to recover; the
		// job is unsalvageable.
		w.failAsset(ctx, log, asset.AssetID, "upload session not found")
		return
	}

	// Status flips before any side effect so observers never see a queued
	// session mid-merge.
	if err := w.Sessions.SetStatus(ctx, session.SessionID, models.SessionProcessing, nil); err != nil {
		log.WithError(err).Warn("failed to mark session processing")
	}

	mergedPath := filepath.Join(session.ChunksDir, asset.AssetID+".source")
	outputPath := filepath.Join(session.ChunksDir, asset.AssetID+".mp3")

	defer func() {
		_ = os.Remove(mergedPath)
		_ = os.Remove(outputPath)
		_ = staging.Remove(session.ChunksDir)
	}()

	if err := staging.Merge(session.ChunksDir, session.TotalChunks, mergedPath); err != nil {
		w.failAsset(ctx, log, asset.AssetID, err.Error())
		return
	}

	if err := w.Transcoder.Transcode(ctx, mergedPath, outputPath); err != nil {
		w.failAsset(ctx, log, asset.AssetID, err.Error())
		return
	}

	size, err := w.publish(ctx, asset, outputPath)
	if err != nil {
		w.failAsset(ctx, log, asset.AssetID, err.Error())
		return
	}

	artifact := models.AssetStorage{
		Filename:    asset.OutputFilename(),
		ContentType: "audio/mpeg",
		SizeBytes:   size,
	}
	if err := w.Assets.MarkReady(ctx, asset.AssetID, artifact); err != nil {
		log.WithError(err).Error("failed to mark asset ready")
		return
	}
	readyUntil := time.Now().UTC().Add(readyTTL)
	if err := w.Sessions.SetStatus(ctx, session.SessionID, models.SessionReady, &readyUntil); err != nil {
		log.WithError(err).Warn("failed to mark session ready")
	}

	log.WithField("size_bytes", size).Info("audio ready")
}

func (w *TranscodeWorker) publish(ctx context.Context, asset *models.AudioAsset, outputPath string) (int64, error) {
	out, err := os.Open(outputPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	return w.Blobs.Upload(ctx, asset.OutputFilename(), "audio/mpeg", map[string]string{
		"assetId":    asset.AssetID,
		"uploadId":   asset.UploadID,
		"uploaderId": asset.UploaderID,
	}, out)
}

// failAsset records a terminal failure on both the asset and its session.
// Worker-time errors are never surfaced to a caller directly; clients find
// them on the next status poll.
func (w *TranscodeWorker) failAsset(ctx context.Context, log *logrus.Entry, assetID, message string) {
	if err := w.Assets.MarkFailed(ctx, assetID, message); err != nil {
		log.WithError(err).Error("failed to mark asset failed")
	}
	if err := w.Sessions.SetStatusByAssetID(ctx, assetID, models.SessionFailed); err != nil {
		log.WithError(err).Warn("failed to mark session failed")
	}
	log.WithField("reason", message).Error("audio failed")
}
