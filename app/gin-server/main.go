package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/redevc/audio-service/config"
	"github.com/redevc/audio-service/internal/api/handlers"
	"github.com/redevc/audio-service/internal/api/middleware"
	"github.com/redevc/audio-service/internal/api/routes"
	"github.com/redevc/audio-service/internal/logger"
	mongorepo "github.com/redevc/audio-service/internal/repositories/mongo"
	"github.com/redevc/audio-service/internal/services"
	"github.com/redevc/audio-service/internal/staging"
	"github.com/redevc/audio-service/internal/storage"
	"github.com/redevc/audio-service/internal/transcode"
	"github.com/redevc/audio-service/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Fatal("MongoDB index error")
	}
	log.Info("MongoDB connected")

	audioCfg := config.LoadAudio()
	db := config.MongoDatabase()

	var blobs storage.BlobStore
	switch audioCfg.BlobBackend {
	case config.BlobBackendGCS:
		gcsStore, err := storage.NewGCSStore(context.Background(), audioCfg.GCSBucket)
		if err != nil {
			log.WithError(err).Fatal("GCS init error")
		}
		defer gcsStore.Close()
		blobs = gcsStore
	default:
		gridStore, err := storage.NewGridFSStore(db, "audio_mp3")
		if err != nil {
			log.WithError(err).Fatal("GridFS init error")
		}
		blobs = gridStore
	}

	area := staging.New(audioCfg.StagingDir)
	sessions := mongorepo.NewUploadSessionRepo(db)
	assets := mongorepo.NewAudioAssetRepo(db)

	uploadSvc := services.NewUploadService(sessions, assets, area, audioCfg.MaxUploadBytes, audioCfg.ChunkBytes)
	playbackSvc := services.NewPlaybackService(assets, blobs, audioCfg.PublicBaseURL)

	worker := &workers.TranscodeWorker{
		Assets:       assets,
		Sessions:     sessions,
		Blobs:        blobs,
		Staging:      area,
		Transcoder:   &transcode.FFmpeg{OverridePath: audioCfg.FFmpegPath},
		Logger:       log,
		PollInterval: audioCfg.PollInterval,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worker.Start(ctx); err != nil {
		log.WithError(err).Fatal("worker start error")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Upload:   handlers.NewUploadHandler(uploadSvc),
		Playback: handlers.NewPlaybackHandler(playbackSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.WithField("addr", srv.Addr).Info("api is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown error")
	}

	worker.Stop()
	_ = config.MongoClient.Disconnect(shutdownCtx)
}
