package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/redevc/audio-service/internal/api/handlers"
	"github.com/redevc/audio-service/internal/api/middleware"
)

type Deps struct {
	Upload   *handlers.UploadHandler
	Playback *handlers.PlaybackHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	media := r.Group("/media/audio")

	// Upload management needs an authenticated publisher.
	uploads := media.Group("/uploads")
	uploads.Use(middleware.JWTAuth(), middleware.RequirePublisher())
	uploads.POST("", d.Upload.Create)
	uploads.PUT("/:uploadId/chunks/:index", d.Upload.Chunk)
	uploads.POST("/:uploadId/complete", d.Upload.Complete)

	// Status is restricted to the uploader or a publisher; the stream itself
	// is public so players can fetch it without credentials.
	media.GET("/assets/:assetId/status", middleware.JWTAuth(), d.Playback.Status)
	media.GET("/assets/:assetId/mp3", d.Playback.Stream)
}
