package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/redevc/audio-service/internal/services"
)

type PlaybackHandler struct {
	svc services.PlaybackService
}

func NewPlaybackHandler(svc services.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{svc: svc}
}

type AssetStatusResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	PlaybackURL  string `json:"playbackUrl,omitempty"`
}

func (h *PlaybackHandler) Status(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.Status(c.Request.Context(), userID, callerRole(c), c.Param("assetId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AssetStatusResponse{
		ID:           out.ID,
		Status:       out.Status,
		ErrorMessage: out.ErrorMessage,
		PlaybackURL:  out.PlaybackURL,
	})
}

func (h *PlaybackHandler) Stream(c *gin.Context) {
	out, err := h.svc.Stream(c.Request.Context(), c.Param("assetId"), c.GetHeader("Range"))
	if err != nil {
		var unsat *services.UnsatisfiableRange
		if errors.As(err, &unsat) {
			c.Header("Accept-Ranges", "bytes")
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", unsat.Total))
			writeError(c, err)
			return
		}
		writeError(c, err)
		return
	}
	defer out.Body.Close()

	c.Header("Content-Type", out.ContentType)
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("Content-Length", strconv.FormatInt(out.Range.Length(), 10))

	status := http.StatusOK
	if out.Range.Partial {
		status = http.StatusPartialContent
		c.Header("Content-Range", out.Range.ContentRange())
	}

	c.Status(status)
	_, _ = io.Copy(c.Writer, out.Body)
}
