package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/redevc/audio-service/internal/services"
	"github.com/redevc/audio-service/internal/utils"
)

type UploadHandler struct {
	svc services.UploadService
}

func NewUploadHandler(svc services.UploadService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

type CreateUploadRequest struct {
	FileName  string `json:"fileName" binding:"required"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes" binding:"required"`
}

type CreateUploadResponse struct {
	UploadID    string `json:"uploadId"`
	ChunkSize   int64  `json:"chunkSize"`
	TotalChunks int    `json:"totalChunks"`
	MaxBytes    int64  `json:"maxBytes"`
}

func (h *UploadHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "UploadHandler.Create", "invalid request body", err))
		return
	}

	out, err := h.svc.CreateSession(c.Request.Context(), userID, req.FileName, req.MimeType, req.SizeBytes)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateUploadResponse{
		UploadID:    out.UploadID,
		ChunkSize:   out.ChunkSize,
		TotalChunks: out.TotalChunks,
		MaxBytes:    out.MaxBytes,
	})
}

type ChunkResponse struct {
	UploadID       string `json:"uploadId"`
	Index          int    `json:"index"`
	ReceivedChunks int    `json:"receivedChunks"`
	TotalChunks    int    `json:"totalChunks"`
}

func (h *UploadHandler) Chunk(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	uploadID := c.Param("uploadId")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "UploadHandler.Chunk", "chunk index must be a non-negative integer", err))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "UploadHandler.Chunk", "failed to read chunk body", err))
		return
	}

	out, err := h.svc.AcceptChunk(c.Request.Context(), userID, uploadID, index, c.ContentType(), body)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChunkResponse{
		UploadID:       out.UploadID,
		Index:          out.Index,
		ReceivedChunks: out.ReceivedChunks,
		TotalChunks:    out.TotalChunks,
	})
}

type CompleteResponse struct {
	AssetID string `json:"assetId"`
	Status  string `json:"status"`
}

func (h *UploadHandler) Complete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.Complete(c.Request.Context(), userID, c.Param("uploadId"))
	if err != nil {
		writeError(c, err)
		return
	}

	// 202: the asset is queued, processing happens in the background
	c.JSON(http.StatusAccepted, CompleteResponse{
		AssetID: out.AssetID,
		Status:  out.Status,
	})
}
