package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ragstack/internal/app"
	"ragstack/internal/transport/http/middleware"
	"ragstack/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Upload accepts a multipart form with a "file" field.
func (h *DocumentHandler) Upload(c *gin.Context) {
	collectionID := c.Param("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	if fileHeader.Size > app.MaxUploadSize {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, app.MaxUploadSize+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable upload")
		return
	}
	if len(data) > app.MaxUploadSize {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge, "file too large")
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), middleware.AccessorFrom(c), app.UploadInput{
		CollectionID: collectionID,
		Filename:     fileHeader.Filename,
		Data:         data,
	})
	if err != nil {
		respondServiceError(c, err, "upload failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	docs, total, err := h.documentService.List(
		middleware.AccessorFrom(c),
		c.Param("id"),
		c.Query("status"),
		offset, limit,
	)
	if err != nil {
		respondServiceError(c, err, "list documents failed")
		return
	}
	response.OK(c, response.Page{Items: docs, Total: total, Offset: offset, Limit: limit})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documentService.Get(middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documentService.Delete(c.Request.Context(), middleware.AccessorFrom(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "delete document failed")
		return
	}
	response.OK(c, nil)
}

func (h *DocumentHandler) Reprocess(c *gin.Context) {
	embeddingsOnly := c.Query("mode") == "embeddings"
	doc, err := h.documentService.Reprocess(c.Request.Context(), middleware.AccessorFrom(c), c.Param("id"), embeddingsOnly)
	if err != nil {
		respondServiceError(c, err, "reprocess document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	url, err := h.documentService.DownloadURL(c.Request.Context(), middleware.AccessorFrom(c), c.Param("id"), time.Hour)
	if err != nil {
		respondServiceError(c, err, "create download link failed")
		return
	}
	response.OK(c, gin.H{"url": url})
}

func (h *DocumentHandler) ListChunks(c *gin.Context) {
	chunks, err := h.documentService.ListChunks(middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "list chunks failed")
		return
	}
	response.OK(c, chunks)
}
