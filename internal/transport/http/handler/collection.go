package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragstack/internal/app"
	"ragstack/internal/model"
	"ragstack/internal/transport/http/middleware"
	"ragstack/internal/transport/http/response"
)

type CollectionHandler struct {
	collectionService *app.CollectionService
}

type CreateCollectionRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	IsPublic    bool   `json:"is_public"`
}

type UpdateCollectionRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsPublic    *bool   `json:"is_public"`
	IsArchived  *bool   `json:"is_archived"`
}

type CollectionSettingsRequest struct {
	ChunkSize         int    `json:"chunk_size" binding:"required,min=100,max=8000"`
	ChunkOverlap      int    `json:"chunk_overlap" binding:"min=0"`
	EmbeddingModel    string `json:"embedding_model" binding:"omitempty,max=100"`
	RetrievalStrategy string `json:"retrieval_strategy" binding:"omitempty,oneof=semantic keyword hybrid"`
	RerankerEnabled   bool   `json:"reranker_enabled"`
}

func NewCollectionHandler(collectionService *app.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

func (h *CollectionHandler) Create(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	collection, err := h.collectionService.Create(middleware.AccessorFrom(c), app.CreateCollectionInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondServiceError(c, err, "create collection failed")
		return
	}
	response.OK(c, collection)
}

func (h *CollectionHandler) Get(c *gin.Context) {
	collection, err := h.collectionService.Get(middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch collection failed")
		return
	}
	response.OK(c, collection)
}

func (h *CollectionHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	collections, total, err := h.collectionService.List(middleware.AccessorFrom(c), offset, limit)
	if err != nil {
		respondServiceError(c, err, "list collections failed")
		return
	}
	response.OK(c, response.Page{Items: collections, Total: total, Offset: offset, Limit: limit})
}

func (h *CollectionHandler) Update(c *gin.Context) {
	var req UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	collection, err := h.collectionService.Update(middleware.AccessorFrom(c), c.Param("id"), app.UpdateCollectionInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		IsArchived:  req.IsArchived,
	})
	if err != nil {
		respondServiceError(c, err, "update collection failed")
		return
	}
	response.OK(c, collection)
}

func (h *CollectionHandler) Delete(c *gin.Context) {
	if err := h.collectionService.Delete(middleware.AccessorFrom(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "delete collection failed")
		return
	}
	response.OK(c, nil)
}

func (h *CollectionHandler) Stats(c *gin.Context) {
	stats, err := h.collectionService.Stats(middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch collection stats failed")
		return
	}
	response.OK(c, stats)
}

func (h *CollectionHandler) GetSettings(c *gin.Context) {
	settings, err := h.collectionService.GetSettings(middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch collection settings failed")
		return
	}
	response.OK(c, settings)
}

func (h *CollectionHandler) UpdateSettings(c *gin.Context) {
	var req CollectionSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	settings, err := h.collectionService.UpdateSettings(middleware.AccessorFrom(c), c.Param("id"), model.CollectionSettings{
		ChunkSize:         req.ChunkSize,
		ChunkOverlap:      req.ChunkOverlap,
		EmbeddingModel:    req.EmbeddingModel,
		RetrievalStrategy: req.RetrievalStrategy,
		RerankerEnabled:   req.RerankerEnabled,
	})
	if err != nil {
		respondServiceError(c, err, "update collection settings failed")
		return
	}
	response.OK(c, settings)
}
