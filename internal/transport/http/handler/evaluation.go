package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragstack/internal/app"
	"ragstack/internal/transport/http/middleware"
	"ragstack/internal/transport/http/response"
)

type EvaluationHandler struct {
	evaluationService *app.EvaluationService
}

type TestQueryRequest struct {
	Query          string `json:"query" binding:"required,min=1,max=4000"`
	ExpectedAnswer string `json:"expected_answer" binding:"omitempty,max=8000"`
	Category       string `json:"category" binding:"omitempty,max=100"`
	Difficulty     string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

type CreateEvaluationRequest struct {
	Name          string             `json:"name" binding:"required,min=1,max=255"`
	Description   string             `json:"description" binding:"omitempty,max=2000"`
	CollectionIDs []string           `json:"collection_ids" binding:"required,min=1,dive,uuid"`
	Queries       []TestQueryRequest `json:"queries" binding:"required,min=1,max=200,dive"`
}

func NewEvaluationHandler(evaluationService *app.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

func (h *EvaluationHandler) Create(c *gin.Context) {
	var req CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	queries := make([]app.TestQueryInput, 0, len(req.Queries))
	for _, q := range req.Queries {
		queries = append(queries, app.TestQueryInput{
			Query:          q.Query,
			ExpectedAnswer: q.ExpectedAnswer,
			Category:       q.Category,
			Difficulty:     q.Difficulty,
		})
	}

	evaluation, err := h.evaluationService.Create(middleware.AccessorFrom(c), app.CreateEvaluationInput{
		Name:          req.Name,
		Description:   req.Description,
		CollectionIDs: req.CollectionIDs,
		Queries:       queries,
	})
	if err != nil {
		respondServiceError(c, err, "create evaluation failed")
		return
	}
	response.OK(c, evaluation)
}

func (h *EvaluationHandler) Get(c *gin.Context) {
	detail, err := h.evaluationService.Get(middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch evaluation failed")
		return
	}
	response.OK(c, detail)
}

func (h *EvaluationHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	evaluations, total, err := h.evaluationService.List(middleware.AccessorFrom(c), c.Query("status"), offset, limit)
	if err != nil {
		respondServiceError(c, err, "list evaluations failed")
		return
	}
	response.OK(c, response.Page{Items: evaluations, Total: total, Offset: offset, Limit: limit})
}

func (h *EvaluationHandler) Run(c *gin.Context) {
	evaluation, err := h.evaluationService.Run(c.Request.Context(), middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "run evaluation failed")
		return
	}
	response.OK(c, evaluation)
}

func (h *EvaluationHandler) Delete(c *gin.Context) {
	if err := h.evaluationService.Delete(middleware.AccessorFrom(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "delete evaluation failed")
		return
	}
	response.OK(c, nil)
}
