package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragstack/internal/app"
	"ragstack/internal/transport/http/middleware"
	"ragstack/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type CreateSessionRequest struct {
	Title         string   `json:"title" binding:"omitempty,max=500"`
	CollectionIDs []string `json:"collection_ids" binding:"omitempty,dive,uuid"`
}

type RenameSessionRequest struct {
	Title string `json:"title" binding:"required,min=1,max=500"`
}

type ArchiveSessionRequest struct {
	Archived bool `json:"archived"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=8000"`
}

type QueryRequest struct {
	Query         string   `json:"query" binding:"required,min=1,max=8000"`
	CollectionIDs []string `json:"collection_ids" binding:"required,min=1,dive,uuid"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.chatService.CreateSession(middleware.AccessorFrom(c), app.CreateSessionInput{
		Title:         req.Title,
		CollectionIDs: req.CollectionIDs,
	})
	if err != nil {
		respondServiceError(c, err, "create session failed")
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	offset, limit := pagination(c)
	includeArchived := c.Query("include_archived") == "true"

	sessions, total, err := h.chatService.ListSessions(middleware.AccessorFrom(c), includeArchived, offset, limit)
	if err != nil {
		respondServiceError(c, err, "list sessions failed")
		return
	}
	response.OK(c, response.Page{Items: sessions, Total: total, Offset: offset, Limit: limit})
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.chatService.GetSession(middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch session failed")
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) RenameSession(c *gin.Context) {
	var req RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.chatService.RenameSession(middleware.AccessorFrom(c), c.Param("id"), req.Title)
	if err != nil {
		respondServiceError(c, err, "rename session failed")
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) ArchiveSession(c *gin.Context) {
	var req ArchiveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.chatService.ArchiveSession(middleware.AccessorFrom(c), c.Param("id"), req.Archived)
	if err != nil {
		respondServiceError(c, err, "archive session failed")
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.chatService.DeleteSession(c.Request.Context(), middleware.AccessorFrom(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "delete session failed")
		return
	}
	response.OK(c, nil)
}

func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.chatService.History(c.Request.Context(), middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch history failed")
		return
	}
	response.OK(c, messages)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), middleware.AccessorFrom(c), c.Param("id"), req.Content)
	if err != nil {
		respondServiceError(c, err, "send message failed")
		return
	}
	response.OK(c, gin.H{
		"user_message":      result.UserMessage,
		"assistant_message": result.AssistantMessage,
		"citations":         result.Citations,
		"confidence":        result.Confidence,
	})
}

func (h *ChatHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.Query(c.Request.Context(), middleware.AccessorFrom(c), req.CollectionIDs, req.Query)
	if err != nil {
		respondServiceError(c, err, "query failed")
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) Citations(c *gin.Context) {
	citations, err := h.chatService.Citations(middleware.AccessorFrom(c), c.Param("id"), c.Param("messageID"))
	if err != nil {
		respondServiceError(c, err, "fetch citations failed")
		return
	}
	response.OK(c, citations)
}
