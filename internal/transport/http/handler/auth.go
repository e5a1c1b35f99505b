package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragstack/internal/app"
	"ragstack/internal/model"
	"ragstack/internal/transport/http/middleware"
	"ragstack/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"omitempty,oneof=user viewer"`
	TenantID string `json:"tenant_id" binding:"omitempty,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

type PreferencesRequest struct {
	Theme    string `json:"theme" binding:"omitempty,oneof=light dark system"`
	Language string `json:"language" binding:"omitempty,max=10"`
	Timezone string `json:"timezone" binding:"omitempty,max=50"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		TenantID: req.TenantID,
	})
	if err != nil {
		respondServiceError(c, err, "register failed")
		return
	}

	response.OK(c, authPayload(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, err, "login failed")
		return
	}

	response.OK(c, authPayload(result))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err, "refresh failed")
		return
	}

	response.OK(c, authPayload(result))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		respondServiceError(c, err, "logout failed")
		return
	}
	response.OK(c, nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUser(c.GetString(middleware.ContextUserIDKey))
	if err != nil {
		respondServiceError(c, err, "fetch current user failed")
		return
	}
	response.OK(c, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.authService.UpdateProfile(c.GetString(middleware.ContextUserIDKey), req.Name)
	if err != nil {
		respondServiceError(c, err, "update profile failed")
		return
	}
	response.OK(c, user)
}

func (h *AuthHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.authService.GetPreferences(c.GetString(middleware.ContextUserIDKey))
	if err != nil {
		respondServiceError(c, err, "fetch preferences failed")
		return
	}
	response.OK(c, prefs)
}

func (h *AuthHandler) UpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	prefs, err := h.authService.SavePreferences(c.GetString(middleware.ContextUserIDKey), model.UserPreferences{
		Theme:    req.Theme,
		Language: req.Language,
		Timezone: req.Timezone,
	})
	if err != nil {
		respondServiceError(c, err, "save preferences failed")
		return
	}
	response.OK(c, prefs)
}

func authPayload(result *app.AuthResult) gin.H {
	return gin.H{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_in":    result.ExpiresIn,
		"user":          result.User,
	}
}
