package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"participium/api/internal/apperr"
	"participium/api/internal/middleware"
	"participium/api/internal/security"
	"participium/api/internal/service"
)

type signupRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

func (h *HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Invalid signup payload."))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

func (h *HandlerSet) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Email and code are required."))
		return
	}

	user, err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

type resendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *HandlerSet) ResendVerification(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "A valid email address is required."))
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a new code has been sent."})
}

type loginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

func (h *HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Email and password are required."))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": newUserResponse(result.User),
		"tokens": tokenResponse{
			AccessToken:  result.Tokens.AccessToken,
			RefreshToken: result.Tokens.RefreshToken,
			ExpiresIn:    result.Tokens.ExpiresIn,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Refresh token is required."))
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresIn:    result.Tokens.ExpiresIn,
	})
}

func (h *HandlerSet) Logout(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims.SessionID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

func (h *HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

type updateProfileRequest struct {
	TelegramUsername          *string `json:"telegramUsername"`
	EmailNotificationsEnabled *bool   `json:"emailNotificationsEnabled"`
}

func (h *HandlerSet) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Invalid profile payload."))
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, service.ProfileUpdateInput{
		TelegramUsername:          req.TelegramUsername,
		EmailNotificationsEnabled: req.EmailNotificationsEnabled,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(updated))
}

func (h *HandlerSet) ListSessions(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	sessions, err := h.auth.ListSessions(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, newSessionResponse(session))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *HandlerSet) RevokeSession(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	if err := h.auth.RevokeDevice(c.Request.Context(), user.ID, c.Param("deviceId")); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session revoked."})
}

func currentClaims(c *gin.Context) (security.AccessClaims, bool) {
	val, exists := c.Get(middleware.ContextClaimsKey)
	if !exists {
		return security.AccessClaims{}, false
	}
	claims, ok := val.(security.AccessClaims)
	return claims, ok
}
