package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"participium/api/internal/apperr"
	"participium/api/internal/service"
)

func (h *HandlerSet) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newUserResponse(user))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

type createStaffRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

// CreateStaffUser provisions a MUNICIPAL_STAFF account; only administrators
// reach this handler.
func (h *HandlerSet) CreateStaffUser(c *gin.Context) {
	var req createStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.New(apperr.KindValidation, "Invalid staff account payload."))
		return
	}

	user, err := h.auth.CreateStaffUser(c.Request.Context(), service.RegisterInput{
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
