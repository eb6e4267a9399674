package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"participium/api/internal/apperr"
	"participium/api/internal/middleware"
	"participium/api/internal/repository"
)

func (h *HandlerSet) ListNotifications(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	notifications, err := h.notifications.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]notificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, newNotificationResponse(notification))
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

// AcknowledgeNotification deletes a notification; it only touches rows owned
// by the caller, so acknowledging someone else's notification reads as 404.
func (h *HandlerSet) AcknowledgeNotification(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, h.log, apperr.FromKind(apperr.KindUnauthorized))
		return
	}

	err := h.notifications.Acknowledge(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			respondError(c, h.log, apperr.New(apperr.KindNotFound, "Notification not found."))
			return
		}
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification acknowledged."})
}
