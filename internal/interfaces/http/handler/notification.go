package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/interfaces/http/dto"
)

// NotificationHandler lists the caller's in-app notifications
type NotificationHandler struct {
	BaseHandler
	inbox NotificationLister
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(inbox NotificationLister) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// RegisterRoutes mounts the notification routes on rg
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.List)
}

// List handles GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var q dto.ListRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "page and page_size must be positive; page_size at most 200")
		return
	}

	items, err := h.inbox.ListForUser(c.Request.Context(), actor.OrgID, *actor.UserID, shared.ListOptions{
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toNotificationResponses(items))
}
