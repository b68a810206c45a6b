// Package handler exposes the fee ledger, correction and registration
// operations over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/logger"
	"github.com/schoolfees/backend/internal/interfaces/http/dto"
	"github.com/schoolfees/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// dateLayout is the wire format of calendar dates
const dateLayout = "2006-01-02"

// DefaultSourceScreen is recorded on audit rows when none is configured
const DefaultSourceScreen = "fee_admin"

var errMissingActor = errors.New("request is not authenticated")

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// SourceScreen is recorded on every audit row written through this handler
	SourceScreen string
}

func getRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// actor builds the audit actor from the verified JWT claims
func (h *BaseHandler) actor(c *gin.Context) (appaudit.Actor, error) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		return appaudit.Actor{}, errMissingActor
	}
	orgID, err := claims.OrgID()
	if err != nil {
		return appaudit.Actor{}, errMissingActor
	}
	userID, err := claims.ActorID()
	if err != nil {
		return appaudit.Actor{}, errMissingActor
	}
	screen := h.SourceScreen
	if screen == "" {
		screen = DefaultSourceScreen
	}
	return appaudit.Actor{
		UserID:       &userID,
		OrgID:        orgID,
		Role:         claims.Role,
		SourceScreen: screen,
	}, nil
}

// requireActor writes 401 and returns false when the request has no actor
func (h *BaseHandler) requireActor(c *gin.Context) (appaudit.Actor, bool) {
	a, err := h.actor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return appaudit.Actor{}, false
	}
	return a, true
}

// uuidParam parses a UUID path parameter, writing 400 when it is malformed
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// bind binds the JSON body, writing a validation error response on failure
func (h *BaseHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithWarnings sends a success response carrying mutation warnings
func (h *BaseHandler) SuccessWithWarnings(c *gin.Context, data any, warnings []appfee.Warning) {
	if len(warnings) == 0 {
		h.Success(c, data)
		return
	}
	out := make([]dto.WarningDTO, len(warnings))
	for i, w := range warnings {
		out[i] = dto.WarningDTO{Code: w.Code, Message: w.Message}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithWarnings(data, out))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError maps err to its status through the domain error kind.
// Server-side failures are logged with their cause.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	status := dto.StatusForError(err)
	info := dto.ErrorInfoFromError(err)
	info.RequestID = getRequestID(c)

	l := logger.Gin(c)
	if status >= http.StatusInternalServerError {
		l.Error("request failed", zap.Error(err), zap.String("kind", string(shared.KindOf(err))))
	} else {
		l.Debug("request rejected", zap.Error(err), zap.String("code", info.Code))
	}
	_ = c.Error(err)
	c.JSON(status, dto.Response{Success: false, Error: info})
}

// parseDate parses a YYYY-MM-DD value as UTC midnight
func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.UTC)
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}
