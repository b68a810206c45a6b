package handler

import (
	"github.com/gin-gonic/gin"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/shopspring/decimal"
)

// FeeHandler handles corrections addressed to a single fee row
type FeeHandler struct {
	BaseHandler
	fees    FeeMutator
	history HistoryReader
}

// NewFeeHandler creates a new FeeHandler
func NewFeeHandler(fees FeeMutator, history HistoryReader) *FeeHandler {
	return &FeeHandler{fees: fees, history: history}
}

// WaiveFeeRequest waives all or part of a fee's outstanding balance
type WaiveFeeRequest struct {
	Mode            string          `json:"mode" binding:"required,oneof=full partial"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason" binding:"max=500"`
	ExpectedVersion *int            `json:"expected_version" binding:"omitempty,min=1"`
}

// AdjustFeeRequest replaces a fee's billed amount
type AdjustFeeRequest struct {
	NewAmount       decimal.Decimal `json:"new_amount"`
	Reason          string          `json:"reason" binding:"max=500"`
	ExpectedVersion *int            `json:"expected_version" binding:"omitempty,min=1"`
}

// UpdateDueDateRequest moves a fee's due date
type UpdateDueDateRequest struct {
	DueDate string `json:"due_date" binding:"required,datetime=2006-01-02"`
	Reason  string `json:"reason" binding:"max=500"`
}

// ReasonRequest carries only the operator's reason
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ApplyCreditRequest applies part of a family credit to one fee
type ApplyCreditRequest struct {
	FeeID  string          `json:"fee_id" binding:"required,uuid"`
	Amount decimal.Decimal `json:"amount" binding:"gt=0"`
	Notes  string          `json:"notes" binding:"max=500"`
}

// RegisterRoutes mounts the fee routes on rg
func (h *FeeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	fees := rg.Group("/fees")
	fees.POST("/:id/waive", h.Waive)
	fees.POST("/:id/adjust", h.Adjust)
	fees.PATCH("/:id/due-date", h.UpdateDueDate)
	fees.DELETE("/:id", h.Delete)
	fees.GET("/:id/audit", h.History)

	rg.POST("/family-credits/:id/apply", h.ApplyFamilyCredit)
}

// Waive handles POST /fees/:id/waive
func (h *FeeHandler) Waive(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	feeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req WaiveFeeRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.fees.WaiveFee(c.Request.Context(), actor, feeID, appfee.WaiveInput{
		Mode:            fee.WaiveMode(req.Mode),
		Amount:          req.Amount,
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, toMutationResponse(result), result.Warnings)
}

// Adjust handles POST /fees/:id/adjust
func (h *FeeHandler) Adjust(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	feeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req AdjustFeeRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.fees.AdjustFee(c.Request.Context(), actor, feeID, appfee.AdjustInput{
		NewAmount:       req.NewAmount,
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, toMutationResponse(result), result.Warnings)
}

// UpdateDueDate handles PATCH /fees/:id/due-date
func (h *FeeHandler) UpdateDueDate(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	feeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateDueDateRequest
	if !h.bind(c, &req) {
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		h.BadRequest(c, "due_date must be YYYY-MM-DD")
		return
	}

	result, err := h.fees.UpdateDueDate(c.Request.Context(), actor, feeID, due, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, toMutationResponse(result), result.Warnings)
}

// Delete handles DELETE /fees/:id. The reason travels in the body.
func (h *FeeHandler) Delete(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	feeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ReasonRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.fees.DeleteFee(c.Request.Context(), actor, feeID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, toMutationResponse(result), result.Warnings)
}

// History handles GET /fees/:id/audit
func (h *FeeHandler) History(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	feeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	items, err := h.history.FeeHistory(c.Request.Context(), actor.OrgID, feeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAuditResponses(items))
}

// ApplyFamilyCredit handles POST /family-credits/:id/apply
func (h *FeeHandler) ApplyFamilyCredit(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	creditID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ApplyCreditRequest
	if !h.bind(c, &req) {
		return
	}
	feeID, err := parseUUID(req.FeeID)
	if err != nil {
		h.BadRequest(c, "Invalid fee_id")
		return
	}

	result, err := h.fees.ApplyFamilyCredit(c.Request.Context(), actor, creditID, feeID, req.Amount, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
