package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

// StudentHandler handles ledger reads and student-scoped fee operations
type StudentHandler struct {
	BaseHandler
	students StudentFinder
	fees     FeeMutator
	ledger   LedgerReader
	history  HistoryReader
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(students StudentFinder, fees FeeMutator, ledger LedgerReader, history HistoryReader) *StudentHandler {
	return &StudentHandler{students: students, fees: fees, ledger: ledger, history: history}
}

// RecomputeRequest optionally overrides the audit reason of a recompute
type RecomputeRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SyncTuitionRequest optionally names the class to price against
type SyncTuitionRequest struct {
	ClassName string `json:"class_name" binding:"max=100"`
}

// ChangeClassRequest moves a student to another class. An omitted class_id
// or registration_fee keeps the current value.
type ChangeClassRequest struct {
	ClassID         *string          `json:"class_id" binding:"omitempty,uuid"`
	ClassName       string           `json:"class_name" binding:"max=100"`
	RegistrationFee *decimal.Decimal `json:"registration_fee"`
	Reason          string           `json:"reason" binding:"max=500"`
}

// ReceivablesQuery selects the billing month
type ReceivablesQuery struct {
	Month string `form:"month" binding:"required,datetime=2006-01"`
}

// RegisterRoutes mounts the student routes on rg
func (h *StudentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	students := rg.Group("/students/:id")
	students.GET("/ledger", h.Ledger)
	students.GET("/audit", h.History)
	students.POST("/fees/:feeId/mark-paid", h.MarkPaid)
	students.POST("/fees/:feeId/mark-unpaid", h.MarkUnpaid)
	students.POST("/bootstrap-fees", h.Bootstrap)
	students.POST("/recompute-balances", h.Recompute)
	students.POST("/sync-tuition", h.SyncTuition)
	students.PUT("/class", h.ChangeClass)

	rg.GET("/receivables", h.Receivables)
}

// loadStudent resolves the :id path parameter to a student context in the
// caller's organization, writing the error response itself on failure.
func (h *StudentHandler) loadStudent(c *gin.Context, actor appaudit.Actor) (student.Context, bool) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return student.Context{}, false
	}
	st, err := h.students.FindByIDForOrg(c.Request.Context(), actor.OrgID, id)
	if err != nil {
		h.HandleError(c, err)
		return student.Context{}, false
	}
	if st == nil {
		h.HandleError(c, student.ErrStudentNotFound)
		return student.Context{}, false
	}
	return st.Context(), true
}

// Ledger handles GET /students/:id/ledger
func (h *StudentHandler) Ledger(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	sc, ok := h.loadStudent(c, actor)
	if !ok {
		return
	}

	ledger, err := h.ledger.StudentLedger(c.Request.Context(), sc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, LedgerResponse{
		StudentID: ledger.StudentID,
		Fees:      toFeeResponses(ledger.Fees),
		Totals:    toTotalsResponse(ledger.Totals),
	})
}

// History handles GET /students/:id/audit
func (h *StudentHandler) History(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	studentID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q dto.ListRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "page and page_size must be positive; page_size at most 200")
		return
	}

	page, err := h.history.StudentHistory(c.Request.Context(), actor.OrgID, studentID, shared.ListOptions{
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toAuditResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// MarkPaid handles POST /students/:id/fees/:feeId/mark-paid
func (h *StudentHandler) MarkPaid(c *gin.Context) {
	h.togglePaid(c, h.fees.MarkPaid)
}

// MarkUnpaid handles POST /students/:id/fees/:feeId/mark-unpaid
func (h *StudentHandler) MarkUnpaid(c *gin.Context) {
	h.togglePaid(c, h.fees.MarkUnpaid)
}

type paidToggle func(ctx context.Context, actor appaudit.Actor, sc student.Context, feeID uuid.UUID, reason string) (*appfee.MutationResult, error)

func (h *StudentHandler) togglePaid(c *gin.Context, apply paidToggle) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	sc, ok := h.loadStudent(c, actor)
	if !ok {
		return
	}
	feeID, ok := h.uuidParam(c, "feeId")
	if !ok {
		return
	}
	var req ReasonRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := apply(c.Request.Context(), actor, sc, feeID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, toMutationResponse(result), result.Warnings)
}

// Bootstrap handles POST /students/:id/bootstrap-fees
func (h *StudentHandler) Bootstrap(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	sc, ok := h.loadStudent(c, actor)
	if !ok {
		return
	}

	result, err := h.fees.BootstrapFeesIfMissing(c.Request.Context(), actor, sc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Created > 0 {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// Recompute handles POST /students/:id/recompute-balances
func (h *StudentHandler) Recompute(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	sc, ok := h.loadStudent(c, actor)
	if !ok {
		return
	}
	var req RecomputeRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	result, err := h.fees.RecomputeLearnerBalances(c.Request.Context(), actor, sc, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, gin.H{
		"touched": result.Touched,
		"ledger":  toFeeResponses(result.Ledger),
	}, result.Warnings)
}

// SyncTuition handles POST /students/:id/sync-tuition
func (h *StudentHandler) SyncTuition(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	sc, ok := h.loadStudent(c, actor)
	if !ok {
		return
	}
	var req SyncTuitionRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	result, err := h.fees.SyncPendingTuitionFees(c.Request.Context(), actor, sc, req.ClassName)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, gin.H{
		"updated_count": result.UpdatedCount,
		"ledger":        toFeeResponses(result.Ledger),
	}, result.Warnings)
}

// ChangeClass handles PUT /students/:id/class
func (h *StudentHandler) ChangeClass(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	sc, ok := h.loadStudent(c, actor)
	if !ok {
		return
	}
	var req ChangeClassRequest
	if !h.bind(c, &req) {
		return
	}

	// omitted fields keep their current values
	in := appfee.ChangeClassInput{
		NewClassID:         sc.ClassID,
		NewClassName:       req.ClassName,
		NewRegistrationFee: sc.RegistrationFeeAmount,
		Reason:             req.Reason,
	}
	if req.ClassID != nil {
		id, err := parseUUID(*req.ClassID)
		if err != nil {
			h.BadRequest(c, "Invalid class_id")
			return
		}
		in.NewClassID = &id
	}
	if req.RegistrationFee != nil {
		if req.RegistrationFee.IsNegative() {
			h.BadRequest(c, "registration_fee must not be negative")
			return
		}
		in.NewRegistrationFee = *req.RegistrationFee
	}

	result, err := h.fees.ChangeStudentClass(c.Request.Context(), actor, sc, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, ClassChangeResponse{
		Message:      result.Message(),
		ClassChanged: result.ClassChanged,
		FeeChanged:   result.FeeChanged,
		SyncedCount:  result.SyncedCount,
		Student:      toStudentResponse(result.Student),
		Ledger:       toFeeResponses(result.Ledger),
	}, result.Warnings)
}

func parseMonth(value string) (time.Time, error) {
	return time.ParseInLocation(monthLayout, value, time.UTC)
}

// Receivables handles GET /receivables?month=YYYY-MM
func (h *StudentHandler) Receivables(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var q ReceivablesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "month must be YYYY-MM")
		return
	}
	month, err := parseMonth(q.Month)
	if err != nil {
		h.BadRequest(c, "month must be YYYY-MM")
		return
	}

	r, err := h.ledger.OrganizationReceivables(c.Request.Context(), actor.OrgID, month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ReceivablesResponse{
		Month:  r.Month.Format(monthLayout),
		Fees:   toFeeResponses(r.Fees),
		Totals: toTotalsResponse(r.Totals),
	})
}
