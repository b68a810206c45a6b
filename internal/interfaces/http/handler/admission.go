package handler

import (
	"github.com/gin-gonic/gin"
	appadmission "github.com/schoolfees/backend/internal/application/admission"
)

// AdmissionHandler handles registration payment verification, decisions
// and removal of approved students
type AdmissionHandler struct {
	BaseHandler
	bridge AdmissionBridge
}

// NewAdmissionHandler creates a new AdmissionHandler
func NewAdmissionHandler(bridge AdmissionBridge) *AdmissionHandler {
	return &AdmissionHandler{bridge: bridge}
}

// VerifyPaymentRequest records a verified registration payment
type VerifyPaymentRequest struct {
	PaymentDate string `json:"payment_date" binding:"required,datetime=2006-01-02"`
	Reason      string `json:"reason" binding:"max=500"`
}

// RejectRequest rejects a pending admission request
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RemoveStudentRequest identifies an approved student to remove
type RemoveStudentRequest struct {
	StudentName   string `json:"student_name" binding:"required,max=200"`
	GuardianEmail string `json:"guardian_email" binding:"required,email,max=200"`
}

// RegisterRoutes mounts the admission routes on rg
func (h *AdmissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admissions := rg.Group("/admissions")
	admissions.POST("/:id/verify-payment", h.VerifyPayment)
	admissions.POST("/:id/mark-unpaid", h.MarkUnpaid)
	admissions.POST("/:id/approve", h.Approve)
	admissions.POST("/:id/reject", h.Reject)
	admissions.POST("/remove-student", h.RemoveStudent)
}

// VerifyPayment handles POST /admissions/:id/verify-payment
func (h *AdmissionHandler) VerifyPayment(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req VerifyPaymentRequest
	if !h.bind(c, &req) {
		return
	}
	paidOn, err := parseDate(req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "payment_date must be YYYY-MM-DD")
		return
	}

	result, err := h.bridge.VerifyRegistrationPayment(c.Request.Context(), actor, requestID, paidOn, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.paymentResult(c, result)
}

// MarkUnpaid handles POST /admissions/:id/mark-unpaid
func (h *AdmissionHandler) MarkUnpaid(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ReasonRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.bridge.MarkRegistrationUnpaid(c.Request.Context(), actor, requestID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.paymentResult(c, result)
}

func (h *AdmissionHandler) paymentResult(c *gin.Context, result *appadmission.PaymentResult) {
	h.SuccessWithWarnings(c, RegistrationPaymentResponse{
		Request: toAdmissionResponse(result.Request),
		Student: toStudentResponse(result.Student),
		Linked:  result.Linked,
	}, result.Warnings)
}

// Approve handles POST /admissions/:id/approve
func (h *AdmissionHandler) Approve(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	req, err := h.bridge.Approve(c.Request.Context(), actor, requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAdmissionResponse(req))
}

// Reject handles POST /admissions/:id/reject
func (h *AdmissionHandler) Reject(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	requestID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var body RejectRequest
	if !h.bind(c, &body) {
		return
	}

	req, err := h.bridge.Reject(c.Request.Context(), actor, requestID, body.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAdmissionResponse(req))
}

// RemoveStudent handles POST /admissions/remove-student. Every step is
// reported; a partially failed removal still answers 200 with the failed
// steps marked so the operator can retry them.
func (h *AdmissionHandler) RemoveStudent(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req RemoveStudentRequest
	if !h.bind(c, &req) {
		return
	}

	report, err := h.bridge.DeleteApprovedStudent(c.Request.Context(), actor, req.StudentName, req.GuardianEmail)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
