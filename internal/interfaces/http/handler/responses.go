package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/shopspring/decimal"
)

// FeeResponse is one student fee row
type FeeResponse struct {
	ID             uuid.UUID       `json:"id"`
	StudentID      uuid.UUID       `json:"student_id"`
	FeeStructureID *uuid.UUID      `json:"fee_structure_id,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Discount       decimal.Decimal `json:"discount_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	Outstanding    decimal.Decimal `json:"amount_outstanding"`
	Status         string          `json:"status"`
	DueDate        *string         `json:"due_date,omitempty"`
	BillingMonth   *string         `json:"billing_month,omitempty"`
	PaidDate       *string         `json:"paid_date,omitempty"`
	Version        int             `json:"version"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TotalsResponse are the derived ledger sums
type TotalsResponse struct {
	Outstanding decimal.Decimal `json:"outstanding"`
	Paid        decimal.Decimal `json:"paid"`
	Waived      decimal.Decimal `json:"waived"`
}

// LedgerResponse is a student's fees with totals
type LedgerResponse struct {
	StudentID uuid.UUID      `json:"student_id"`
	Fees      []FeeResponse  `json:"fees"`
	Totals    TotalsResponse `json:"totals"`
}

// MutationResponse is returned by every fee correction
type MutationResponse struct {
	Fee    *FeeResponse  `json:"fee,omitempty"`
	Ledger []FeeResponse `json:"ledger"`
}

// ReceivablesResponse is the organization's unpaid fees for one month
type ReceivablesResponse struct {
	Month  string         `json:"month"`
	Fees   []FeeResponse  `json:"fees"`
	Totals TotalsResponse `json:"totals"`
}

// AuditResponse is one correction audit row
type AuditResponse struct {
	ID           uuid.UUID       `json:"id"`
	StudentID    uuid.UUID       `json:"student_id"`
	FeeID        *uuid.UUID      `json:"fee_id,omitempty"`
	Action       string          `json:"action"`
	Reason       string          `json:"reason"`
	Before       json.RawMessage `json:"before"`
	After        json.RawMessage `json:"after"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty"`
	ActorRole    string          `json:"actor_role,omitempty"`
	SourceScreen string          `json:"source_screen,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StudentResponse is the part of a student this service changes
type StudentResponse struct {
	ID                      uuid.UUID       `json:"id"`
	FullName                string          `json:"full_name"`
	ClassID                 *uuid.UUID      `json:"class_id,omitempty"`
	ClassName               string          `json:"class_name"`
	Status                  string          `json:"status"`
	RegistrationFeeAmount   decimal.Decimal `json:"registration_fee_amount"`
	RegistrationFeePaid     bool            `json:"registration_fee_paid"`
	RegistrationFeeVerified bool            `json:"registration_fee_verified"`
	RegistrationPaymentDate *string         `json:"registration_payment_date,omitempty"`
	Version                 int             `json:"version"`
}

// ClassChangeResponse reports a class change
type ClassChangeResponse struct {
	Message      string           `json:"message"`
	ClassChanged bool             `json:"class_changed"`
	FeeChanged   bool             `json:"fee_changed"`
	SyncedCount  int              `json:"synced_count"`
	Student      *StudentResponse `json:"student,omitempty"`
	Ledger       []FeeResponse    `json:"ledger"`
}

// AdmissionResponse is one admission request
type AdmissionResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Source                string          `json:"source"`
	StudentID             *uuid.UUID      `json:"student_id,omitempty"`
	ChildName             string          `json:"child_name"`
	GuardianName          string          `json:"guardian_name,omitempty"`
	GuardianEmail         string          `json:"guardian_email,omitempty"`
	Status                string          `json:"status"`
	PaymentState          string          `json:"payment_state"`
	RegistrationFeeAmount decimal.Decimal `json:"registration_fee_amount"`
	PaymentDate           *string         `json:"payment_date,omitempty"`
	DecidedAt             *time.Time      `json:"decided_at,omitempty"`
	RejectionReason       string          `json:"rejection_reason,omitempty"`
}

// RegistrationPaymentResponse reports a registration payment change
type RegistrationPaymentResponse struct {
	Request *AdmissionResponse `json:"request"`
	Student *StudentResponse   `json:"student,omitempty"`
	Linked  int                `json:"linked"`
}

// NotificationResponse is one in-app notification
type NotificationResponse struct {
	ID        uuid.UUID      `json:"id"`
	EventType string         `json:"event_type"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toFeeResponse(f *fee.StudentFee) FeeResponse {
	return FeeResponse{
		ID:             f.ID,
		StudentID:      f.StudentID,
		FeeStructureID: f.FeeStructureID,
		Name:           f.Name,
		Description:    f.Description,
		Category:       string(f.CategoryCode),
		Amount:         f.Amount,
		FinalAmount:    f.FinalAmount,
		Discount:       f.Discount(),
		AmountPaid:     f.AmountPaid,
		Outstanding:    f.Outstanding(),
		Status:         string(f.Status),
		DueDate:        formatDate(f.DueDate),
		BillingMonth:   formatDate(f.BillingMonth),
		PaidDate:       formatDate(f.PaidDate),
		Version:        f.GetVersion(),
		UpdatedAt:      f.UpdatedAt,
	}
}

func toFeeResponses(fees []fee.StudentFee) []FeeResponse {
	out := make([]FeeResponse, len(fees))
	for i := range fees {
		out[i] = toFeeResponse(&fees[i])
	}
	return out
}

func toTotalsResponse(t fee.Totals) TotalsResponse {
	return TotalsResponse{Outstanding: t.Outstanding, Paid: t.Paid, Waived: t.Waived}
}

func toMutationResponse(r *appfee.MutationResult) MutationResponse {
	resp := MutationResponse{Ledger: toFeeResponses(r.Ledger)}
	if r.Fee != nil {
		f := toFeeResponse(r.Fee)
		resp.Fee = &f
	}
	return resp
}

func toAuditResponse(a *audit.CorrectionAudit) AuditResponse {
	return AuditResponse{
		ID:           a.ID(),
		StudentID:    a.StudentID(),
		FeeID:        a.FeeID(),
		Action:       string(a.Action()),
		Reason:       a.Reason(),
		Before:       a.Before(),
		After:        a.After(),
		ActorID:      a.ActorID(),
		ActorRole:    a.ActorRole(),
		SourceScreen: a.SourceScreen(),
		CreatedAt:    a.CreatedAt(),
	}
}

func toAuditResponses(items []*audit.CorrectionAudit) []AuditResponse {
	out := make([]AuditResponse, len(items))
	for i, a := range items {
		out[i] = toAuditResponse(a)
	}
	return out
}

func toStudentResponse(s *student.Student) *StudentResponse {
	if s == nil {
		return nil
	}
	return &StudentResponse{
		ID:                      s.ID,
		FullName:                s.FullName(),
		ClassID:                 s.ClassID,
		ClassName:               s.ClassName,
		Status:                  s.Status,
		RegistrationFeeAmount:   s.RegistrationFeeAmount,
		RegistrationFeePaid:     s.RegistrationFeePaid,
		RegistrationFeeVerified: s.RegistrationFeeVerified,
		RegistrationPaymentDate: formatDate(s.RegistrationPaymentDate),
		Version:                 s.GetVersion(),
	}
}

func toAdmissionResponse(r *admission.Request) *AdmissionResponse {
	if r == nil {
		return nil
	}
	return &AdmissionResponse{
		ID:                    r.ID,
		Source:                string(r.Source),
		StudentID:             r.StudentID,
		ChildName:             r.ChildName(),
		GuardianName:          r.GuardianName,
		GuardianEmail:         r.GuardianEmail,
		Status:                string(r.Status),
		PaymentState:          string(r.PaymentState()),
		RegistrationFeeAmount: r.RegistrationFeeAmount,
		PaymentDate:           formatDate(r.PaymentDate),
		DecidedAt:             r.DecidedAt,
		RejectionReason:       r.RejectionReason,
	}
}

func toNotificationResponses(items []*notification.InApp) []NotificationResponse {
	out := make([]NotificationResponse, len(items))
	for i, n := range items {
		out[i] = NotificationResponse{
			ID:        n.ID,
			EventType: n.EventType,
			Title:     n.Title,
			Body:      n.Body,
			Data:      n.Data,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		}
	}
	return out
}
