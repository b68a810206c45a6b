package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
)

// StudentLedger is a student's fee list with its all-time totals
type StudentLedger struct {
	StudentID uuid.UUID        `json:"student_id"`
	Fees      []fee.StudentFee `json:"fees"`
	Totals    fee.Totals       `json:"totals"`
}

// Receivables is the organization's unpaid fees for one billing month
type Receivables struct {
	Month  time.Time        `json:"month"`
	Fees   []fee.StudentFee `json:"fees"`
	Totals fee.Totals       `json:"totals"`
}

// LedgerService reads ledgers and computes totals
type LedgerService struct {
	fees fee.StudentFeeRepository
	now  Clock
}

// NewLedgerService creates a LedgerService
func NewLedgerService(fees fee.StudentFeeRepository, now Clock) *LedgerService {
	if now == nil {
		now = time.Now
	}
	return &LedgerService{fees: fees, now: now}
}

// StudentLedger returns the student's fees and all-time totals
func (s *LedgerService) StudentLedger(ctx context.Context, sc student.Context) (*StudentLedger, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "student_ledger")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrStudentID, sc.StudentID.String())

	fees, err := s.fees.FindByStudent(ctx, sc.OrgID, sc.StudentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	today := s.today()
	for i := range fees {
		fees[i].Normalize(today)
	}
	return &StudentLedger{
		StudentID: sc.StudentID,
		Fees:      fees,
		Totals:    fee.ComputeTotals(fees, sc.EnrollmentDate, fee.AllTime(), today),
	}, nil
}

// OrganizationReceivables returns the unpaid fees billed in month, ordered
// for collection follow-up.
func (s *LedgerService) OrganizationReceivables(ctx context.Context, orgID uuid.UUID, month time.Time) (*Receivables, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "organization_receivables")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrgID, orgID.String())

	target := fee.MonthStart(month)
	fees, err := s.fees.FindUnpaidForMonth(ctx, orgID, target)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	today := s.today()
	for i := range fees {
		fees[i].Normalize(today)
	}
	return &Receivables{
		Month:  target,
		Fees:   fee.ReceivablesForMonth(fees, target),
		Totals: fee.ComputeTotals(fees, nil, fee.ReceivablesMonth(target), today),
	}, nil
}

func (s *LedgerService) today() time.Time {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
