package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/logger"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerProcedures implements fee.LedgerProcedures. Each procedure runs
// in one transaction and locks the rows it rewrites.
type GormLedgerProcedures struct {
	db     *gorm.DB
	dueDay int
	now    func() time.Time
}

// LedgerProceduresOption configures GormLedgerProcedures
type LedgerProceduresOption func(*GormLedgerProcedures)

// WithProcedureDueDay sets the day of month used for fee rows the procedures create
func WithProcedureDueDay(day int) LedgerProceduresOption {
	return func(p *GormLedgerProcedures) {
		if day >= 1 && day <= 28 {
			p.dueDay = day
		}
	}
}

// WithProcedureClock overrides the clock used to classify statuses
func WithProcedureClock(now func() time.Time) LedgerProceduresOption {
	return func(p *GormLedgerProcedures) { p.now = now }
}

// NewGormLedgerProcedures creates a new GormLedgerProcedures
func NewGormLedgerProcedures(db *gorm.DB, opts ...LedgerProceduresOption) *GormLedgerProcedures {
	p := &GormLedgerProcedures{db: db, dueDay: 1, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ApplyFamilyCredit moves credit onto a fee. The credit and the fee are
// locked, updated and saved together or not at all.
func (p *GormLedgerProcedures) ApplyFamilyCredit(ctx context.Context, req fee.ApplyCreditRequest) (*fee.ApplyCreditResult, error) {
	today := p.today()
	var result *fee.ApplyCreditResult

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creditModel models.FamilyCreditModel
		q := forUpdate(tx).Where("tenant_id = ? AND id = ?", req.OrgID, req.CreditID)
		if err := firstOrNotFound(q, &creditModel, fee.ErrCreditNotFound); err != nil {
			return err
		}
		var feeModel models.StudentFeeModel
		q = forUpdate(tx).Where("tenant_id = ? AND id = ?", req.OrgID, req.StudentFeeID)
		if err := firstOrNotFound(q, &feeModel, fee.ErrFeeNotFound); err != nil {
			return err
		}

		credit := creditModel.ToDomain()
		f := feeModel.ToDomain()
		applied, err := credit.Apply(f, req.Amount, strings.TrimSpace(req.Notes), req.ActorID, today)
		if err != nil {
			return err
		}
		if err := NewGormStudentFeeRepository(tx).SaveWithLock(ctx, f); err != nil {
			return err
		}
		if err := NewGormFamilyCreditRepository(tx).SaveWithLock(ctx, credit); err != nil {
			return err
		}

		result = &fee.ApplyCreditResult{
			AppliedAmount:   applied,
			CreditRemaining: credit.RemainingAmount,
			CreditStatus:    credit.Status,
			FeePaid:         f.AmountPaid,
			FeeOutstanding:  f.Outstanding(),
			FeeStatus:       f.Status,
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return result, nil
}

// AssignCorrectFeeForStudent prices the student's tuition row for
// billingMonth from the structure whose age band covers the student that
// month. It creates the row if the month has none and re-prices it if it is
// still untouched. Paid or discounted rows are never changed. The action is
// AssignNoBand when no linkable structure applies.
func (p *GormLedgerProcedures) AssignCorrectFeeForStudent(ctx context.Context, orgID, studentID uuid.UUID, billingMonth time.Time) (*fee.AssignFeeResult, error) {
	month := fee.MonthStart(billingMonth)
	today := p.today()
	result := &fee.AssignFeeResult{Action: fee.AssignNoBand}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var studentModel models.StudentModel
		q := tx.Where("tenant_id = ? AND id = ?", orgID, studentID)
		if err := firstOrNotFound(q, &studentModel, student.ErrStudentNotFound); err != nil {
			return err
		}
		st := studentModel.ToDomain()
		if st.DateOfBirth == nil || !st.IsBillable() {
			return nil
		}

		candidates, err := NewDualTableStructureRepository(tx).FindActive(ctx, orgID, fee.CategoryTuition, month)
		if err != nil {
			return err
		}
		structure := fee.SelectByAgeBand(candidates, *st.DateOfBirth, month)
		if structure == nil {
			return nil
		}
		// A canonical structure without a legacy twin cannot be linked, and
		// this procedure has no actor to attribute the bridge row to.
		linkID, ok := structure.LinkID()
		if !ok {
			return nil
		}

		result.Action = fee.AssignNone

		existing, err := p.tuitionRowForMonth(tx, orgID, studentID, month)
		if err != nil {
			return err
		}
		fees := NewGormStudentFeeRepository(tx)

		if existing == nil {
			due := time.Date(month.Year(), month.Month(), p.dueDay, 0, 0, 0, 0, month.Location())
			f, err := fee.NewStudentFee(orgID, studentID, fee.CategoryTuition, monthlyTuitionName(*structure, month), structure.Amount, due)
			if err != nil {
				return err
			}
			f.FeeStructureID = &linkID
			f.FeeType = string(structure.Frequency)
			f.Description = structure.Description
			f.Status = fee.ClassifyStatus(f.DueDate, f.Outstanding(), f.AmountPaid, today)
			if err := fees.Create(ctx, f); err != nil {
				return err
			}
			result.Action, result.Amount = fee.AssignCreated, structure.Amount
			return nil
		}

		result.Amount = existing.FinalAmount
		if !existing.IsTuitionSyncEligible() {
			return nil
		}
		if existing.FeeStructureID != nil && *existing.FeeStructureID == linkID && existing.FinalAmount.Equal(structure.Amount) {
			return nil
		}
		if err := existing.Reprice(linkID, structure.Amount, today); err != nil {
			return err
		}
		if err := fees.SaveWithLock(ctx, existing); err != nil {
			return err
		}
		result.Action, result.Amount = fee.AssignUpdated, structure.Amount
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return result, nil
}

// tuitionRowForMonth returns the student's tuition fee billed in month, or nil
func (p *GormLedgerProcedures) tuitionRowForMonth(tx *gorm.DB, orgID, studentID uuid.UUID, month time.Time) (*fee.StudentFee, error) {
	end := month.AddDate(0, 1, 0)
	var rows []models.StudentFeeModel
	err := forUpdate(tx).
		Where("tenant_id = ? AND student_id = ? AND category_code = ?", orgID, studentID, fee.CategoryTuition).
		Where(tx.Where("billing_month >= ? AND billing_month < ?", month, end).
			Or("billing_month IS NULL AND due_date >= ? AND due_date < ?", month, end)).
		Order("created_at ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0].ToDomain(), nil
}

// RecalculateStudentFeeBalances recomputes outstanding amounts and statuses
// for every fee of the student and saves the rows that drifted.
func (p *GormLedgerProcedures) RecalculateStudentFeeBalances(ctx context.Context, orgID, studentID uuid.UUID, actorID *uuid.UUID, reason string) (int, error) {
	today := p.today()
	touched := 0

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.StudentFeeModel
		err := forUpdate(tx).
			Where("tenant_id = ? AND student_id = ?", orgID, studentID).
			Order("created_at ASC").
			Find(&rows).Error
		if err != nil {
			return err
		}
		fees := NewGormStudentFeeRepository(tx)
		for i := range rows {
			f := rows[i].ToDomain()
			if !f.Recompute(today) {
				continue
			}
			if err := fees.SaveWithLock(ctx, f); err != nil {
				return err
			}
			touched++
		}
		return nil
	})
	if err != nil {
		return 0, translateError(err)
	}

	if touched > 0 {
		fields := []zap.Field{
			zap.String("student_id", studentID.String()),
			zap.Int("touched", touched),
			zap.String("reason", reason),
		}
		if actorID != nil {
			fields = append(fields, zap.String("actor_id", actorID.String()))
		}
		logger.L(ctx).Info("recalculated fee balances", fields...)
	}
	return touched, nil
}

func (p *GormLedgerProcedures) today() time.Time {
	now := p.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

func monthlyTuitionName(s fee.FeeStructure, month time.Time) string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = "Tuition"
	}
	return name + " - " + month.Format("January 2006")
}

var _ fee.LedgerProcedures = (*GormLedgerProcedures)(nil)
