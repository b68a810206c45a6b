package fee

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// WaiveInput describes a full or partial waiver
type WaiveInput struct {
	Mode            fee.WaiveMode
	Amount          decimal.Decimal
	Reason          string
	ExpectedVersion *int
}

// AdjustInput replaces a fee's billed amount
type AdjustInput struct {
	NewAmount       decimal.Decimal
	Reason          string
	ExpectedVersion *int
}

// WaiveFee waives the whole outstanding balance or part of it
func (s *MutationService) WaiveFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, in WaiveInput) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "waive")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrgID, actor.OrgID.String(),
		telemetry.SpanAttrFeeID, feeID.String(),
		"waive_mode", string(in.Mode),
	)

	result, err := s.mutateFee(ctx, actor, feeID, feeMutation{
		action:          audit.ActionWaive,
		reason:          in.Reason,
		expectedVersion: in.ExpectedVersion,
		apply: func(f *fee.StudentFee, today time.Time) error {
			_, err := f.Waive(in.Mode, in.Amount, in.Reason, today)
			return err
		},
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// AdjustFee sets a new amount and clears any discount. Adjusting a
// registration fee also updates the student's registration fee amount in
// the same transaction.
func (s *MutationService) AdjustFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, in AdjustInput) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "adjust")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrgID, actor.OrgID.String(),
		telemetry.SpanAttrFeeID, feeID.String(),
		telemetry.SpanAttrAmount, in.NewAmount.String(),
	)

	result, err := s.mutateFee(ctx, actor, feeID, feeMutation{
		action:          audit.ActionAdjust,
		reason:          in.Reason,
		expectedVersion: in.ExpectedVersion,
		apply: func(f *fee.StudentFee, today time.Time) error {
			return f.Adjust(in.NewAmount, in.Reason, today)
		},
		linked: func(ctx context.Context, repos TransactionalRepositories, f *fee.StudentFee, _ time.Time) error {
			if !f.IsRegistrationFee() {
				return nil
			}
			return repos.StudentRepo().UpdateRegistrationFeeAmount(ctx, f.OrgID, f.StudentID, f.FinalAmount)
		},
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// UpdateDueDate moves a fee's due date and billing month
func (s *MutationService) UpdateDueDate(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, newDueDate time.Time, reason string) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "update_due_date")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrFeeID, feeID.String())

	result, err := s.mutateFee(ctx, actor, feeID, feeMutation{
		action: audit.ActionDueDate,
		reason: reason,
		apply: func(f *fee.StudentFee, today time.Time) error {
			return f.ChangeDueDate(newDueDate, today)
		},
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// MarkPaid settles the fee and records the payment and its ledger
// transaction under the fee's reference. Marking the same fee again after a
// reversal reuses the existing rows.
func (s *MutationService) MarkPaid(ctx context.Context, actor appaudit.Actor, sc student.Context, feeID uuid.UUID, reason string) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "mark_paid")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStudentID, sc.StudentID.String(),
		telemetry.SpanAttrFeeID, feeID.String(),
		telemetry.SpanAttrReference, fee.PaymentReference(feeID),
	)

	result, err := s.mutateFee(ctx, actor, feeID, feeMutation{
		action:    audit.ActionMarkPaid,
		reason:    reason,
		studentID: &sc.StudentID,
		apply: func(f *fee.StudentFee, today time.Time) error {
			return f.MarkPaid(today)
		},
		linked: func(ctx context.Context, repos TransactionalRepositories, f *fee.StudentFee, today time.Time) error {
			if err := repos.PaymentRepo().UpsertByReference(ctx, fee.NewFeePayment(f, actor.UserID, today)); err != nil {
				return err
			}
			return repos.TransactionRepo().UpsertByReference(ctx, fee.NewFeeTransaction(f, today))
		},
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// MarkUnpaid reverses a payment and voids the payment and transaction rows
// that carry the fee's reference. No rows are ever created here.
func (s *MutationService) MarkUnpaid(ctx context.Context, actor appaudit.Actor, sc student.Context, feeID uuid.UUID, reason string) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "mark_unpaid")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStudentID, sc.StudentID.String(),
		telemetry.SpanAttrFeeID, feeID.String(),
	)

	result, err := s.mutateFee(ctx, actor, feeID, feeMutation{
		action:    audit.ActionMarkUnpaid,
		reason:    reason,
		studentID: &sc.StudentID,
		apply: func(f *fee.StudentFee, today time.Time) error {
			return f.MarkUnpaid(today)
		},
		linked: func(ctx context.Context, repos TransactionalRepositories, f *fee.StudentFee, _ time.Time) error {
			ref := fee.PaymentReference(f.ID)
			at := s.now()
			if _, err := repos.PaymentRepo().VoidByReference(ctx, f.OrgID, ref, at); err != nil {
				return err
			}
			_, err := repos.TransactionRepo().VoidByReference(ctx, f.OrgID, ref, at)
			return err
		},
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// DeleteFee hard-deletes a fee. The audit row is written first; if it
// cannot be written the delete does not happen.
func (s *MutationService) DeleteFee(ctx context.Context, actor appaudit.Actor, feeID uuid.UUID, reason string) (*MutationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrgID, actor.OrgID.String(),
		telemetry.SpanAttrFeeID, feeID.String(),
	)

	if strings.TrimSpace(reason) == "" {
		return nil, fee.ErrMissingReason
	}

	result := &MutationResult{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		f, err := s.loadFee(ctx, repos, actor.OrgID, feeID, nil, nil)
		if err != nil {
			return err
		}
		in := audit.Input{
			OrgID:     actor.OrgID,
			StudentID: f.StudentID,
			FeeID:     &f.ID,
			Action:    audit.ActionDelete,
			Reason:    reason,
			Before:    f.Snapshot(),
			After:     map[string]any{"deleted": true},
			Actor:     actor.AuditActor(),
		}
		if err := s.writer.Write(ctx, repos.AuditRepo(), in); err != nil {
			if shared.IsKind(err, shared.KindAuditWrite) {
				s.writer.Failed(ctx, in, err, true)
			}
			return err
		}
		if err := repos.FeeRepo().Delete(ctx, actor.OrgID, f.ID); err != nil {
			return err
		}
		result.Fee = f
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordCorrection(ctx, string(audit.ActionDelete))
	s.reloadLedger(ctx, actor.OrgID, result.Fee.StudentID, result)
	return result, nil
}

// ApplyFamilyCredit moves up to amount of a family credit onto a fee. The
// applied amount is capped by the remaining credit and the fee's balance.
func (s *MutationService) ApplyFamilyCredit(ctx context.Context, actor appaudit.Actor, creditID, feeID uuid.UUID, amount decimal.Decimal, notes string) (*fee.ApplyCreditResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "apply_family_credit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFeeID, feeID.String(),
		"credit_id", creditID.String(),
		telemetry.SpanAttrAmount, amount.String(),
	)

	if !amount.IsPositive() {
		return nil, fee.ErrInvalidAmount
	}
	res, err := s.procedures.ApplyFamilyCredit(ctx, fee.ApplyCreditRequest{
		OrgID:        actor.OrgID,
		CreditID:     creditID,
		StudentFeeID: feeID,
		Amount:       amount,
		Notes:        notes,
		ActorID:      actor.UserID,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.AddEvent(span, "family_credit_applied", "applied", res.AppliedAmount.String())
	return res, nil
}
