package fee

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const tuitionSyncReason = "Pending tuition re-priced to the current fee structure"

// ChangeClassInput moves a student to another class
type ChangeClassInput struct {
	NewClassID         *uuid.UUID
	NewClassName       string
	NewRegistrationFee decimal.Decimal
	Reason             string
}

// ClassChangeResult reports what a class change did
type ClassChangeResult struct {
	Changed      bool
	ClassChanged bool
	FeeChanged   bool
	SyncedCount  int
	Student      *student.Student
	Warnings     []Warning
	Ledger       []fee.StudentFee
}

// NoChanges is the message reported when a class change is a no-op
const NoChanges = "no changes"

// Message summarizes the result for the operator
func (r *ClassChangeResult) Message() string {
	if !r.Changed {
		return NoChanges
	}
	return "class updated"
}

// SyncResult reports a tuition re-sync
type SyncResult struct {
	UpdatedCount int
	Warnings     []Warning
	Ledger       []fee.StudentFee
}

// ChangeStudentClass updates the student's class and registration fee and
// re-prices pending tuition. One change_class audit row covers both fields.
// Nothing is read or written when neither value actually changes.
func (s *MutationService) ChangeStudentClass(ctx context.Context, actor appaudit.Actor, sc student.Context, in ChangeClassInput) (*ClassChangeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "change_class")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrStudentID, sc.StudentID.String())

	current := student.Student{ClassID: sc.ClassID, RegistrationFeeAmount: sc.RegistrationFeeAmount}
	if classChanged, feeChanged := current.ChangeClass(in.NewClassID, in.NewClassName, in.NewRegistrationFee); !classChanged && !feeChanged {
		telemetry.AddEvent(span, "class_change_noop")
		return &ClassChangeResult{}, nil
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, fee.ErrMissingReason
	}

	result := &ClassChangeResult{}
	mr := &MutationResult{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		st, err := repos.StudentRepo().FindByIDForOrg(ctx, actor.OrgID, sc.StudentID)
		if err != nil {
			return err
		}
		if st == nil {
			return student.ErrStudentNotFound
		}
		before := classSnapshot(st)
		result.ClassChanged, result.FeeChanged = st.ChangeClass(in.NewClassID, in.NewClassName, in.NewRegistrationFee)
		if !result.ClassChanged && !result.FeeChanged {
			return nil
		}
		result.Changed = true

		if err := s.appendAudit(ctx, repos, audit.Input{
			OrgID:     actor.OrgID,
			StudentID: st.ID,
			Action:    audit.ActionChangeClass,
			Reason:    in.Reason,
			Before:    before,
			After:     classSnapshot(st),
			Actor:     actor.AuditActor(),
		}, mr); err != nil {
			return err
		}
		if err := repos.StudentRepo().SaveWithLock(ctx, st); err != nil {
			return err
		}
		result.Student = st
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !result.Changed {
		return result, nil
	}
	s.metrics.RecordCorrection(ctx, string(audit.ActionChangeClass))

	if result.ClassChanged {
		updated := result.Student.Context()
		count, err := s.syncTuition(ctx, actor, updated, in.NewClassName)
		if err != nil {
			s.logger.Warn("tuition sync after class change failed",
				zap.String("student_id", sc.StudentID.String()),
				zap.Error(err),
			)
			mr.warn(WarningTuitionSyncFailed, "The class was changed but pending tuition could not be re-priced.")
		}
		result.SyncedCount = count
	}

	s.reloadLedger(ctx, actor.OrgID, sc.StudentID, mr)
	result.Warnings = mr.Warnings
	result.Ledger = mr.Ledger
	return result, nil
}

// SyncPendingTuitionFees re-prices the student's unpaid, undiscounted
// tuition rows. A sync that changes anything is audited as tuition_sync.
func (s *MutationService) SyncPendingTuitionFees(ctx context.Context, actor appaudit.Actor, sc student.Context, classNameOverride string) (*SyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "sync_tuition")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrStudentID, sc.StudentID.String())

	count, err := s.syncTuition(ctx, actor, sc, classNameOverride)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "updated_count", count)

	mr := &MutationResult{}
	if count > 0 {
		s.auditStandalone(ctx, audit.Input{
			OrgID:     actor.OrgID,
			StudentID: sc.StudentID,
			Action:    audit.ActionTuitionSync,
			Reason:    tuitionSyncReason,
			Before:    map[string]any{"class_name": sc.ClassName},
			After:     map[string]any{"class_name": firstNonEmpty(classNameOverride, sc.ClassName), "updated_count": count},
			Actor:     actor.AuditActor(),
		}, mr)
		s.metrics.RecordCorrection(ctx, string(audit.ActionTuitionSync))
	}
	s.reloadLedger(ctx, actor.OrgID, sc.StudentID, mr)
	return &SyncResult{UpdatedCount: count, Warnings: mr.Warnings, Ledger: mr.Ledger}, nil
}

// syncTuition prefers the age-band procedure when the date of birth is
// known. Client-side structure resolution runs only when no age band
// applied to any billing month; rows already at the band price count as
// handled.
func (s *MutationService) syncTuition(ctx context.Context, actor appaudit.Actor, sc student.Context, classNameOverride string) (int, error) {
	fees, err := s.fees.FindByStudent(ctx, actor.OrgID, sc.StudentID)
	if err != nil {
		return 0, err
	}
	eligible := make([]fee.StudentFee, 0, len(fees))
	for _, f := range fees {
		if f.IsTuitionSyncEligible() {
			eligible = append(eligible, f)
		}
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	if sc.DateOfBirth != nil && s.procedures != nil {
		if n, banded := s.assignByAgeBand(ctx, actor.OrgID, sc.StudentID, eligible); banded {
			return n, nil
		}
	}
	return s.repriceFromStructure(ctx, actor, sc, firstNonEmpty(classNameOverride, sc.ClassName), eligible)
}

// assignByAgeBand reports how many months changed and whether any month
// had a band at all.
func (s *MutationService) assignByAgeBand(ctx context.Context, orgID, studentID uuid.UUID, eligible []fee.StudentFee) (updated int, banded bool) {
	for _, month := range distinctBillingMonths(eligible) {
		res, err := s.procedures.AssignCorrectFeeForStudent(ctx, orgID, studentID, month)
		if err != nil {
			s.logger.Warn("age-band fee assignment failed",
				zap.String("student_id", studentID.String()),
				zap.Time("billing_month", month),
				zap.Error(err),
			)
			continue
		}
		if res == nil || res.Action == fee.AssignNoBand {
			continue
		}
		banded = true
		if res.Action != fee.AssignNone {
			updated++
		}
	}
	return updated, banded
}

func (s *MutationService) repriceFromStructure(ctx context.Context, actor appaudit.Actor, sc student.Context, hint string, eligible []fee.StudentFee) (int, error) {
	today := s.today()
	structure := s.resolver.ResolveStructure(ctx, actor.OrgID, fee.CategoryTuition, sc, hint, today)
	if structure == nil {
		return 0, nil
	}
	if structure.NeedsLegacyBridge() && actor.UserID == nil {
		s.logger.Info("skipping tuition sync: canonical structure needs an attributed bridge",
			zap.String("structure_id", structure.ID.String()))
		return 0, nil
	}

	updated := 0
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		bridged := *structure
		if structure.NeedsLegacyBridge() {
			var err error
			if bridged, err = repos.StructureRepo().EnsureLegacyBridge(ctx, *structure, *actor.UserID); err != nil {
				return err
			}
		}
		linkID, ok := bridged.LinkID()
		if !ok {
			return nil
		}
		for i := range eligible {
			f := &eligible[i]
			if f.FeeStructureID != nil && *f.FeeStructureID == linkID && f.FinalAmount.Equal(bridged.Amount) {
				continue
			}
			if err := f.Reprice(linkID, bridged.Amount, today); err != nil {
				return err
			}
			if err := repos.FeeRepo().SaveWithLock(ctx, f); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// auditStandalone writes an audit row for work that is already committed
func (s *MutationService) auditStandalone(ctx context.Context, in audit.Input, mr *MutationResult) {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return s.appendAudit(ctx, repos, in, mr)
	})
	if err != nil {
		s.writer.Failed(ctx, in, err, false)
		mr.warn(WarningAuditLogFailed, "The change was saved but the correction audit log could not be written. Retry logging.")
	}
}

func distinctBillingMonths(fees []fee.StudentFee) []time.Time {
	seen := make(map[string]bool)
	months := make([]time.Time, 0, len(fees))
	for i := range fees {
		m := fees[i].DerivedBillingMonth()
		if m == nil {
			continue
		}
		key := m.Format("2006-01")
		if seen[key] {
			continue
		}
		seen[key] = true
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

func classSnapshot(st *student.Student) map[string]any {
	snap := map[string]any{
		"class_name":              st.ClassName,
		"registration_fee_amount": st.RegistrationFeeAmount.StringFixed(2),
	}
	if st.ClassID != nil {
		snap["class_id"] = st.ClassID.String()
	}
	return snap
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
