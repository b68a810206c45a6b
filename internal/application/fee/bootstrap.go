package fee

import (
	"context"
	"strings"
	"time"

	appaudit "github.com/schoolfees/backend/internal/application/audit"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BootstrapStatus is the outcome of BootstrapFeesIfMissing
type BootstrapStatus string

const (
	BootstrapReady           BootstrapStatus = "ready"
	BootstrapMissing         BootstrapStatus = "missing"
	BootstrapSchoolOnly      BootstrapStatus = "school_only"
	BootstrapSkippedInactive BootstrapStatus = "skipped_inactive"
)

// BootstrapResult reports the status and how many fee rows were created
type BootstrapResult struct {
	Status  BootstrapStatus `json:"status"`
	Created int             `json:"created"`
}

// RecomputeResult reports a balance recompute
type RecomputeResult struct {
	Touched  int
	Warnings []Warning
	Ledger   []fee.StudentFee
}

const defaultRecomputeReason = "Balances recomputed from fee amounts and payments"

// BootstrapFeesIfMissing creates the first two monthly tuition rows for a
// newly enrolled student. Inactive students are never billed, and a student
// who already has fees is left alone.
func (s *MutationService) BootstrapFeesIfMissing(ctx context.Context, actor appaudit.Actor, sc student.Context) (*BootstrapResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "bootstrap")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrStudentID, sc.StudentID.String())

	if !sc.IsBillable() {
		return &BootstrapResult{Status: BootstrapSkippedInactive}, nil
	}

	count, err := s.fees.CountByStudent(ctx, sc.OrgID, sc.StudentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if count > 0 {
		return &BootstrapResult{Status: BootstrapReady}, nil
	}

	today := s.today()
	structure := s.resolver.ResolveStructure(ctx, sc.OrgID, fee.CategoryTuition, sc, sc.ClassName, today)
	if structure == nil {
		return &BootstrapResult{Status: BootstrapMissing}, nil
	}
	if structure.NeedsLegacyBridge() && actor.UserID == nil {
		return &BootstrapResult{Status: BootstrapSchoolOnly}, nil
	}

	first := fee.MonthStart(today)
	if sc.EnrollmentDate != nil {
		first = fee.MonthStart(*sc.EnrollmentDate)
	}
	months := []time.Time{first, first.AddDate(0, 1, 0)}

	created := 0
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		bridged := *structure
		if structure.NeedsLegacyBridge() {
			var err error
			if bridged, err = repos.StructureRepo().EnsureLegacyBridge(ctx, *structure, *actor.UserID); err != nil {
				return err
			}
		}
		linkID, _ := bridged.LinkID()

		for _, month := range months {
			due := time.Date(month.Year(), month.Month(), s.dueDay, 0, 0, 0, 0, month.Location())
			f, err := fee.NewStudentFee(sc.OrgID, sc.StudentID, fee.CategoryTuition, tuitionName(bridged, month), bridged.Amount, due)
			if err != nil {
				return err
			}
			f.FeeStructureID = &linkID
			f.FeeType = string(bridged.Frequency)
			f.Description = bridged.Description
			if actor.UserID != nil {
				f.SetCreatedBy(*actor.UserID)
			}
			if err := repos.FeeRepo().Create(ctx, f); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("bootstrapped tuition fees",
		zap.String("student_id", sc.StudentID.String()),
		zap.String("structure_id", structure.ID.String()),
		zap.Int("created", created),
	)
	return &BootstrapResult{Status: BootstrapReady, Created: created}, nil
}

// RecomputeLearnerBalances repairs drifted outstanding amounts and statuses.
// Running it on a consistent ledger touches nothing and writes no audit row.
func (s *MutationService) RecomputeLearnerBalances(ctx context.Context, actor appaudit.Actor, sc student.Context, reason string) (*RecomputeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_mutation", "recompute_balances")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrStudentID, sc.StudentID.String())

	if strings.TrimSpace(reason) == "" {
		reason = defaultRecomputeReason
	}
	touched, err := s.procedures.RecalculateStudentFeeBalances(ctx, actor.OrgID, sc.StudentID, actor.UserID, reason)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "touched", touched)

	mr := &MutationResult{}
	if touched > 0 {
		s.auditStandalone(ctx, audit.Input{
			OrgID:     actor.OrgID,
			StudentID: sc.StudentID,
			Action:    audit.ActionRecomputeBalances,
			Reason:    reason,
			After:     map[string]any{"rows_updated": touched},
			Actor:     actor.AuditActor(),
		}, mr)
		s.metrics.RecordCorrection(ctx, string(audit.ActionRecomputeBalances))
	}
	s.reloadLedger(ctx, actor.OrgID, sc.StudentID, mr)
	return &RecomputeResult{Touched: touched, Warnings: mr.Warnings, Ledger: mr.Ledger}, nil
}

func tuitionName(s fee.FeeStructure, month time.Time) string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = "Tuition"
	}
	return name + " - " + month.Format("January 2006")
}
