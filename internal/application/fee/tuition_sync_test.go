package fee

import (
	"testing"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/schoolfees/backend/internal/application/audit"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestStudent(env *testEnv, classID *uuid.UUID) *student.Student {
	st := &student.Student{
		FirstName:             "Ada",
		LastName:              "Okafor",
		ClassID:               classID,
		ClassName:             "Nursery A",
		Status:                student.StatusActive,
		IsActive:              true,
		RegistrationFeeAmount: dec("100"),
	}
	st.ID = env.studentID
	st.OrgID = env.orgID
	st.Version = 3
	return st
}

func legacyStructure(amount string) fee.FeeStructure {
	return fee.FeeStructure{
		ID:        uuid.New(),
		Source:    fee.SourceLegacy,
		Name:      "Nursery B Tuition",
		Category:  fee.CategoryTuition,
		Frequency: fee.FrequencyMonthly,
		Amount:    dec(amount),
		IsActive:  true,
		CreatedAt: day(2025, 1, 1),
	}
}

// =============================================================================
// ChangeStudentClass
// =============================================================================

func TestMutationService_ChangeStudentClass(t *testing.T) {
	t.Run("same class and fee within a cent is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		classID := uuid.New()
		sc := env.studentContext()
		sc.ClassID = &classID
		sc.RegistrationFeeAmount = dec("100")

		result, err := env.svc.ChangeStudentClass(t.Context(), env.actor, sc, ChangeClassInput{
			NewClassID:         &classID,
			NewRegistrationFee: dec("100.004"),
			Reason:             "",
		})
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, NoChanges, result.Message())
		env.students.AssertNotCalled(t, "FindByIDForOrg", mock.Anything, mock.Anything, mock.Anything)
		env.students.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		env.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("class change writes one audit row and syncs tuition", func(t *testing.T) {
		env := newTestEnv(t)
		oldClass, newClass := uuid.New(), uuid.New()
		st := createTestStudent(env, &oldClass)
		sc := st.Context()

		pending := env.createTestFee(t, "500", day(2026, 3, 5))
		env.students.On("FindByIDForOrg", mock.Anything, env.orgID, env.studentID).Return(st, nil).Once()
		env.expectAudit(audit.ActionChangeClass, nil)
		env.students.On("SaveWithLock", mock.Anything, st).Return(nil).Once()
		env.expectReload(*pending)
		env.structures.On("FindActive", mock.Anything, env.orgID, fee.CategoryTuition, mock.Anything).
			Return([]fee.FeeStructure{legacyStructure("650")}, nil).Once()
		env.fees.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(f *fee.StudentFee) bool {
			return f.ID == pending.ID && f.FinalAmount.Equal(dec("650"))
		})).Return(nil).Once()

		result, err := env.svc.ChangeStudentClass(t.Context(), env.actor, sc, ChangeClassInput{
			NewClassID:         &newClass,
			NewClassName:       "Nursery B",
			NewRegistrationFee: dec("150"),
			Reason:             "Promoted",
		})
		require.NoError(t, err)
		assert.True(t, result.Changed)
		assert.True(t, result.ClassChanged)
		assert.True(t, result.FeeChanged)
		assert.Equal(t, 1, result.SyncedCount)
		assert.Equal(t, 4, st.Version)
		env.audits.AssertNumberOfCalls(t, "Append", 1)
		env.students.AssertExpectations(t)
	})

	t.Run("fee-only change skips tuition sync", func(t *testing.T) {
		env := newTestEnv(t)
		classID := uuid.New()
		st := createTestStudent(env, &classID)
		env.students.On("FindByIDForOrg", mock.Anything, env.orgID, env.studentID).Return(st, nil).Once()
		env.expectAudit(audit.ActionChangeClass, nil)
		env.students.On("SaveWithLock", mock.Anything, st).Return(nil).Once()
		env.expectReload()

		result, err := env.svc.ChangeStudentClass(t.Context(), env.actor, st.Context(), ChangeClassInput{
			NewClassID:         &classID,
			NewRegistrationFee: dec("120"),
			Reason:             "Fee review",
		})
		require.NoError(t, err)
		assert.False(t, result.ClassChanged)
		assert.True(t, result.FeeChanged)
		env.structures.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reason-only request with current values reports no changes", func(t *testing.T) {
		env := newTestEnv(t)
		classID := uuid.New()
		sc := createTestStudent(env, &classID).Context()

		result, err := env.svc.ChangeStudentClass(t.Context(), env.actor, sc, ChangeClassInput{
			NewClassID:         sc.ClassID,
			NewRegistrationFee: sc.RegistrationFeeAmount,
			Reason:             "Checking",
		})
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, NoChanges, result.Message())
		env.students.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		env.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("missing reason when something changes", func(t *testing.T) {
		env := newTestEnv(t)
		newClass := uuid.New()
		_, err := env.svc.ChangeStudentClass(t.Context(), env.actor, env.studentContext(), ChangeClassInput{NewClassID: &newClass})
		assert.ErrorIs(t, err, fee.ErrMissingReason)
	})
}

// =============================================================================
// SyncPendingTuitionFees
// =============================================================================

func TestMutationService_SyncPendingTuitionFees(t *testing.T) {
	t.Run("prefers age-band procedure when date of birth is known", func(t *testing.T) {
		env := newTestEnv(t)
		dob := day(2023, 1, 20)
		sc := env.studentContext()
		sc.DateOfBirth = &dob

		march := env.createTestFee(t, "500", day(2026, 3, 5))
		april := env.createTestFee(t, "500", day(2026, 4, 5))
		env.expectReload(*march, *april)
		env.procedures.On("AssignCorrectFeeForStudent", mock.Anything, env.orgID, env.studentID, day(2026, 3, 1)).
			Return(&fee.AssignFeeResult{Action: fee.AssignUpdated, Amount: dec("550")}, nil).Once()
		env.procedures.On("AssignCorrectFeeForStudent", mock.Anything, env.orgID, env.studentID, day(2026, 4, 1)).
			Return(&fee.AssignFeeResult{Action: fee.AssignUpdated, Amount: dec("550")}, nil).Once()
		env.expectAudit(audit.ActionTuitionSync, nil)

		result, err := env.svc.SyncPendingTuitionFees(t.Context(), env.actor, sc, "")
		require.NoError(t, err)
		assert.Equal(t, 2, result.UpdatedCount)
		env.structures.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		env.procedures.AssertExpectations(t)
	})

	t.Run("rows already at the band price do not fall back", func(t *testing.T) {
		env := newTestEnv(t)
		dob := day(2023, 1, 20)
		sc := env.studentContext()
		sc.DateOfBirth = &dob

		march := env.createTestFee(t, "500", day(2026, 3, 5))
		env.expectReload(*march)
		env.procedures.On("AssignCorrectFeeForStudent", mock.Anything, env.orgID, env.studentID, day(2026, 3, 1)).
			Return(&fee.AssignFeeResult{Action: fee.AssignNone, Amount: dec("500")}, nil).Once()

		result, err := env.svc.SyncPendingTuitionFees(t.Context(), env.actor, sc, "Grade R")
		require.NoError(t, err)
		assert.Zero(t, result.UpdatedCount)
		env.structures.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		env.fees.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		env.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("no band for any month falls back to structure resolution", func(t *testing.T) {
		env := newTestEnv(t)
		dob := day(2023, 1, 20)
		sc := env.studentContext()
		sc.DateOfBirth = &dob

		march := env.createTestFee(t, "500", day(2026, 3, 5))
		env.expectReload(*march)
		env.procedures.On("AssignCorrectFeeForStudent", mock.Anything, env.orgID, env.studentID, day(2026, 3, 1)).
			Return(&fee.AssignFeeResult{Action: fee.AssignNoBand}, nil).Once()
		env.structures.On("FindActive", mock.Anything, env.orgID, fee.CategoryTuition, mock.Anything).
			Return([]fee.FeeStructure{legacyStructure("650")}, nil).Once()
		env.fees.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(f *fee.StudentFee) bool {
			return f.ID == march.ID && f.FinalAmount.Equal(dec("650"))
		})).Return(nil).Once()
		env.expectAudit(audit.ActionTuitionSync, nil)

		result, err := env.svc.SyncPendingTuitionFees(t.Context(), env.actor, sc, "Nursery B")
		require.NoError(t, err)
		assert.Equal(t, 1, result.UpdatedCount)
	})

	t.Run("falls back to structure resolution and never touches paid or discounted rows", func(t *testing.T) {
		env := newTestEnv(t)
		sc := env.studentContext()

		eligible := env.createTestFee(t, "500", day(2026, 3, 5))
		paid := env.createTestFee(t, "500", day(2026, 2, 5))
		require.NoError(t, paid.MarkPaid(day(2026, 2, 3)))
		discounted := env.createTestFee(t, "500", day(2026, 4, 5))
		_, err := discounted.Waive(fee.WaivePartial, dec("50"), "sibling", day(2026, 3, 1))
		require.NoError(t, err)

		env.expectReload(*eligible, *paid, *discounted)
		env.structures.On("FindActive", mock.Anything, env.orgID, fee.CategoryTuition, mock.Anything).
			Return([]fee.FeeStructure{legacyStructure("650")}, nil).Once()
		env.fees.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(f *fee.StudentFee) bool {
			return f.ID == eligible.ID
		})).Return(nil).Once()
		env.expectAudit(audit.ActionTuitionSync, nil)

		result, err := env.svc.SyncPendingTuitionFees(t.Context(), env.actor, sc, "Nursery B")
		require.NoError(t, err)
		assert.Equal(t, 1, result.UpdatedCount)
		env.fees.AssertNumberOfCalls(t, "SaveWithLock", 1)
	})

	t.Run("canonical structure is bridged before linking", func(t *testing.T) {
		env := newTestEnv(t)
		sc := env.studentContext()
		eligible := env.createTestFee(t, "500", day(2026, 3, 5))

		canonical := legacyStructure("600")
		canonical.Source = fee.SourceCanonical
		bridged := canonical
		legacyID := uuid.New()
		bridged.LegacyID = &legacyID

		env.expectReload(*eligible)
		env.structures.On("FindActive", mock.Anything, env.orgID, fee.CategoryTuition, mock.Anything).
			Return([]fee.FeeStructure{canonical}, nil).Once()
		env.structures.On("EnsureLegacyBridge", mock.Anything, canonical, *env.actor.UserID).Return(bridged, nil).Once()
		env.fees.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(f *fee.StudentFee) bool {
			return f.FeeStructureID != nil && *f.FeeStructureID == legacyID
		})).Return(nil).Once()
		env.expectAudit(audit.ActionTuitionSync, nil)

		result, err := env.svc.SyncPendingTuitionFees(t.Context(), env.actor, sc, "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.UpdatedCount)
	})

	t.Run("nothing eligible writes no audit", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectReload()

		result, err := env.svc.SyncPendingTuitionFees(t.Context(), env.actor, env.studentContext(), "")
		require.NoError(t, err)
		assert.Zero(t, result.UpdatedCount)
		env.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

// =============================================================================
// Bootstrap / recompute
// =============================================================================

func TestMutationService_BootstrapFeesIfMissing(t *testing.T) {
	t.Run("inactive student is skipped regardless of structures", func(t *testing.T) {
		env := newTestEnv(t)
		sc := env.studentContext()
		sc.Status = "withdrawn"

		result, err := env.svc.BootstrapFeesIfMissing(t.Context(), env.actor, sc)
		require.NoError(t, err)
		assert.Equal(t, BootstrapSkippedInactive, result.Status)
		env.fees.AssertNotCalled(t, "CountByStudent", mock.Anything, mock.Anything, mock.Anything)
		env.fees.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("existing fees are ready", func(t *testing.T) {
		env := newTestEnv(t)
		env.fees.On("CountByStudent", mock.Anything, env.orgID, env.studentID).Return(int64(4), nil).Once()

		result, err := env.svc.BootstrapFeesIfMissing(t.Context(), env.actor, env.studentContext())
		require.NoError(t, err)
		assert.Equal(t, BootstrapReady, result.Status)
		assert.Zero(t, result.Created)
	})

	t.Run("no structure is missing", func(t *testing.T) {
		env := newTestEnv(t)
		env.fees.On("CountByStudent", mock.Anything, env.orgID, env.studentID).Return(int64(0), nil).Once()
		env.structures.On("FindActive", mock.Anything, env.orgID, fee.CategoryTuition, mock.Anything).
			Return([]fee.FeeStructure{}, nil).Once()

		result, err := env.svc.BootstrapFeesIfMissing(t.Context(), env.actor, env.studentContext())
		require.NoError(t, err)
		assert.Equal(t, BootstrapMissing, result.Status)
	})

	t.Run("canonical-only without actor is school_only", func(t *testing.T) {
		env := newTestEnv(t)
		canonical := legacyStructure("600")
		canonical.Source = fee.SourceCanonical
		env.fees.On("CountByStudent", mock.Anything, env.orgID, env.studentID).Return(int64(0), nil).Once()
		env.structures.On("FindActive", mock.Anything, env.orgID, fee.CategoryTuition, mock.Anything).
			Return([]fee.FeeStructure{canonical}, nil).Once()

		anonymous := appaudit.Actor{OrgID: env.orgID}
		result, err := env.svc.BootstrapFeesIfMissing(t.Context(), anonymous, env.studentContext())
		require.NoError(t, err)
		assert.Equal(t, BootstrapSchoolOnly, result.Status)
		env.fees.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		env.structures.AssertNotCalled(t, "EnsureLegacyBridge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("creates enrollment month and the next", func(t *testing.T) {
		env := newTestEnv(t)
		structure := legacyStructure("600")
		env.fees.On("CountByStudent", mock.Anything, env.orgID, env.studentID).Return(int64(0), nil).Once()
		env.structures.On("FindActive", mock.Anything, env.orgID, fee.CategoryTuition, mock.Anything).
			Return([]fee.FeeStructure{structure}, nil).Once()

		var created []*fee.StudentFee
		env.fees.On("Create", mock.Anything, mock.AnythingOfType("*fee.StudentFee")).
			Run(func(args mock.Arguments) { created = append(created, args.Get(1).(*fee.StudentFee)) }).
			Return(nil).Twice()

		result, err := env.svc.BootstrapFeesIfMissing(t.Context(), env.actor, env.studentContext())
		require.NoError(t, err)
		assert.Equal(t, BootstrapReady, result.Status)
		assert.Equal(t, 2, result.Created)

		require.Len(t, created, 2)
		wantDue := []time.Time{day(2026, 3, 5), day(2026, 4, 5)}
		for i, f := range created {
			assert.Equal(t, fee.StatusPending, f.Status)
			assert.Equal(t, wantDue[i], *f.DueDate)
			assert.True(t, f.Outstanding().Equal(dec("600")))
			require.NotNil(t, f.FeeStructureID)
			assert.Equal(t, structure.ID, *f.FeeStructureID)
		}
	})
}

func TestMutationService_RecomputeLearnerBalances(t *testing.T) {
	t.Run("consistent ledger writes no audit", func(t *testing.T) {
		env := newTestEnv(t)
		env.procedures.On("RecalculateStudentFeeBalances", mock.Anything, env.orgID, env.studentID, env.actor.UserID, defaultRecomputeReason).
			Return(0, nil).Once()
		env.expectReload()

		result, err := env.svc.RecomputeLearnerBalances(t.Context(), env.actor, env.studentContext(), "")
		require.NoError(t, err)
		assert.Zero(t, result.Touched)
		env.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("repaired rows are audited once", func(t *testing.T) {
		env := newTestEnv(t)
		env.procedures.On("RecalculateStudentFeeBalances", mock.Anything, env.orgID, env.studentID, env.actor.UserID, "Drift after import").
			Return(3, nil).Once()
		env.expectAudit(audit.ActionRecomputeBalances, nil)
		env.expectReload()

		result, err := env.svc.RecomputeLearnerBalances(t.Context(), env.actor, env.studentContext(), "Drift after import")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Touched)
		env.audits.AssertNumberOfCalls(t, "Append", 1)
	})
}
