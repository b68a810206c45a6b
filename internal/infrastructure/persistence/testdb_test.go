package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newLedgerTestDB opens an in-memory SQLite database with every ledger table.
// The pool is pinned to one connection so the in-memory schema is shared.
func newLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file::memory:"), "silent", 0, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedStudent(t *testing.T, db *gorm.DB, orgID uuid.UUID, first, last string, dob *time.Time) *student.Student {
	t.Helper()
	s := &student.Student{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		FirstName:        first,
		LastName:         last,
		DateOfBirth:      dob,
		Status:           student.StatusActive,
		IsActive:         true,
	}
	require.NoError(t, db.Create(models.StudentModelFromDomain(s)).Error)
	return s
}

func seedFee(t *testing.T, db *gorm.DB, orgID, studentID uuid.UUID, amount string, due time.Time) *fee.StudentFee {
	t.Helper()
	f, err := fee.NewStudentFee(orgID, studentID, fee.CategoryTuition, "Tuition - "+due.Format("January 2006"), decimal.RequireFromString(amount), due)
	require.NoError(t, err)
	require.NoError(t, db.Create(models.StudentFeeModelFromDomain(f)).Error)
	return f
}

func seedCanonicalStructure(t *testing.T, db *gorm.DB, orgID uuid.UUID, name string, cents int64, minAge, maxAge int) *models.SchoolFeeStructureModel {
	t.Helper()
	now := time.Now()
	m := &models.SchoolFeeStructureModel{
		BaseModel:    models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:     orgID,
		Name:         name,
		Category:     fee.CategoryTuition,
		Frequency:    fee.FrequencyMonthly,
		AmountCents:  cents,
		MinAgeMonths: &minAge,
		MaxAgeMonths: &maxAge,
		IsActive:     true,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func seedLegacyStructure(t *testing.T, db *gorm.DB, orgID uuid.UUID, name, amount string, minAge, maxAge int) *models.FeeStructureModel {
	t.Helper()
	now := time.Now()
	m := &models.FeeStructureModel{
		BaseModel:    models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:     orgID,
		Name:         name,
		Category:     fee.CategoryTuition,
		Frequency:    fee.FrequencyMonthly,
		Amount:       decimal.RequireFromString(amount),
		MinAgeMonths: &minAge,
		MaxAgeMonths: &maxAge,
		IsActive:     true,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
