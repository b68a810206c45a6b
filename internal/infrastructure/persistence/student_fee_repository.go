package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStudentFeeRepository implements fee.StudentFeeRepository using GORM
type GormStudentFeeRepository struct {
	db *gorm.DB
}

// NewGormStudentFeeRepository creates a new GormStudentFeeRepository
func NewGormStudentFeeRepository(db *gorm.DB) *GormStudentFeeRepository {
	return &GormStudentFeeRepository{db: db}
}

// FindByIDForOrg finds a fee by ID within a school
func (r *GormStudentFeeRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*fee.StudentFee, error) {
	var model models.StudentFeeModel
	q := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", orgID, id)
	if err := firstOrNotFound(q, &model, fee.ErrFeeNotFound); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStudent returns the student's fees, earliest due date first. Rows
// without a due date sort last.
func (r *GormStudentFeeRepository) FindByStudent(ctx context.Context, orgID, studentID uuid.UUID) ([]fee.StudentFee, error) {
	var rows []models.StudentFeeModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", orgID, studentID).
		Order("due_date IS NULL, due_date ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return toStudentFees(rows), nil
}

// FindUnpaidForMonth returns unpaid fees billed in month. Rows with no
// billing_month are matched by their due date instead.
func (r *GormStudentFeeRepository) FindUnpaidForMonth(ctx context.Context, orgID uuid.UUID, month time.Time) ([]fee.StudentFee, error) {
	start := fee.MonthStart(month)
	end := start.AddDate(0, 1, 0)

	var rows []models.StudentFeeModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", orgID).
		Where("status IN ?", []fee.Status{fee.StatusPending, fee.StatusOverdue, fee.StatusPartiallyPaid}).
		Where(r.db.Where("billing_month >= ? AND billing_month < ?", start, end).
			Or("billing_month IS NULL AND due_date >= ? AND due_date < ?", start, end)).
		Order("due_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return toStudentFees(rows), nil
}

// CountByStudent counts the student's fee rows
func (r *GormStudentFeeRepository) CountByStudent(ctx context.Context, orgID, studentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StudentFeeModel{}).
		Where("tenant_id = ? AND student_id = ?", orgID, studentID).
		Count(&count).Error
	return count, translateError(err)
}

// Create inserts a new fee row
func (r *GormStudentFeeRepository) Create(ctx context.Context, f *fee.StudentFee) error {
	return translateError(r.db.WithContext(ctx).Create(models.StudentFeeModelFromDomain(f)).Error)
}

// SaveWithLock saves a fee with optimistic locking. The caller has already
// incremented the version, so the stored row must be at Version-1.
func (r *GormStudentFeeRepository) SaveWithLock(ctx context.Context, f *fee.StudentFee) error {
	model := models.StudentFeeModelFromDomain(f)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND version = ?", f.OrgID, f.Version-1).
		Select("*").Omit("id", "tenant_id", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fee.ErrVersionMismatch
	}
	return nil
}

// Delete hard-deletes the fee row
func (r *GormStudentFeeRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", orgID, id).
		Delete(&models.StudentFeeModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fee.ErrFeeNotFound
	}
	return nil
}

func toStudentFees(rows []models.StudentFeeModel) []fee.StudentFee {
	fees := make([]fee.StudentFee, len(rows))
	for i := range rows {
		fees[i] = *rows[i].ToDomain()
	}
	return fees
}

var _ fee.StudentFeeRepository = (*GormStudentFeeRepository)(nil)
