package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCorrectionAuditRepository implements audit.Repository using GORM.
// It only inserts and reads.
type GormCorrectionAuditRepository struct {
	db *gorm.DB
}

// NewGormCorrectionAuditRepository creates a new GormCorrectionAuditRepository
func NewGormCorrectionAuditRepository(db *gorm.DB) *GormCorrectionAuditRepository {
	return &GormCorrectionAuditRepository{db: db}
}

// Append inserts one audit row. The insert runs in its own nested
// transaction, which GORM turns into a SAVEPOINT when db is already a
// transaction: a failed insert rolls back to the savepoint and the outer
// transaction stays usable.
func (r *GormCorrectionAuditRepository) Append(ctx context.Context, entry *audit.CorrectionAudit) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(models.CorrectionAuditModelFromDomain(entry)).Error
	})
	if err != nil {
		return shared.NewAuditWriteError(err)
	}
	return nil
}

// ListByStudent returns a page of the student's audit rows, newest first,
// and the total row count.
func (r *GormCorrectionAuditRepository) ListByStudent(ctx context.Context, orgID, studentID uuid.UUID, opts shared.ListOptions) ([]*audit.CorrectionAudit, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.CorrectionAuditModel{}).
		Where("tenant_id = ? AND student_id = ?", orgID, studentID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.CorrectionAuditModel
	err := q.Order("created_at DESC, id DESC").
		Offset(opts.Offset()).
		Limit(opts.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return toAudits(rows), total, nil
}

// ListByFee returns every audit row of one fee, newest first
func (r *GormCorrectionAuditRepository) ListByFee(ctx context.Context, orgID, feeID uuid.UUID) ([]*audit.CorrectionAudit, error) {
	var rows []models.CorrectionAuditModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_fee_id = ?", orgID, feeID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return toAudits(rows), nil
}

func toAudits(rows []models.CorrectionAuditModel) []*audit.CorrectionAudit {
	out := make([]*audit.CorrectionAudit, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ audit.Repository = (*GormCorrectionAuditRepository)(nil)
