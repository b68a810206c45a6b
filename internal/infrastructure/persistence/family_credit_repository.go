package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFamilyCreditRepository implements fee.FamilyCreditRepository using GORM
type GormFamilyCreditRepository struct {
	db *gorm.DB
}

// NewGormFamilyCreditRepository creates a new GormFamilyCreditRepository
func NewGormFamilyCreditRepository(db *gorm.DB) *GormFamilyCreditRepository {
	return &GormFamilyCreditRepository{db: db}
}

// FindByIDForOrg finds a credit by ID within a school
func (r *GormFamilyCreditRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*fee.FamilyCredit, error) {
	var model models.FamilyCreditModel
	q := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", orgID, id)
	if err := firstOrNotFound(q, &model, fee.ErrCreditNotFound); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAvailableByParent returns the parent's available credits, oldest first
func (r *GormFamilyCreditRepository) FindAvailableByParent(ctx context.Context, orgID, parentID uuid.UUID) ([]fee.FamilyCredit, error) {
	var rows []models.FamilyCreditModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND parent_id = ? AND status = ?", orgID, parentID, fee.CreditStatusAvailable).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	credits := make([]fee.FamilyCredit, len(rows))
	for i := range rows {
		credits[i] = *rows[i].ToDomain()
	}
	return credits, nil
}

// Create inserts a new credit
func (r *GormFamilyCreditRepository) Create(ctx context.Context, credit *fee.FamilyCredit) error {
	return translateError(r.db.WithContext(ctx).Create(models.FamilyCreditModelFromDomain(credit)).Error)
}

// SaveWithLock saves a credit with optimistic locking
func (r *GormFamilyCreditRepository) SaveWithLock(ctx context.Context, credit *fee.FamilyCredit) error {
	model := models.FamilyCreditModelFromDomain(credit)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND version = ?", credit.OrgID, credit.Version-1).
		Select("*").Omit("id", "tenant_id", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ fee.FamilyCreditRepository = (*GormFamilyCreditRepository)(nil)
