package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DualTableStructureRepository reads fee structures from the canonical
// school_fee_structures table and falls back to the legacy fee_structures
// table. It is the only place that knows two tables exist.
type DualTableStructureRepository struct {
	db *gorm.DB
}

// NewDualTableStructureRepository creates a new DualTableStructureRepository
func NewDualTableStructureRepository(db *gorm.DB) *DualTableStructureRepository {
	return &DualTableStructureRepository{db: db}
}

// FindActive returns the active structures of category in effect on asOf,
// newest first. Canonical rows win; legacy rows are read only when the
// canonical table has none.
func (r *DualTableStructureRepository) FindActive(ctx context.Context, orgID uuid.UUID, category fee.Category, asOf time.Time) ([]fee.FeeStructure, error) {
	var canonical []models.SchoolFeeStructureModel
	err := r.activeScope(ctx, orgID, category, asOf).Find(&canonical).Error
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]fee.FeeStructure, 0, len(canonical))
	for i := range canonical {
		out = append(out, canonical[i].ToDomain())
	}

	if len(out) == 0 {
		var legacy []models.FeeStructureModel
		if err := r.activeScope(ctx, orgID, category, asOf).Find(&legacy).Error; err != nil {
			return nil, translateError(err)
		}
		for i := range legacy {
			out = append(out, legacy[i].ToDomain())
		}
	}
	fee.SortStructures(out)
	return out, nil
}

func (r *DualTableStructureRepository) activeScope(ctx context.Context, orgID uuid.UUID, category fee.Category, asOf time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND category = ? AND is_active = ?", orgID, category, true).
		Where("effective_from IS NULL OR effective_from <= ?", asOf).
		Order("effective_from DESC, created_at DESC")
}

// EnsureLegacyBridge materializes the legacy twin of a canonical structure
// and links both rows. Calling it again for the same structure returns the
// existing twin.
func (r *DualTableStructureRepository) EnsureLegacyBridge(ctx context.Context, s fee.FeeStructure, actorID uuid.UUID) (fee.FeeStructure, error) {
	if !s.NeedsLegacyBridge() {
		return s, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bridge := models.LegacyBridgeFromCanonical(s, actorID)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "school_fee_structure_id"}},
			DoNothing: true,
		}).Create(bridge).Error; err != nil {
			return err
		}

		var existing models.FeeStructureModel
		if err := tx.Where("school_fee_structure_id = ?", s.ID).First(&existing).Error; err != nil {
			return err
		}
		legacyID := existing.ID
		s.LegacyID = &legacyID

		return tx.Model(&models.SchoolFeeStructureModel{}).
			Where("tenant_id = ? AND id = ?", s.OrgID, s.ID).
			Update("legacy_fee_structure_id", legacyID).Error
	})
	if err != nil {
		return fee.FeeStructure{}, translateError(err)
	}
	return s, nil
}

var _ fee.StructureRepository = (*DualTableStructureRepository)(nil)
