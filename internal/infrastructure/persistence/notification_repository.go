package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/notification"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInAppNotificationRepository implements notification.InAppRepository using GORM
type GormInAppNotificationRepository struct {
	db *gorm.DB
}

// NewGormInAppNotificationRepository creates a new GormInAppNotificationRepository
func NewGormInAppNotificationRepository(db *gorm.DB) *GormInAppNotificationRepository {
	return &GormInAppNotificationRepository{db: db}
}

// CreateBatch inserts the notifications in one statement
func (r *GormInAppNotificationRepository) CreateBatch(ctx context.Context, items []*notification.InApp) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*models.InAppNotificationModel, len(items))
	for i, n := range items {
		rows[i] = models.InAppNotificationModelFromDomain(n)
	}
	return translateError(r.db.WithContext(ctx).Create(rows).Error)
}

// ListForUser returns a page of the user's notifications, newest first
func (r *GormInAppNotificationRepository) ListForUser(ctx context.Context, orgID, userID uuid.UUID, opts shared.ListOptions) ([]*notification.InApp, error) {
	var rows []models.InAppNotificationModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", orgID, userID).
		Order("created_at DESC").
		Offset(opts.Offset()).
		Limit(opts.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]*notification.InApp, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ notification.InAppRepository = (*GormInAppNotificationRepository)(nil)
