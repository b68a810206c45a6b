package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errPaymentNotFound = shared.NewNotFoundError("PAYMENT_NOT_FOUND", "Payment not found")

// referenceConflict upserts on the (tenant_id, reference) unique index
func referenceConflict(updateColumns ...string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "reference"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}
}

// GormPaymentRepository implements fee.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// UpsertByReference inserts the payment, or reactivates the row already
// holding the reference. The stored receipt pointer is kept.
func (r *GormPaymentRepository) UpsertByReference(ctx context.Context, p *fee.Payment) error {
	model := models.PaymentModelFromDomain(p)
	model.VoidedAt = nil
	err := r.db.WithContext(ctx).
		Clauses(referenceConflict("amount", "method", "status", "paid_at", "voided_at", "recorded_by", "updated_at")).
		Create(model).Error
	return translateError(err)
}

// VoidByReference voids completed payments with the reference
func (r *GormPaymentRepository) VoidByReference(ctx context.Context, orgID uuid.UUID, reference string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND reference = ? AND status = ?", orgID, reference, fee.PaymentStatusCompleted).
		Updates(map[string]any{
			"status":     fee.PaymentStatusVoided,
			"voided_at":  at,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, translateError(result.Error)
}

// FindByReference finds the payment holding reference
func (r *GormPaymentRepository) FindByReference(ctx context.Context, orgID uuid.UUID, reference string) (*fee.Payment, error) {
	var model models.PaymentModel
	q := r.db.WithContext(ctx).Where("tenant_id = ? AND reference = ?", orgID, reference)
	if err := firstOrNotFound(q, &model, errPaymentNotFound); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// AttachReceipt records the stored receipt pointer on the payment
func (r *GormPaymentRepository) AttachReceipt(ctx context.Context, orgID uuid.UUID, reference, receiptURL, storagePath string) error {
	result := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("tenant_id = ? AND reference = ?", orgID, reference).
		Updates(map[string]any{
			"receipt_url":          receiptURL,
			"receipt_storage_path": storagePath,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errPaymentNotFound
	}
	return nil
}

// GormFinancialTransactionRepository implements fee.FinancialTransactionRepository using GORM
type GormFinancialTransactionRepository struct {
	db *gorm.DB
}

// NewGormFinancialTransactionRepository creates a new GormFinancialTransactionRepository
func NewGormFinancialTransactionRepository(db *gorm.DB) *GormFinancialTransactionRepository {
	return &GormFinancialTransactionRepository{db: db}
}

// UpsertByReference inserts the transaction or re-posts the existing row
func (r *GormFinancialTransactionRepository) UpsertByReference(ctx context.Context, t *fee.FinancialTransaction) error {
	model := models.FinancialTransactionModelFromDomain(t)
	model.VoidedAt = nil
	err := r.db.WithContext(ctx).
		Clauses(referenceConflict("amount", "status", "description", "occurred_at", "voided_at", "updated_at")).
		Create(model).Error
	return translateError(err)
}

// VoidByReference voids posted transactions with the reference
func (r *GormFinancialTransactionRepository) VoidByReference(ctx context.Context, orgID uuid.UUID, reference string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.FinancialTransactionModel{}).
		Where("tenant_id = ? AND reference = ? AND status = ?", orgID, reference, fee.TransactionStatusPosted).
		Updates(map[string]any{
			"status":     fee.TransactionStatusVoided,
			"voided_at":  at,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, translateError(result.Error)
}

// CountByReference counts rows holding reference, whatever their status
func (r *GormFinancialTransactionRepository) CountByReference(ctx context.Context, orgID uuid.UUID, reference string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FinancialTransactionModel{}).
		Where("tenant_id = ? AND reference = ?", orgID, reference).
		Count(&count).Error
	return count, translateError(err)
}

var (
	_ fee.PaymentRepository              = (*GormPaymentRepository)(nil)
	_ fee.FinancialTransactionRepository = (*GormFinancialTransactionRepository)(nil)
)
