package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAdmissionRepository implements admission.Repository over the
// registration_requests and child_registration_requests tables.
type GormAdmissionRepository struct {
	db *gorm.DB
}

// NewGormAdmissionRepository creates a new GormAdmissionRepository
func NewGormAdmissionRepository(db *gorm.DB) *GormAdmissionRepository {
	return &GormAdmissionRepository{db: db}
}

// FindByIDForOrg looks the id up in the guardian table first, then the child table
func (r *GormAdmissionRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*admission.Request, error) {
	var guardian models.RegistrationRequestModel
	err := firstOrNotFound(r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", orgID, id), &guardian, admission.ErrRequestNotFound)
	if err == nil {
		return guardian.ToDomain(), nil
	}
	if !shared.IsKind(err, shared.KindNotFound) {
		return nil, err
	}

	var child models.ChildRegistrationRequestModel
	if err := firstOrNotFound(r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", orgID, id), &child, admission.ErrRequestNotFound); err != nil {
		return nil, err
	}
	return child.ToDomain(), nil
}

// FindByStudentID returns the requests linked to the student from both tables
func (r *GormAdmissionRepository) FindByStudentID(ctx context.Context, orgID, studentID uuid.UUID) ([]admission.Request, error) {
	return r.findBoth(func() *gorm.DB {
		return r.db.WithContext(ctx).Where("tenant_id = ? AND student_id = ?", orgID, studentID)
	})
}

// FindByChild matches unlinked requests by child name and date of birth
func (r *GormAdmissionRepository) FindByChild(ctx context.Context, orgID uuid.UUID, firstName, lastName string, dob *time.Time) ([]admission.Request, error) {
	return r.findBoth(func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Where("tenant_id = ? AND student_id IS NULL", orgID).
			Where("LOWER(child_first_name) = ? AND LOWER(child_last_name) = ?",
				strings.ToLower(strings.TrimSpace(firstName)),
				strings.ToLower(strings.TrimSpace(lastName)))
		if dob != nil {
			q = q.Where("date_of_birth = ?", dateOnly(*dob))
		}
		return q
	})
}

func (r *GormAdmissionRepository) findBoth(scope func() *gorm.DB) ([]admission.Request, error) {
	var guardians []models.RegistrationRequestModel
	if err := scope().Order("created_at").Find(&guardians).Error; err != nil {
		return nil, translateError(err)
	}
	var children []models.ChildRegistrationRequestModel
	if err := scope().Order("created_at").Find(&children).Error; err != nil {
		return nil, translateError(err)
	}

	out := make([]admission.Request, 0, len(guardians)+len(children))
	for i := range guardians {
		out = append(out, *guardians[i].ToDomain())
	}
	for i := range children {
		out = append(out, *children[i].ToDomain())
	}
	return out, nil
}

// SaveWithLock writes the request back to the table it came from
func (r *GormAdmissionRepository) SaveWithLock(ctx context.Context, req *admission.Request) error {
	var model any
	switch req.Source {
	case admission.SourceChild:
		m := &models.ChildRegistrationRequestModel{}
		m.FromDomain(req)
		model = m
	default:
		m := &models.RegistrationRequestModel{}
		m.FromDomain(req)
		model = m
	}

	result := r.db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND version = ?", req.OrgID, req.Version-1).
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

// DeleteByGuardianEmail removes the guardian's requests from both tables.
// Trial usage rows are left alone.
func (r *GormAdmissionRepository) DeleteByGuardianEmail(ctx context.Context, orgID uuid.UUID, email string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.RegistrationRequestModel{}, &models.ChildRegistrationRequestModel{}} {
			result := tx.Where("tenant_id = ? AND LOWER(guardian_email) = ?", orgID, email).Delete(m)
			if result.Error != nil {
				return result.Error
			}
			removed += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, translateError(err)
	}
	return removed, nil
}

// GormTrialUsageRepository implements admission.TrialUsageRepository using GORM
type GormTrialUsageRepository struct {
	db *gorm.DB
}

// NewGormTrialUsageRepository creates a new GormTrialUsageRepository
func NewGormTrialUsageRepository(db *gorm.DB) *GormTrialUsageRepository {
	return &GormTrialUsageRepository{db: db}
}

// RecordUsage marks the email as having used its trial. Recording twice is a no-op.
func (r *GormTrialUsageRepository) RecordUsage(ctx context.Context, orgID uuid.UUID, email string) error {
	row := &models.TrialUsageModel{
		ID:        uuid.New(),
		TenantID:  orgID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "email"}},
		DoNothing: true,
	}).Create(row).Error
	return translateError(err)
}

// HasUsed reports whether the email already used its trial
func (r *GormTrialUsageRepository) HasUsed(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TrialUsageModel{}).
		Where("tenant_id = ? AND email = ?", orgID, strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, translateError(err)
}

var (
	_ admission.Repository           = (*GormAdmissionRepository)(nil)
	_ admission.TrialUsageRepository = (*GormTrialUsageRepository)(nil)
)
