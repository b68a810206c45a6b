package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
	"github.com/schoolfees/backend/internal/domain/student"
	"github.com/schoolfees/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStudentRepository implements student.Repository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByIDForOrg finds a student by ID within a school, including soft-deleted rows
func (r *GormStudentRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*student.Student, error) {
	var model models.StudentModel
	q := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", orgID, id)
	if err := firstOrNotFound(q, &model, student.ErrStudentNotFound); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName matches first and last name case-insensitively. A date of
// birth, when given, must match too.
func (r *GormStudentRepository) FindByName(ctx context.Context, orgID uuid.UUID, nq student.NameQuery) ([]student.Student, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL", orgID).
		Where("LOWER(first_name) = ? AND LOWER(last_name) = ?",
			strings.ToLower(strings.TrimSpace(nq.FirstName)),
			strings.ToLower(strings.TrimSpace(nq.LastName)))
	if nq.DateOfBirth != nil {
		q = q.Where("date_of_birth = ?", dateOnly(*nq.DateOfBirth))
	}
	return r.find(q)
}

// SearchByName returns students whose full name contains term
func (r *GormStudentRepository) SearchByName(ctx context.Context, orgID uuid.UUID, term string) ([]student.Student, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []student.Student{}, nil
	}
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL", orgID).
		Where("LOWER(first_name || ' ' || last_name) LIKE ? ESCAPE '\\'", "%"+escapeLike(term)+"%")
	return r.find(q)
}

func (r *GormStudentRepository) find(q *gorm.DB) ([]student.Student, error) {
	var rows []models.StudentModel
	if err := q.Order("last_name, first_name").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	out := make([]student.Student, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// SaveWithLock saves a student with optimistic locking
func (r *GormStudentRepository) SaveWithLock(ctx context.Context, s *student.Student) error {
	model := models.StudentModelFromDomain(s)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND version = ?", s.OrgID, s.Version-1).
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

// UpdateRegistrationFeeAmount mirrors a registration fee adjustment onto the student
func (r *GormStudentRepository) UpdateRegistrationFeeAmount(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.StudentModel{}).
		Where("tenant_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{
			"registration_fee_amount": amount,
			"version":                 gorm.Expr("version + 1"),
			"updated_at":              time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return student.ErrStudentNotFound
	}
	return nil
}

// HardDelete removes the student row permanently
func (r *GormStudentRepository) HardDelete(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", orgID, id).
		Delete(&models.StudentModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return student.ErrStudentNotFound
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ student.Repository = (*GormStudentRepository)(nil)
