package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NameQuery is the degraded-mode lookup used when no student id link exists
type NameQuery struct {
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
}

// Repository reads and updates students
type Repository interface {
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Student, error)

	// FindByName returns students whose full name matches case-insensitively,
	// optionally narrowed by date of birth.
	FindByName(ctx context.Context, orgID uuid.UUID, q NameQuery) ([]Student, error)

	// SearchByName returns students whose full name contains term
	SearchByName(ctx context.Context, orgID uuid.UUID, term string) ([]Student, error)

	SaveWithLock(ctx context.Context, s *Student) error

	// UpdateRegistrationFeeAmount mirrors a registration fee adjustment
	UpdateRegistrationFeeAmount(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal) error

	// HardDelete removes the student row permanently
	HardDelete(ctx context.Context, orgID, id uuid.UUID) error
}
