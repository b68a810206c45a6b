package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository spans both admission request tables
type Repository interface {
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Request, error)

	// FindByStudentID returns every request linked to the student, from both tables
	FindByStudentID(ctx context.Context, orgID, studentID uuid.UUID) ([]Request, error)

	// FindByChild is the degraded name + date-of-birth join for rows with no
	// student link.
	FindByChild(ctx context.Context, orgID uuid.UUID, firstName, lastName string, dob *time.Time) ([]Request, error)

	SaveWithLock(ctx context.Context, r *Request) error

	// DeleteByGuardianEmail removes all requests for the guardian and returns the count
	DeleteByGuardianEmail(ctx context.Context, orgID uuid.UUID, email string) (int64, error)
}

// TrialUsageRepository remembers guardians who already had a trial
type TrialUsageRepository interface {
	RecordUsage(ctx context.Context, orgID uuid.UUID, email string) error
	HasUsed(ctx context.Context, orgID uuid.UUID, email string) (bool, error)
}
