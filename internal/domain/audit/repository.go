package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/shared"
)

// Repository is deliberately append-only: there is no update or delete.
type Repository interface {
	Append(ctx context.Context, entry *CorrectionAudit) error
	ListByStudent(ctx context.Context, orgID, studentID uuid.UUID, opts shared.ListOptions) ([]*CorrectionAudit, int64, error)
	ListByFee(ctx context.Context, orgID, feeID uuid.UUID) ([]*CorrectionAudit, error)
}
