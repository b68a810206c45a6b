package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/student"
	"go.uber.org/zap"
)

// StructureResolver picks the fee structure that prices a student
type StructureResolver struct {
	structures fee.StructureRepository
	logger     *zap.Logger
}

// NewStructureResolver creates a StructureResolver
func NewStructureResolver(structures fee.StructureRepository, logger *zap.Logger) *StructureResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructureResolver{structures: structures, logger: logger}
}

// ResolveStructure returns the structure of category that applies to the
// student on asOf, or nil when there is nothing to bill. Lookup failures are
// logged and also yield nil.
func (r *StructureResolver) ResolveStructure(
	ctx context.Context,
	orgID uuid.UUID,
	category fee.Category,
	sc student.Context,
	classNameHint string,
	asOf time.Time,
) *fee.FeeStructure {
	candidates, err := r.structures.FindActive(ctx, orgID, category, asOf)
	if err != nil {
		r.logger.Warn("fee structure lookup failed",
			zap.String("org_id", orgID.String()),
			zap.String("category", string(category)),
			zap.Error(err),
		)
		return nil
	}
	return fee.SelectStructure(candidates, fee.Selection{
		DateOfBirth:    sc.DateOfBirth,
		EnrollmentDate: sc.EnrollmentDate,
		ClassNameHint:  classNameHint,
		AsOf:           asOf,
	})
}
