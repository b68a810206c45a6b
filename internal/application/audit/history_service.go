package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/shared"
)

// HistoryService serves the correction audit trail for review screens
type HistoryService struct {
	repo audit.Repository
}

// NewHistoryService creates a HistoryService
func NewHistoryService(repo audit.Repository) *HistoryService {
	return &HistoryService{repo: repo}
}

// StudentHistory returns a page of a student's corrections, newest first
func (s *HistoryService) StudentHistory(ctx context.Context, orgID, studentID uuid.UUID, opts shared.ListOptions) (shared.Paginated[*audit.CorrectionAudit], error) {
	items, total, err := s.repo.ListByStudent(ctx, orgID, studentID, opts)
	if err != nil {
		return shared.Paginated[*audit.CorrectionAudit]{}, err
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	return shared.NewPaginated(items, total, page, opts.Limit()), nil
}

// FeeHistory returns every correction recorded against one fee
func (s *HistoryService) FeeHistory(ctx context.Context, orgID, feeID uuid.UUID) ([]*audit.CorrectionAudit, error) {
	return s.repo.ListByFee(ctx, orgID, feeID)
}
