// Package admission bridges admission requests, their registration payment
// and the enrolled student.
package admission

import (
	"context"

	"github.com/schoolfees/backend/internal/domain/admission"
	"github.com/schoolfees/backend/internal/domain/audit"
	"github.com/schoolfees/backend/internal/domain/student"
)

// TransactionScope provides transactional access to the admission repositories.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to one transaction
type TransactionalRepositories interface {
	AdmissionRepo() admission.Repository
	StudentRepo() student.Repository
	AuditRepo() audit.Repository
}

// NoOpTransactionScope runs fn against fixed repositories without a real transaction
type NoOpTransactionScope struct {
	Admissions admission.Repository
	Students   student.Repository
	Audits     audit.Repository
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) AdmissionRepo() admission.Repository { return s.Admissions }
func (s *NoOpTransactionScope) StudentRepo() student.Repository     { return s.Students }
func (s *NoOpTransactionScope) AuditRepo() audit.Repository         { return s.Audits }
