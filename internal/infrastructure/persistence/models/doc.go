// Package models contains GORM persistence models for the fee ledger tables.
// Domain types stay free of ORM tags; each model converts with ToDomain and
// FromDomain.
//
// Files:
//   - base.go: BaseModel, AggregateModel, OrgAggregateModel
//   - fee.go: student_fees, both fee structure tables, payments,
//     financial_transactions, family_credits
//   - audit.go: fee_corrections_audit
//   - student.go: students
//   - admission.go: registration_requests, child_registration_requests, trial_usages
//   - notification.go: in_app_notifications
package models
