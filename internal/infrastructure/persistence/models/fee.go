package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfees/backend/internal/domain/fee"
	"github.com/schoolfees/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// StudentFeeModel is the persistence model for the StudentFee aggregate root.
type StudentFeeModel struct {
	OrgAggregateModel
	StudentID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	FeeStructureID    *uuid.UUID       `gorm:"type:uuid;index"`
	Name              string           `gorm:"type:varchar(200);not null"`
	Description       string           `gorm:"type:text"`
	FeeType           string           `gorm:"type:varchar(50)"`
	CategoryCode      fee.Category     `gorm:"type:varchar(30);not null;default:'tuition';index"`
	Amount            decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	FinalAmount       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	DiscountAmount    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	WaivedAmount      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	AmountPaid        decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	AmountOutstanding *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Status            fee.Status       `gorm:"type:varchar(20);not null;default:'pending';index"`
	DueDate           *time.Time       `gorm:"type:date;index"`
	BillingMonth      *time.Time       `gorm:"type:date;index"`
	PaidDate          *time.Time       `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (StudentFeeModel) TableName() string {
	return "student_fees"
}

// ToDomain converts the persistence model to a domain StudentFee
func (m *StudentFeeModel) ToDomain() *fee.StudentFee {
	return &fee.StudentFee{
		OrgAggregateRoot:  m.ToDomainOrgAggregateRoot(),
		StudentID:         m.StudentID,
		FeeStructureID:    m.FeeStructureID,
		Name:              m.Name,
		Description:       m.Description,
		FeeType:           m.FeeType,
		CategoryCode:      m.CategoryCode,
		Amount:            m.Amount,
		FinalAmount:       m.FinalAmount,
		DiscountAmount:    m.DiscountAmount,
		WaivedAmount:      m.WaivedAmount,
		AmountPaid:        m.AmountPaid,
		AmountOutstanding: m.AmountOutstanding,
		Status:            m.Status,
		DueDate:           m.DueDate,
		BillingMonth:      m.BillingMonth,
		PaidDate:          m.PaidDate,
	}
}

// FromDomain populates the persistence model from a domain StudentFee
func (m *StudentFeeModel) FromDomain(f *fee.StudentFee) {
	m.FromDomainOrgAggregateRoot(f.OrgAggregateRoot)
	m.StudentID = f.StudentID
	m.FeeStructureID = f.FeeStructureID
	m.Name = f.Name
	m.Description = f.Description
	m.FeeType = f.FeeType
	m.CategoryCode = f.CategoryCode
	m.Amount = f.Amount
	m.FinalAmount = f.FinalAmount
	m.DiscountAmount = f.DiscountAmount
	m.WaivedAmount = f.WaivedAmount
	m.AmountPaid = f.AmountPaid
	m.AmountOutstanding = f.AmountOutstanding
	m.Status = f.Status
	m.DueDate = f.DueDate
	m.BillingMonth = f.BillingMonth
	m.PaidDate = f.PaidDate
}

// StudentFeeModelFromDomain creates a new persistence model from a domain StudentFee
func StudentFeeModelFromDomain(f *fee.StudentFee) *StudentFeeModel {
	m := &StudentFeeModel{}
	m.FromDomain(f)
	return m
}

// FeeStructureModel is the legacy fee_structures row. Amounts are stored
// per unit. CanonicalID points back at the school_fee_structures row the
// record was bridged from, if any.
type FeeStructureModel struct {
	BaseModel
	TenantID      uuid.UUID            `gorm:"type:uuid;not null;index:idx_fee_structures_lookup,priority:1"`
	CanonicalID   *uuid.UUID           `gorm:"column:school_fee_structure_id;type:uuid;uniqueIndex"`
	Name          string               `gorm:"type:varchar(200);not null"`
	Description   string               `gorm:"type:text"`
	GradeLevel    string               `gorm:"type:varchar(100)"`
	Category      fee.Category         `gorm:"type:varchar(30);not null;index:idx_fee_structures_lookup,priority:2"`
	Frequency     fee.BillingFrequency `gorm:"type:varchar(20);not null;default:'monthly'"`
	Amount        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	MinAgeMonths  *int
	MaxAgeMonths  *int
	EffectiveFrom *time.Time `gorm:"type:date"`
	IsActive      bool       `gorm:"not null;default:true"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (FeeStructureModel) TableName() string {
	return "fee_structures"
}

// ToDomain converts the legacy row to a FeeStructure
func (m *FeeStructureModel) ToDomain() fee.FeeStructure {
	return fee.FeeStructure{
		ID:            m.ID,
		OrgID:         m.TenantID,
		Source:        fee.SourceLegacy,
		CanonicalID:   m.CanonicalID,
		Name:          m.Name,
		Description:   m.Description,
		GradeLevel:    m.GradeLevel,
		Category:      m.Category,
		Frequency:     m.Frequency,
		Amount:        m.Amount,
		MinAgeMonths:  m.MinAgeMonths,
		MaxAgeMonths:  m.MaxAgeMonths,
		EffectiveFrom: m.EffectiveFrom,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
	}
}

// LegacyBridgeFromCanonical builds the legacy twin of a canonical structure
func LegacyBridgeFromCanonical(s fee.FeeStructure, actorID uuid.UUID) *FeeStructureModel {
	now := time.Now()
	canonicalID := s.ID
	return &FeeStructureModel{
		BaseModel: BaseModel{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		TenantID:      s.OrgID,
		CanonicalID:   &canonicalID,
		Name:          s.Name,
		Description:   s.Description,
		GradeLevel:    s.GradeLevel,
		Category:      s.Category,
		Frequency:     s.Frequency,
		Amount:        s.Amount,
		MinAgeMonths:  s.MinAgeMonths,
		MaxAgeMonths:  s.MaxAgeMonths,
		EffectiveFrom: s.EffectiveFrom,
		IsActive:      s.IsActive,
		CreatedBy:     &actorID,
	}
}

// SchoolFeeStructureModel is the canonical school_fee_structures row. Amounts
// are stored in cents.
type SchoolFeeStructureModel struct {
	BaseModel
	TenantID      uuid.UUID            `gorm:"type:uuid;not null;index:idx_school_fee_structures_lookup,priority:1"`
	LegacyID      *uuid.UUID           `gorm:"column:legacy_fee_structure_id;type:uuid"`
	Name          string               `gorm:"type:varchar(200);not null"`
	Description   string               `gorm:"type:text"`
	GradeLevel    string               `gorm:"type:varchar(100)"`
	Category      fee.Category         `gorm:"type:varchar(30);not null;index:idx_school_fee_structures_lookup,priority:2"`
	Frequency     fee.BillingFrequency `gorm:"type:varchar(20);not null;default:'monthly'"`
	AmountCents   int64                `gorm:"not null"`
	MinAgeMonths  *int
	MaxAgeMonths  *int
	EffectiveFrom *time.Time `gorm:"type:date"`
	IsActive      bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SchoolFeeStructureModel) TableName() string {
	return "school_fee_structures"
}

// ToDomain converts the canonical row to a FeeStructure
func (m *SchoolFeeStructureModel) ToDomain() fee.FeeStructure {
	return fee.FeeStructure{
		ID:            m.ID,
		OrgID:         m.TenantID,
		Source:        fee.SourceCanonical,
		LegacyID:      m.LegacyID,
		Name:          m.Name,
		Description:   m.Description,
		GradeLevel:    m.GradeLevel,
		Category:      m.Category,
		Frequency:     m.Frequency,
		Amount:        valueobject.CentsToDecimal(m.AmountCents),
		MinAgeMonths:  m.MinAgeMonths,
		MaxAgeMonths:  m.MaxAgeMonths,
		EffectiveFrom: m.EffectiveFrom,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
	}
}

// PaymentModel is the persistence model for Payment. (tenant_id, reference)
// is unique so re-marking a fee paid reuses the row.
type PaymentModel struct {
	BaseModel
	TenantID           uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_payments_tenant_reference,priority:1"`
	Reference          string            `gorm:"type:varchar(80);not null;uniqueIndex:idx_payments_tenant_reference,priority:2"`
	StudentID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	StudentFeeID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount             decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Method             string            `gorm:"type:varchar(30);not null"`
	Status             fee.PaymentStatus `gorm:"type:varchar(20);not null"`
	PaidAt             time.Time         `gorm:"not null"`
	VoidedAt           *time.Time
	ReceiptURL         string     `gorm:"type:text"`
	ReceiptStoragePath string     `gorm:"type:text"`
	RecordedBy         *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *fee.Payment {
	return &fee.Payment{
		ID:                 m.ID,
		OrgID:              m.TenantID,
		StudentID:          m.StudentID,
		StudentFeeID:       m.StudentFeeID,
		Reference:          m.Reference,
		Amount:             m.Amount,
		Method:             m.Method,
		Status:             m.Status,
		PaidAt:             m.PaidAt,
		VoidedAt:           m.VoidedAt,
		ReceiptURL:         m.ReceiptURL,
		ReceiptStoragePath: m.ReceiptStoragePath,
		RecordedBy:         m.RecordedBy,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *fee.Payment) *PaymentModel {
	return &PaymentModel{
		BaseModel:          BaseModel{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
		TenantID:           p.OrgID,
		Reference:          p.Reference,
		StudentID:          p.StudentID,
		StudentFeeID:       p.StudentFeeID,
		Amount:             p.Amount,
		Method:             p.Method,
		Status:             p.Status,
		PaidAt:             p.PaidAt,
		VoidedAt:           p.VoidedAt,
		ReceiptURL:         p.ReceiptURL,
		ReceiptStoragePath: p.ReceiptStoragePath,
		RecordedBy:         p.RecordedBy,
	}
}

// FinancialTransactionModel is the persistence model for FinancialTransaction
type FinancialTransactionModel struct {
	BaseModel
	TenantID     uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_fin_tx_tenant_reference,priority:1"`
	Reference    string                `gorm:"type:varchar(80);not null;uniqueIndex:idx_fin_tx_tenant_reference,priority:2"`
	StudentID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	StudentFeeID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Type         string                `gorm:"type:varchar(30);not null"`
	Amount       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status       fee.TransactionStatus `gorm:"type:varchar(20);not null"`
	Description  string                `gorm:"type:varchar(500)"`
	OccurredAt   time.Time             `gorm:"not null"`
	VoidedAt     *time.Time
}

// TableName returns the table name for GORM
func (FinancialTransactionModel) TableName() string {
	return "financial_transactions"
}

// FinancialTransactionModelFromDomain creates a new persistence model from a domain FinancialTransaction
func FinancialTransactionModelFromDomain(t *fee.FinancialTransaction) *FinancialTransactionModel {
	return &FinancialTransactionModel{
		BaseModel:    BaseModel{ID: t.ID, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt},
		TenantID:     t.OrgID,
		Reference:    t.Reference,
		StudentID:    t.StudentID,
		StudentFeeID: t.StudentFeeID,
		Type:         t.Type,
		Amount:       t.Amount,
		Status:       t.Status,
		Description:  t.Description,
		OccurredAt:   t.OccurredAt,
		VoidedAt:     t.VoidedAt,
	}
}

// FamilyCreditModel is the persistence model for the FamilyCredit aggregate root
type FamilyCreditModel struct {
	OrgAggregateModel
	ParentID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	RemainingAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Status          fee.CreditStatus       `gorm:"type:varchar(20);not null;default:'available';index"`
	Applications    fee.CreditApplications `gorm:"type:jsonb;default:'[]'"`
	ExpiresAt       *time.Time
}

// TableName returns the table name for GORM
func (FamilyCreditModel) TableName() string {
	return "family_credits"
}

// ToDomain converts the persistence model to a domain FamilyCredit
func (m *FamilyCreditModel) ToDomain() *fee.FamilyCredit {
	apps := m.Applications
	if apps == nil {
		apps = fee.CreditApplications{}
	}
	return &fee.FamilyCredit{
		OrgAggregateRoot: m.ToDomainOrgAggregateRoot(),
		ParentID:         m.ParentID,
		Amount:           m.Amount,
		RemainingAmount:  m.RemainingAmount,
		Status:           m.Status,
		Applications:     apps,
		ExpiresAt:        m.ExpiresAt,
	}
}

// FromDomain populates the persistence model from a domain FamilyCredit
func (m *FamilyCreditModel) FromDomain(c *fee.FamilyCredit) {
	m.FromDomainOrgAggregateRoot(c.OrgAggregateRoot)
	m.ParentID = c.ParentID
	m.Amount = c.Amount
	m.RemainingAmount = c.RemainingAmount
	m.Status = c.Status
	m.Applications = c.Applications
	m.ExpiresAt = c.ExpiresAt
}

// FamilyCreditModelFromDomain creates a new persistence model from a domain FamilyCredit
func FamilyCreditModelFromDomain(c *fee.FamilyCredit) *FamilyCreditModel {
	m := &FamilyCreditModel{}
	m.FromDomain(c)
	return m
}
