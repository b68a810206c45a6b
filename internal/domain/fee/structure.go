package fee

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingFrequency is how often a structure bills
type BillingFrequency string

const (
	FrequencyMonthly BillingFrequency = "monthly"
	FrequencyTermly  BillingFrequency = "termly"
	FrequencyAnnual  BillingFrequency = "annual"
	FrequencyOnce    BillingFrequency = "one_time"
)

// StructureSource names the table a FeeStructure was read from
type StructureSource string

const (
	SourceCanonical StructureSource = "canonical"
	SourceLegacy    StructureSource = "legacy"
)

// FeeStructure is a priced template from which StudentFee rows are generated
type FeeStructure struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	Source        StructureSource
	LegacyID      *uuid.UUID
	CanonicalID   *uuid.UUID
	Name          string
	Description   string
	GradeLevel    string
	Category      Category
	Frequency     BillingFrequency
	Amount        decimal.Decimal
	MinAgeMonths  *int
	MaxAgeMonths  *int
	EffectiveFrom *time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// NeedsLegacyBridge is true for a canonical structure with no legacy twin.
// student_fees.fee_structure_id points at the legacy table, so such a
// structure cannot be linked until a bridge row exists.
func (s FeeStructure) NeedsLegacyBridge() bool {
	return s.Source == SourceCanonical && s.LegacyID == nil
}

// LinkID returns the id that student_fees.fee_structure_id should carry
func (s FeeStructure) LinkID() (uuid.UUID, bool) {
	if s.LegacyID != nil {
		return *s.LegacyID, true
	}
	if s.Source == SourceLegacy {
		return s.ID, true
	}
	return uuid.Nil, false
}

// MatchesHint reports a case-insensitive substring match of hint against the
// structure's name, description or grade level.
func (s FeeStructure) MatchesHint(hint string) bool {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s.Name), h) ||
		strings.Contains(strings.ToLower(s.Description), h) ||
		strings.Contains(strings.ToLower(s.GradeLevel), h)
}

// HasAgeWindow reports whether the structure restricts by age
func (s FeeStructure) HasAgeWindow() bool {
	return s.MinAgeMonths != nil || s.MaxAgeMonths != nil
}

// CoversAge reports whether ageMonths falls inside the inclusive age window.
// Structures without a window cover no specific age.
func (s FeeStructure) CoversAge(ageMonths int) bool {
	if !s.HasAgeWindow() {
		return false
	}
	if s.MinAgeMonths != nil && ageMonths < *s.MinAgeMonths {
		return false
	}
	if s.MaxAgeMonths != nil && ageMonths > *s.MaxAgeMonths {
		return false
	}
	return true
}

// EffectiveAt reports whether the structure is active and in effect on day
func (s FeeStructure) EffectiveAt(day time.Time) bool {
	if !s.IsActive {
		return false
	}
	return s.EffectiveFrom == nil || civilDay(*s.EffectiveFrom) <= civilDay(day)
}

// SortStructures orders newest effective_from first, undated last, with ties
// broken by newest created_at.
func SortStructures(list []FeeStructure) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.EffectiveFrom != nil && b.EffectiveFrom == nil:
			return true
		case a.EffectiveFrom == nil && b.EffectiveFrom != nil:
			return false
		case a.EffectiveFrom != nil && !a.EffectiveFrom.Equal(*b.EffectiveFrom):
			return a.EffectiveFrom.After(*b.EffectiveFrom)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// AgeInMonths returns whole months elapsed between dob and at
func AgeInMonths(dob, at time.Time) int {
	dy, dm, dd := dob.Date()
	ay, am, ad := at.Date()
	months := (ay-dy)*12 + int(am) - int(dm)
	if ad < dd {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Selection describes the student being priced
type Selection struct {
	DateOfBirth    *time.Time
	EnrollmentDate *time.Time
	ClassNameHint  string
	AsOf           time.Time
}

// SelectStructure picks one structure from candidates.
//
// Candidates not in effect at AsOf are dropped and the rest are ordered
// newest first. A class-name hint wins when any structure matches it;
// otherwise the first structure whose age window covers the student is
// taken, and failing that the first structure overall.
func SelectStructure(candidates []FeeStructure, sel Selection) *FeeStructure {
	asOf := sel.AsOf
	if asOf.IsZero() {
		asOf = Today()
	}
	inEffect := make([]FeeStructure, 0, len(candidates))
	for _, c := range candidates {
		if c.EffectiveAt(asOf) {
			inEffect = append(inEffect, c)
		}
	}
	if len(inEffect) == 0 {
		return nil
	}
	SortStructures(inEffect)

	if strings.TrimSpace(sel.ClassNameHint) != "" {
		for i := range inEffect {
			if inEffect[i].MatchesHint(sel.ClassNameHint) {
				return &inEffect[i]
			}
		}
	}

	if sel.DateOfBirth != nil {
		ref := asOf
		if sel.EnrollmentDate != nil && sel.EnrollmentDate.After(ref) {
			ref = *sel.EnrollmentDate
		}
		age := AgeInMonths(*sel.DateOfBirth, ref)
		for i := range inEffect {
			if inEffect[i].CoversAge(age) {
				return &inEffect[i]
			}
		}
	}

	return &inEffect[0]
}

// SelectByAgeBand picks the first structure whose age window covers the
// student at billingMonth. Unlike SelectStructure there is no fallback.
func SelectByAgeBand(candidates []FeeStructure, dob, billingMonth time.Time) *FeeStructure {
	age := AgeInMonths(dob, billingMonth)
	list := make([]FeeStructure, 0, len(candidates))
	for _, c := range candidates {
		if c.EffectiveAt(billingMonth) {
			list = append(list, c)
		}
	}
	SortStructures(list)
	for i := range list {
		if list[i].CoversAge(age) {
			return &list[i]
		}
	}
	return nil
}
