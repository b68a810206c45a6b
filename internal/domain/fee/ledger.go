package fee

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ReportingKind selects the window a ledger total is computed over
type ReportingKind string

const (
	ReportingAllTime          ReportingKind = "all_time"
	ReportingReceivablesMonth ReportingKind = "receivables_month"
)

// ReportingMode is a reporting window. Month is only read for receivables.
type ReportingMode struct {
	Kind  ReportingKind
	Month time.Time
}

// AllTime is the window of a student's own fee screen
func AllTime() ReportingMode {
	return ReportingMode{Kind: ReportingAllTime}
}

// ReceivablesMonth is the window of the organization-wide collections view
func ReceivablesMonth(month time.Time) ReportingMode {
	return ReportingMode{Kind: ReportingReceivablesMonth, Month: MonthStart(month)}
}

// Totals are the derived ledger sums for a set of fees
type Totals struct {
	Outstanding decimal.Decimal `json:"outstanding"`
	Paid        decimal.Decimal `json:"paid"`
	Waived      decimal.Decimal `json:"waived"`
}

// ComputeTotals sums outstanding, paid and waived amounts over fees.
//
// All-time mode drops fees due before the enrollment month and only counts
// an unpaid fee as outstanding once it is due. Receivables mode keeps the
// unpaid fees billed in the target month.
func ComputeTotals(fees []StudentFee, enrollmentDate *time.Time, mode ReportingMode, today time.Time) Totals {
	totals := Totals{Outstanding: decimal.Zero, Paid: decimal.Zero, Waived: decimal.Zero}

	var scoped []StudentFee
	if mode.Kind == ReportingReceivablesMonth {
		scoped = ReceivablesForMonth(fees, mode.Month)
	} else {
		scoped = feesSinceEnrollment(fees, enrollmentDate)
	}

	for i := range scoped {
		f := &scoped[i]
		if f.Status.IsUnpaid() {
			if mode.Kind == ReportingReceivablesMonth || f.DueDate == nil || civilDay(*f.DueDate) <= civilDay(today) {
				totals.Outstanding = totals.Outstanding.Add(f.Outstanding())
			}
		}
		totals.Paid = totals.Paid.Add(paidContribution(f))
		if f.Status == StatusWaived || f.Discount().IsPositive() {
			totals.Waived = totals.Waived.Add(f.Discount())
		}
	}
	return totals
}

// paidContribution counts amount_paid, or final_amount for paid rows written
// before amount_paid was tracked.
func paidContribution(f *StudentFee) decimal.Decimal {
	if f.AmountPaid.IsPositive() {
		return f.AmountPaid
	}
	if f.Status == StatusPaid {
		return f.FinalAmount
	}
	return decimal.Zero
}

func feesSinceEnrollment(fees []StudentFee, enrollmentDate *time.Time) []StudentFee {
	if enrollmentDate == nil {
		return fees
	}
	cutoff := civilDay(MonthStart(*enrollmentDate))
	out := make([]StudentFee, 0, len(fees))
	for _, f := range fees {
		if f.DueDate != nil && civilDay(*f.DueDate) < cutoff {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ReceivablesForMonth returns the unpaid fees whose derived billing month is
// month, ordered overdue, partially paid, pending, then by due date.
func ReceivablesForMonth(fees []StudentFee, month time.Time) []StudentFee {
	out := make([]StudentFee, 0)
	for _, f := range fees {
		if !f.Status.IsUnpaid() {
			continue
		}
		bm := f.DerivedBillingMonth()
		if bm == nil || !SameMonth(*bm, month) {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Status.collectionPriority(), out[j].Status.collectionPriority()
		if pi != pj {
			return pi < pj
		}
		di, dj := out[i].DueDate, out[j].DueDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		}
		return di.Before(*dj)
	})
	return out
}
