package fee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a StudentFee
type Status string

const (
	StatusPending       Status = "pending"
	StatusPartiallyPaid Status = "partially_paid"
	StatusOverdue       Status = "overdue"
	StatusPaid          Status = "paid"
	StatusWaived        Status = "waived"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPartiallyPaid, StatusOverdue, StatusPaid, StatusWaived:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsUnpaid returns true for statuses that still carry a collectable balance
func (s Status) IsUnpaid() bool {
	return s == StatusPending || s == StatusOverdue || s == StatusPartiallyPaid
}

// IsSettled returns true for paid and waived. A due-date edit alone never
// reopens a settled fee.
func (s Status) IsSettled() bool {
	return s == StatusPaid || s == StatusWaived
}

// collectionPriority orders unpaid statuses for the receivables view
func (s Status) collectionPriority() int {
	switch s {
	case StatusOverdue:
		return 0
	case StatusPartiallyPaid:
		return 1
	case StatusPending:
		return 2
	}
	return 3
}

// ClassifyStatus derives a fee's status from its next outstanding balance,
// the amount paid so far and its due date. It is the only place status is
// computed; every mutation calls it instead of setting status by hand.
//
// A zero balance with money received is paid. A zero or negative balance
// without money received (full waiver, or rounding past zero) is waived.
// Due dates are compared by calendar day only.
func ClassifyStatus(dueDate *time.Time, nextOutstanding, amountPaid decimal.Decimal, today time.Time) Status {
	if !nextOutstanding.IsPositive() {
		if nextOutstanding.IsZero() && amountPaid.IsPositive() {
			return StatusPaid
		}
		return StatusWaived
	}
	if amountPaid.IsPositive() {
		return StatusPartiallyPaid
	}
	if dueDate != nil && civilDay(*dueDate) < civilDay(today) {
		return StatusOverdue
	}
	return StatusPending
}

// civilDay packs the calendar date of t, as seen in t's own location, into
// a sortable integer.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// MonthStart returns the first day of t's month at midnight in t's location
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// Today returns the local calendar day at midnight
func Today() time.Time {
	now := time.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// SameMonth reports whether a and b fall in the same calendar month
func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
