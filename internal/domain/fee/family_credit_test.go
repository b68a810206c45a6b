package fee

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCredit(t *testing.T, orgID uuid.UUID, amount string) *FamilyCredit {
	c, err := NewFamilyCredit(orgID, uuid.New(), dec(amount))
	require.NoError(t, err)
	return c
}

func TestFamilyCredit_ApplyCapsAtOutstanding(t *testing.T) {
	f := createTestFee(t, "300", testToday.AddDate(0, 0, 5))
	c := createTestCredit(t, f.OrgID, "1000")

	applied, err := c.Apply(f, dec("500"), "sibling refund", nil, testToday)
	require.NoError(t, err)

	assert.True(t, applied.Equal(dec("300")))
	assert.True(t, c.RemainingAmount.Equal(dec("700")))
	assert.Equal(t, CreditStatusAvailable, c.Status)
	assert.Equal(t, StatusPaid, f.Status)
	assert.True(t, f.Outstanding().IsZero())
	require.Len(t, c.Applications, 1)
	assert.Equal(t, f.ID, c.Applications[0].StudentFeeID)
}

func TestFamilyCredit_ApplyExhaustsCredit(t *testing.T) {
	f := createTestFee(t, "300", testToday.AddDate(0, 0, 5))
	c := createTestCredit(t, f.OrgID, "120")

	applied, err := c.Apply(f, dec("200"), "", nil, testToday)
	require.NoError(t, err)

	assert.True(t, applied.Equal(dec("120")))
	assert.True(t, c.RemainingAmount.IsZero())
	assert.Equal(t, CreditStatusExhausted, c.Status)
	assert.Equal(t, StatusPartiallyPaid, f.Status)
	assert.True(t, f.Outstanding().Equal(dec("180")))

	_, err = c.Apply(f, dec("10"), "", nil, testToday)
	assert.ErrorIs(t, err, ErrCreditNotAvailable)
}

func TestFamilyCredit_ApplyRejections(t *testing.T) {
	f := createTestFee(t, "300", testToday)
	c := createTestCredit(t, f.OrgID, "100")

	_, err := c.Apply(f, dec("0"), "", nil, testToday)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	other := createTestCredit(t, uuid.New(), "100")
	_, err = other.Apply(f, dec("10"), "", nil, testToday)
	assert.Error(t, err)

	require.NoError(t, f.MarkPaid(testToday))
	_, err = c.Apply(f, dec("10"), "", nil, testToday)
	assert.ErrorIs(t, err, ErrFeeNotOutstanding)
	assert.True(t, c.RemainingAmount.Equal(dec("100")))
}

func TestCreditApplications_ScanValue(t *testing.T) {
	apps := CreditApplications{{ID: uuid.New(), StudentFeeID: uuid.New(), Amount: dec("12.50")}}
	raw, err := apps.Value()
	require.NoError(t, err)

	var back CreditApplications
	require.NoError(t, back.Scan(raw))
	require.Len(t, back, 1)
	assert.True(t, back[0].Amount.Equal(dec("12.50")))

	require.NoError(t, back.Scan(nil))
	assert.Empty(t, back)
}
