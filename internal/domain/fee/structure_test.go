package fee

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func structure(name string, effective *time.Time, created time.Time, minAge, maxAge *int) FeeStructure {
	return FeeStructure{
		ID:            uuid.New(),
		Source:        SourceCanonical,
		Name:          name,
		Category:      CategoryTuition,
		Frequency:     FrequencyMonthly,
		Amount:        dec("400"),
		MinAgeMonths:  minAge,
		MaxAgeMonths:  maxAge,
		EffectiveFrom: effective,
		IsActive:      true,
		CreatedAt:     created,
	}
}

func TestAgeInMonths(t *testing.T) {
	dob := day(2022, 5, 15)

	assert.Equal(t, 45, AgeInMonths(dob, day(2026, 3, 1)))
	assert.Equal(t, 46, AgeInMonths(dob, day(2026, 3, 15)))
	assert.Equal(t, 0, AgeInMonths(dob, day(2021, 1, 1)))
}

func TestSortStructures_NewestEffectiveThenCreated(t *testing.T) {
	older := structure("older", datePtr(day(2025, 1, 1)), day(2025, 1, 1), nil, nil)
	newerA := structure("newer-a", datePtr(day(2026, 1, 1)), day(2025, 12, 1), nil, nil)
	newerB := structure("newer-b", datePtr(day(2026, 1, 1)), day(2025, 12, 20), nil, nil)
	undated := structure("undated", nil, day(2026, 2, 1), nil, nil)

	list := []FeeStructure{undated, older, newerA, newerB}
	SortStructures(list)

	names := []string{list[0].Name, list[1].Name, list[2].Name, list[3].Name}
	assert.Equal(t, []string{"newer-b", "newer-a", "older", "undated"}, names)
}

func TestSelectStructure(t *testing.T) {
	asOf := day(2026, 3, 1)
	toddler := structure("Toddler Class", datePtr(day(2025, 9, 1)), day(2025, 8, 1), intPtr(12), intPtr(35))
	preschool := structure("Preschool", datePtr(day(2025, 9, 1)), day(2025, 8, 2), intPtr(36), intPtr(59))
	preschool.Description = "Kindergarten one"
	future := structure("Next Year", datePtr(day(2026, 9, 1)), day(2026, 1, 1), nil, nil)
	inactive := structure("Retired", datePtr(day(2025, 1, 1)), day(2025, 1, 1), nil, nil)
	inactive.IsActive = false

	candidates := []FeeStructure{toddler, preschool, future, inactive}

	t.Run("hint wins", func(t *testing.T) {
		got := SelectStructure(candidates, Selection{ClassNameHint: "toddler", AsOf: asOf, DateOfBirth: datePtr(day(2022, 1, 1))})
		require.NotNil(t, got)
		assert.Equal(t, "Toddler Class", got.Name)
	})

	t.Run("hint matches description", func(t *testing.T) {
		got := SelectStructure(candidates, Selection{ClassNameHint: "KINDERGARTEN", AsOf: asOf})
		require.NotNil(t, got)
		assert.Equal(t, "Preschool", got.Name)
	})

	t.Run("age eligibility", func(t *testing.T) {
		got := SelectStructure(candidates, Selection{DateOfBirth: datePtr(day(2024, 6, 1)), AsOf: asOf})
		require.NotNil(t, got)
		assert.Equal(t, "Toddler Class", got.Name)
	})

	t.Run("falls back to first when nothing matches", func(t *testing.T) {
		got := SelectStructure(candidates, Selection{DateOfBirth: datePtr(day(2015, 1, 1)), ClassNameHint: "grade 9", AsOf: asOf})
		require.NotNil(t, got)
		assert.Equal(t, "Preschool", got.Name)
	})

	t.Run("future and inactive ignored", func(t *testing.T) {
		got := SelectStructure([]FeeStructure{future, inactive}, Selection{AsOf: asOf})
		assert.Nil(t, got)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, SelectStructure(nil, Selection{AsOf: asOf}))
	})
}

func TestSelectByAgeBand_NoFallback(t *testing.T) {
	band := structure("Infants", nil, day(2025, 1, 1), intPtr(0), intPtr(11))
	dob := day(2025, 6, 10)

	got := SelectByAgeBand([]FeeStructure{band}, dob, day(2026, 3, 1))
	require.NotNil(t, got)
	assert.Equal(t, "Infants", got.Name)

	assert.Nil(t, SelectByAgeBand([]FeeStructure{band}, dob, day(2026, 7, 1)))
}

func TestFeeStructure_LinkID(t *testing.T) {
	canonical := structure("Canonical", nil, day(2025, 1, 1), nil, nil)
	assert.True(t, canonical.NeedsLegacyBridge())
	_, ok := canonical.LinkID()
	assert.False(t, ok)

	legacyID := uuid.New()
	canonical.LegacyID = &legacyID
	id, ok := canonical.LinkID()
	assert.True(t, ok)
	assert.Equal(t, legacyID, id)

	legacy := FeeStructure{ID: uuid.New(), Source: SourceLegacy}
	id, ok = legacy.LinkID()
	assert.True(t, ok)
	assert.Equal(t, legacy.ID, id)
	assert.False(t, legacy.NeedsLegacyBridge())
}
