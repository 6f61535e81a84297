package emissions

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsaielHummadi/Sustain/constants"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)

	assert.True(t, s.Total.IsZero())
	assert.True(t, s.Scope1.IsZero())
	assert.True(t, s.Scope2.IsZero())
	assert.Empty(t, s.BySource)
	assert.Empty(t, s.ByPeriod)
	assert.Empty(t, s.ByFactory)
}

func TestAggregateScopePartition(t *testing.T) {
	rows := []Row{
		{FactoryID: 1, SourceName: "Diesel", Scope: constants.Scope1, Year: 2026, Month: 1, Quantity: dec("100"), Factor: dec("2.68")},
		{FactoryID: 1, SourceName: "Purchased Electricity", Scope: constants.Scope2, Year: 2026, Month: 1, Quantity: dec("500"), Factor: dec("0.5")},
		{FactoryID: 2, SourceName: "Diesel", Scope: constants.Scope1, Year: 2026, Month: 2, Quantity: dec("50"), Factor: dec("2.68")},
	}

	s := Aggregate(rows)

	require.True(t, s.Total.Equal(dec("652")), "total was %s", s.Total)
	assert.True(t, s.Scope1.Equal(dec("402")))
	assert.True(t, s.Scope2.Equal(dec("250")))
	assert.True(t, s.Scope1.Add(s.Scope2).Equal(s.Total))
}

func TestAggregateUnknownScopeCountsTowardTotalOnly(t *testing.T) {
	rows := []Row{
		{FactoryID: 1, SourceName: "Business Travel", Scope: "Scope 3", Year: 2026, Month: 3, Quantity: dec("10"), Factor: dec("1.5")},
		{FactoryID: 1, SourceName: "Diesel", Scope: constants.Scope1, Year: 2026, Month: 3, Quantity: dec("1"), Factor: dec("2.68")},
	}

	s := Aggregate(rows)

	assert.True(t, s.Total.Equal(dec("17.68")))
	assert.True(t, s.Scope1.Equal(dec("2.68")))
	assert.True(t, s.Scope2.IsZero())

	// The named groupings still see every row.
	sum := decimal.Zero
	for _, v := range s.BySource {
		sum = sum.Add(v)
	}
	assert.True(t, sum.Equal(s.Total))
}

func TestAggregateGroupings(t *testing.T) {
	rows := []Row{
		{FactoryID: 1, SourceName: "Diesel", Scope: constants.Scope1, Year: 2026, Month: 1, Quantity: dec("10"), Factor: dec("2")},
		{FactoryID: 1, SourceName: "Diesel", Scope: constants.Scope1, Year: 2026, Month: 2, Quantity: dec("5"), Factor: dec("2")},
		{FactoryID: 2, SourceName: "Natural Gas", Scope: constants.Scope1, Year: 2026, Month: 1, Quantity: dec("3"), Factor: dec("2")},
	}

	s := Aggregate(rows)

	assert.True(t, s.BySource["Diesel"].Equal(dec("30")))
	assert.True(t, s.BySource["Natural Gas"].Equal(dec("6")))
	assert.True(t, s.ByPeriod["2026-01"].Equal(dec("26")))
	assert.True(t, s.ByPeriod["2026-02"].Equal(dec("10")))
	assert.True(t, s.ByFactory[1].Equal(dec("30")))
	assert.True(t, s.ByFactory[2].Equal(dec("6")))
}

func TestAggregateDecimalPrecision(t *testing.T) {
	// Values chosen to drift under binary floating point.
	rows := []Row{
		{FactoryID: 1, SourceName: "A", Scope: constants.Scope1, Year: 2026, Month: 1, Quantity: dec("0.1"), Factor: dec("3")},
		{FactoryID: 1, SourceName: "A", Scope: constants.Scope1, Year: 2026, Month: 2, Quantity: dec("0.2"), Factor: dec("3")},
	}

	s := Aggregate(rows)
	assert.True(t, s.Total.Equal(dec("0.9")), "total was %s", s.Total)
}

func TestPeriodKeyZeroPadsMonth(t *testing.T) {
	assert.Equal(t, "2026-03", PeriodKey(2026, 3))
	assert.Equal(t, "2026-11", PeriodKey(2026, 11))
}
