// Package emissions computes emission totals and breakdowns, and guards the
// one-record-per-period invariant.
package emissions

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/models/emission"
)

// Row is the joined read-model consumed by Aggregate: one emission record with
// the factor and scope of its source already attached. Callers are expected to
// have applied the authorization scope to the query that produced it.
type Row struct {
	FactoryID  uint            `json:"factory_id"`
	SourceName string          `json:"source_name"`
	Scope      string          `json:"scope"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Quantity   decimal.Decimal `json:"quantity"`
	Factor     decimal.Decimal `json:"factor"`
}

// Emissions is quantity x factor at full decimal precision.
func (r Row) Emissions() decimal.Decimal {
	return r.Factor.Mul(r.Quantity)
}

// Summary is the typed aggregation result. Totals carry full precision;
// rounding happens at the presentation boundary.
type Summary struct {
	Total     decimal.Decimal            `json:"total"`
	Scope1    decimal.Decimal            `json:"scope1"`
	Scope2    decimal.Decimal            `json:"scope2"`
	BySource  map[string]decimal.Decimal `json:"by_source"`
	ByPeriod  map[string]decimal.Decimal `json:"by_period"`
	ByFactory map[uint]decimal.Decimal   `json:"by_factory"`
}

// Aggregate reduces a row set into totals and groupings. It is a pure function
// of its input: empty input yields zero totals and empty maps, never an error.
// Scope tags other than "Scope 1" and "Scope 2" count toward Total only.
func Aggregate(rows []Row) Summary {
	s := Summary{
		Total:     decimal.Zero,
		Scope1:    decimal.Zero,
		Scope2:    decimal.Zero,
		BySource:  make(map[string]decimal.Decimal, len(rows)),
		ByPeriod:  make(map[string]decimal.Decimal, len(rows)),
		ByFactory: make(map[uint]decimal.Decimal, len(rows)),
	}

	for _, row := range rows {
		e := row.Emissions()
		s.Total = s.Total.Add(e)

		switch row.Scope {
		case constants.Scope1:
			s.Scope1 = s.Scope1.Add(e)
		case constants.Scope2:
			s.Scope2 = s.Scope2.Add(e)
		}

		s.BySource[row.SourceName] = s.BySource[row.SourceName].Add(e)
		period := PeriodKey(row.Year, row.Month)
		s.ByPeriod[period] = s.ByPeriod[period].Add(e)
		s.ByFactory[row.FactoryID] = s.ByFactory[row.FactoryID].Add(e)
	}

	return s
}

// PeriodKey formats a reporting period as "YYYY-MM" with a zero-padded month.
func PeriodKey(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// Rows loads the joined read-model for aggregation. The caller applies the
// authorization scope (and any filters) to db before calling.
func Rows(db *gorm.DB) ([]Row, error) {
	var rows []Row
	err := db.Model(&emission.EmissionRecord{}).
		Select(`emission_records.factory_id,
			emission_sources.name AS source_name,
			emission_sources.scope,
			emission_records.year,
			emission_records.month,
			emission_records.quantity,
			emission_sources.emission_factor AS factor`).
		Joins("JOIN emission_sources ON emission_sources.id = emission_records.emission_source_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
