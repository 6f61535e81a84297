package emissions

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/types"
)

// EnsurePeriodUnique rejects a write that would duplicate the
// (organization, factory, source, year, month) tuple. Pass excludeID on
// updates so a record does not collide with itself. This pre-check exists for
// the friendly error; the composite unique index on emission_records is the
// authority under concurrency (see TranslateWriteError).
func EnsurePeriodUnique(db *gorm.DB, organizationID, factoryID, sourceID uint, year, month int, excludeID uint) error {
	q := db.Model(&emission.EmissionRecord{}).
		Where("organization_id = ? AND factory_id = ? AND emission_source_id = ? AND year = ? AND month = ?",
			organizationID, factoryID, sourceID, year, month)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return types.ErrDuplicateRecord
	}
	return nil
}

// TranslateWriteError maps a storage duplicate-key failure on the period index
// to the same domain error the pre-check produces, so a concurrent duplicate
// create surfaces as "duplicate period entry" rather than a generic failure.
func TranslateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return types.ErrDuplicateRecord
	}
	return err
}
