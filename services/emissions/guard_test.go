package emissions

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/user"
	"github.com/AsaielHummadi/Sustain/types"
)

var guardDBSeq atomic.Int64

func guardTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:guard%d?mode=memory&cache=shared", guardDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&organization.Organization{},
		&user.Role{},
		&user.User{},
		&factory.Factory{},
		&emission.EmissionSource{},
		&emission.EmissionRecord{},
	))
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, factoryID, sourceID uint, year, month int) emission.EmissionRecord {
	t.Helper()
	rec := emission.EmissionRecord{
		OrganizationID:   1,
		FactoryID:        factoryID,
		EmissionSourceID: sourceID,
		UserID:           1,
		Year:             year,
		Month:            month,
	}
	require.NoError(t, db.Create(&rec).Error)
	return rec
}

func TestEnsurePeriodUniqueRejectsDuplicate(t *testing.T) {
	db := guardTestDB(t)
	seedRecord(t, db, 1, 1, 2026, 5)

	err := EnsurePeriodUnique(db, 1, 1, 1, 2026, 5, 0)
	require.ErrorIs(t, err, types.ErrDuplicateRecord)
}

func TestEnsurePeriodUniqueAllowsDifferentTuple(t *testing.T) {
	db := guardTestDB(t)
	seedRecord(t, db, 1, 1, 2026, 5)

	require.NoError(t, EnsurePeriodUnique(db, 1, 1, 1, 2026, 6, 0))
	require.NoError(t, EnsurePeriodUnique(db, 1, 1, 2, 2026, 5, 0))
	require.NoError(t, EnsurePeriodUnique(db, 1, 2, 1, 2026, 5, 0))
	require.NoError(t, EnsurePeriodUnique(db, 2, 1, 1, 2026, 5, 0))
}

func TestEnsurePeriodUniqueExcludesSelfOnUpdate(t *testing.T) {
	db := guardTestDB(t)
	rec := seedRecord(t, db, 1, 1, 2026, 5)
	other := seedRecord(t, db, 1, 1, 2026, 6)

	// Saving a record with its own, unchanged period passes.
	require.NoError(t, EnsurePeriodUnique(db, 1, 1, 1, 2026, 5, rec.ID))

	// Moving it onto another record's period does not.
	err := EnsurePeriodUnique(db, 1, 1, 1, 2026, 6, rec.ID)
	require.ErrorIs(t, err, types.ErrDuplicateRecord)

	_ = other
}

func TestUniqueIndexBacksTheGuard(t *testing.T) {
	db := guardTestDB(t)
	seedRecord(t, db, 1, 1, 2026, 5)

	dup := emission.EmissionRecord{
		OrganizationID:   1,
		FactoryID:        1,
		EmissionSourceID: 1,
		UserID:           2,
		Year:             2026,
		Month:            5,
	}
	err := db.Create(&dup).Error
	require.Error(t, err)
	require.ErrorIs(t, TranslateWriteError(err), types.ErrDuplicateRecord)
}

func TestTranslateWriteErrorPassesOthersThrough(t *testing.T) {
	require.NoError(t, TranslateWriteError(nil))
	require.ErrorIs(t, TranslateWriteError(gorm.ErrInvalidData), gorm.ErrInvalidData)
}
