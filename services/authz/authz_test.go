package authz

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/invitation"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/user"
)

var authzDBSeq atomic.Int64

func authzTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:authz%d?mode=memory&cache=shared", authzDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&organization.Organization{},
		&user.Role{},
		&user.User{},
		&factory.Factory{},
		&emission.EmissionSource{},
		&emission.EmissionRecord{},
		&invitation.Invitation{},
	))
	return db
}

func bindOperator(t *testing.T, db *gorm.DB, userID, orgID, factoryID uint) {
	t.Helper()
	acceptedAt := time.Now()
	inv := invitation.Invitation{
		OrganizationID: orgID,
		RoleID:         constants.RoleFactoryOperator,
		FactoryID:      &factoryID,
		UserID:         &userID,
		InvitedEmail:   fmt.Sprintf("op%d@example.com", userID),
		Token:          fmt.Sprintf("token-%d", userID),
		Status:         constants.InvitationStatusAccepted,
		Expiration:     acceptedAt,
		AcceptedAt:     &acceptedAt,
	}
	require.NoError(t, db.Create(&inv).Error)
}

func addRecord(t *testing.T, db *gorm.DB, orgID, factoryID, sourceID uint, month int) {
	t.Helper()
	rec := emission.EmissionRecord{
		OrganizationID:   orgID,
		FactoryID:        factoryID,
		EmissionSourceID: sourceID,
		UserID:           1,
		Year:             2026,
		Month:            month,
	}
	require.NoError(t, db.Create(&rec).Error)
}

func TestAssignedFactoryIDWithoutInvitation(t *testing.T) {
	db := authzTestDB(t)
	ctx := Context{UserID: 7, OrganizationID: 1, RoleID: constants.RoleFactoryOperator}

	id, err := AssignedFactoryID(db, ctx)
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestRecordScopeUnboundOperatorSeesNothing(t *testing.T) {
	db := authzTestDB(t)
	addRecord(t, db, 1, 1, 1, 1)
	ctx := Context{UserID: 7, OrganizationID: 1, RoleID: constants.RoleFactoryOperator}

	scope, err := RecordScope(db, ctx)
	require.NoError(t, err)

	var records []emission.EmissionRecord
	require.NoError(t, db.Scopes(scope).Find(&records).Error)
	assert.Empty(t, records)
}

func TestRecordScopeBoundOperatorSeesOwnFactoryOnly(t *testing.T) {
	db := authzTestDB(t)
	addRecord(t, db, 1, 1, 1, 1)
	addRecord(t, db, 1, 2, 1, 1)
	bindOperator(t, db, 7, 1, 1)
	ctx := Context{UserID: 7, OrganizationID: 1, RoleID: constants.RoleFactoryOperator}

	scope, err := RecordScope(db, ctx)
	require.NoError(t, err)

	var records []emission.EmissionRecord
	require.NoError(t, db.Scopes(scope).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, uint(1), records[0].FactoryID)
}

func TestRecordScopeOrgWideRolesSeeWholeOrganization(t *testing.T) {
	db := authzTestDB(t)
	addRecord(t, db, 1, 1, 1, 1)
	addRecord(t, db, 1, 2, 1, 1)
	addRecord(t, db, 2, 3, 1, 1)

	for _, roleID := range []int{constants.RoleAdministrator, constants.RoleSustainabilityOfficer} {
		ctx := Context{UserID: 1, OrganizationID: 1, RoleID: roleID}
		scope, err := RecordScope(db, ctx)
		require.NoError(t, err)

		var records []emission.EmissionRecord
		require.NoError(t, db.Scopes(scope).Find(&records).Error)
		assert.Len(t, records, 2, "role %d", roleID)
	}
}

func TestSourceScopeShowsGlobalAndOwn(t *testing.T) {
	db := authzTestDB(t)
	own := uint(1)
	other := uint(2)
	pending := constants.RequestStatusPending
	require.NoError(t, db.Create(&emission.EmissionSource{Name: "Diesel", Scope: constants.Scope1, Unit: "L", IsActive: true}).Error)
	require.NoError(t, db.Create(&emission.EmissionSource{OrganizationID: &own, Name: "Kiln Gas", Scope: constants.Scope1, Unit: "m3", IsActive: true}).Error)
	require.NoError(t, db.Create(&emission.EmissionSource{OrganizationID: &own, Name: "Requested", Scope: constants.Scope1, Unit: "kg", IsRequested: true, RequestStatus: &pending}).Error)
	require.NoError(t, db.Create(&emission.EmissionSource{OrganizationID: &other, Name: "Foreign", Scope: constants.Scope1, Unit: "kg", IsActive: true}).Error)

	var sources []emission.EmissionSource
	require.NoError(t, db.Scopes(SourceScope(own)).Find(&sources).Error)

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"Diesel", "Kiln Gas", "Requested"}, names)
}

func TestCanMutateSource(t *testing.T) {
	own := uint(1)
	other := uint(2)
	ctx := Context{UserID: 1, OrganizationID: 1, RoleID: constants.RoleAdministrator}

	assert.False(t, CanMutateSource(emission.EmissionSource{OrganizationID: nil}, ctx), "global sources are read-only")
	assert.True(t, CanMutateSource(emission.EmissionSource{OrganizationID: &own}, ctx))
	assert.False(t, CanMutateSource(emission.EmissionSource{OrganizationID: &other}, ctx))
}

func TestFactoryScopeForBoundOperator(t *testing.T) {
	db := authzTestDB(t)
	require.NoError(t, db.Create(&factory.Factory{OrganizationID: 1, Name: "Plant A", Code: "PA-01"}).Error)
	require.NoError(t, db.Create(&factory.Factory{OrganizationID: 1, Name: "Plant B", Code: "PB-01"}).Error)
	bindOperator(t, db, 7, 1, 2)
	ctx := Context{UserID: 7, OrganizationID: 1, RoleID: constants.RoleFactoryOperator}

	scope, err := FactoryScope(db, ctx)
	require.NoError(t, err)

	var factories []factory.Factory
	require.NoError(t, db.Scopes(scope).Find(&factories).Error)
	require.Len(t, factories, 1)
	assert.Equal(t, "Plant B", factories[0].Name)
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, Context{RoleID: constants.RoleAdministrator}.IsAdministrator())
	assert.True(t, Context{RoleID: constants.RoleAdministrator}.CanViewOrgWide())
	assert.True(t, Context{RoleID: constants.RoleSustainabilityOfficer}.CanViewOrgWide())
	assert.False(t, Context{RoleID: constants.RoleFactoryOperator}.CanViewOrgWide())
}
