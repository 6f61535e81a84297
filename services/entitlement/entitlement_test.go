package entitlement

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
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/subscription"
	"github.com/AsaielHummadi/Sustain/models/user"
)

var entDBSeq atomic.Int64

func entTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ent%d?mode=memory&cache=shared", entDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&organization.Organization{},
		&user.Role{},
		&user.User{},
		&factory.Factory{},
		&subscription.SubscriptionPlan{},
		&subscription.Subscription{},
	))
	return db
}

func seedPlan(t *testing.T, db *gorm.DB, userMax, factoryMax *int) subscription.SubscriptionPlan {
	t.Helper()
	plan := subscription.SubscriptionPlan{
		Name:       "Test Plan",
		Type:       constants.PlanTypePaid,
		UserMax:    userMax,
		FactoryMax: factoryMax,
		Duration:   12,
	}
	require.NoError(t, db.Create(&plan).Error)
	return plan
}

func seedSubscription(t *testing.T, db *gorm.DB, orgID, planID uint, status string, start time.Time) subscription.Subscription {
	t.Helper()
	sub := subscription.Subscription{
		OrganizationID:     orgID,
		SubscriptionPlanID: planID,
		StartDate:          start,
		EndDate:            start.AddDate(1, 0, 0),
		Status:             status,
	}
	require.NoError(t, db.Create(&sub).Error)
	return sub
}

func seedMember(t *testing.T, db *gorm.DB, orgID uint, email, status string) user.User {
	t.Helper()
	u := user.User{
		OrganizationID: orgID,
		RoleID:         constants.RoleSustainabilityOfficer,
		FirstName:      "Member",
		Email:          email,
		Password:       "x",
		Status:         status,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func capPtr(v int) *int { return &v }

func TestNoActiveSubscriptionDeniesEverything(t *testing.T) {
	db := entTestDB(t)
	svc := NewService(db)

	okUser, err := svc.CanCreateUser(1)
	require.NoError(t, err)
	assert.False(t, okUser)

	okFactory, err := svc.CanCreateFactory(1)
	require.NoError(t, err)
	assert.False(t, okFactory)
}

func TestExpiredSubscriptionDoesNotCount(t *testing.T) {
	db := entTestDB(t)
	plan := seedPlan(t, db, capPtr(10), capPtr(10))
	seedSubscription(t, db, 1, plan.ID, constants.SubscriptionStatusExpired, time.Now().AddDate(-1, 0, 0))
	svc := NewService(db)

	sub, err := svc.ActiveSubscription(1)
	require.NoError(t, err)
	assert.Nil(t, sub)

	ok, err := svc.CanCreateUser(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilCapMeansZeroNotUnlimited(t *testing.T) {
	db := entTestDB(t)
	plan := seedPlan(t, db, nil, nil)
	seedSubscription(t, db, 1, plan.ID, constants.SubscriptionStatusActive, time.Now())
	svc := NewService(db)

	okUser, err := svc.CanCreateUser(1)
	require.NoError(t, err)
	assert.False(t, okUser)

	okFactory, err := svc.CanCreateFactory(1)
	require.NoError(t, err)
	assert.False(t, okFactory)
}

func TestUserCapBoundary(t *testing.T) {
	db := entTestDB(t)
	plan := seedPlan(t, db, capPtr(2), capPtr(5))
	seedSubscription(t, db, 1, plan.ID, constants.SubscriptionStatusActive, time.Now())
	svc := NewService(db)

	seedMember(t, db, 1, "one@example.com", constants.UserStatusActive)

	ok, err := svc.CanCreateUser(1)
	require.NoError(t, err)
	assert.True(t, ok, "one member under a cap of two should allow")

	// Inactive members still occupy a seat.
	seedMember(t, db, 1, "two@example.com", constants.UserStatusInactive)

	ok, err = svc.CanCreateUser(1)
	require.NoError(t, err)
	assert.False(t, ok, "at the cap the next create is denied")
}

func TestFactoryCapFreesUpAfterDelete(t *testing.T) {
	db := entTestDB(t)
	plan := seedPlan(t, db, capPtr(5), capPtr(2))
	seedSubscription(t, db, 1, plan.ID, constants.SubscriptionStatusActive, time.Now())
	svc := NewService(db)

	f1 := factory.Factory{OrganizationID: 1, Name: "Plant A", Code: "PA-01"}
	f2 := factory.Factory{OrganizationID: 1, Name: "Plant B", Code: "PB-01"}
	require.NoError(t, db.Create(&f1).Error)
	require.NoError(t, db.Create(&f2).Error)

	ok, err := svc.CanCreateFactory(1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Delete(&f2).Error)

	ok, err = svc.CanCreateFactory(1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestActiveSubscriptionPrefersMostRecentStart(t *testing.T) {
	db := entTestDB(t)
	old := seedPlan(t, db, capPtr(3), capPtr(1))
	fresh := seedPlan(t, db, capPtr(25), capPtr(10))
	seedSubscription(t, db, 1, old.ID, constants.SubscriptionStatusActive, time.Now().AddDate(0, -6, 0))
	seedSubscription(t, db, 1, fresh.ID, constants.SubscriptionStatusActive, time.Now())
	svc := NewService(db)

	sub, err := svc.ActiveSubscription(1)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, fresh.ID, sub.SubscriptionPlanID)
}

func TestOtherOrganizationsDoNotLeakIntoCounts(t *testing.T) {
	db := entTestDB(t)
	plan := seedPlan(t, db, capPtr(2), capPtr(2))
	seedSubscription(t, db, 1, plan.ID, constants.SubscriptionStatusActive, time.Now())
	svc := NewService(db)

	seedMember(t, db, 2, "neighbor@example.com", constants.UserStatusActive)
	require.NoError(t, db.Create(&factory.Factory{OrganizationID: 2, Name: "Other", Code: "OT-01"}).Error)

	limits, err := svc.GetLimits(1)
	require.NoError(t, err)
	assert.Equal(t, 0, limits.Users)
	assert.Equal(t, 0, limits.Factories)
	assert.Equal(t, 2, limits.MaxUsers)
	assert.Equal(t, 2, limits.MaxFactories)
}
