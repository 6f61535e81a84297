package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/invitation"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/subscription"
	"github.com/AsaielHummadi/Sustain/models/user"
	"github.com/AsaielHummadi/Sustain/services/entitlement"
	"github.com/AsaielHummadi/Sustain/types"
	"github.com/AsaielHummadi/Sustain/utils"
)

var ctrlDBSeq atomic.Int64

func ctrlTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:factoryctrl%d?mode=memory&cache=shared", ctrlDBSeq.Add(1))
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
		&subscription.SubscriptionPlan{},
		&subscription.Subscription{},
	))
	return db
}

func testApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	ctrl := NewFactoryController(db, entitlement.NewService(db), nil)

	api := app.Group("/api", middleware.RequireAuth())
	api.Get("/factories", ctrl.Index)
	api.Post("/factories", middleware.RequireRoles(constants.RoleAdministrator), ctrl.Create)
	api.Put("/factories/:id", middleware.RequireRoles(constants.RoleAdministrator), ctrl.Edit)
	api.Delete("/factories/:id", middleware.RequireRoles(constants.RoleAdministrator), ctrl.Delete)
	return app
}

func adminToken(t *testing.T, db *gorm.DB, orgID uint) string {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	admin := user.User{
		OrganizationID: orgID,
		RoleID:         constants.RoleAdministrator,
		FirstName:      "Admin",
		Email:          fmt.Sprintf("admin-org%d-%d@example.com", orgID, ctrlDBSeq.Load()),
		Password:       "x",
		Status:         constants.UserStatusActive,
	}
	require.NoError(t, db.Create(&admin).Error)

	token, err := utils.GenerateToken(admin)
	require.NoError(t, err)
	return token
}

func subscribe(t *testing.T, db *gorm.DB, orgID uint, factoryMax int) {
	t.Helper()
	plan := subscription.SubscriptionPlan{Name: "Test", Type: constants.PlanTypePaid, FactoryMax: &factoryMax, Duration: 12}
	require.NoError(t, db.Create(&plan).Error)
	require.NoError(t, db.Create(&subscription.Subscription{
		OrganizationID:     orgID,
		SubscriptionPlanID: plan.ID,
		StartDate:          time.Now(),
		EndDate:            time.Now().AddDate(1, 0, 0),
		Status:             constants.SubscriptionStatusActive,
	}).Error)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, types.ApiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed types.ApiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func TestCreateFactoryRequiresActiveSubscription(t *testing.T) {
	db := ctrlTestDB(t)
	app := testApp(db)
	token := adminToken(t, db, 1)

	resp, parsed := doJSON(t, app, fiber.MethodPost, "/api/factories", token, fiber.Map{
		"name": "Plant A",
		"code": "PA-01",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, types.ErrNoActiveSubscription.Error(), parsed.Message)
}

func TestCreateFactoryHonorsPlanCap(t *testing.T) {
	db := ctrlTestDB(t)
	app := testApp(db)
	token := adminToken(t, db, 1)
	subscribe(t, db, 1, 1)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/factories", token, fiber.Map{
		"name": "Plant A",
		"code": "PA-01",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, parsed := doJSON(t, app, fiber.MethodPost, "/api/factories", token, fiber.Map{
		"name": "Plant B",
		"code": "PB-01",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, types.ErrLimitReached.Error(), parsed.Message)
}

func TestCreateFactoryRejectsDuplicateCode(t *testing.T) {
	db := ctrlTestDB(t)
	app := testApp(db)
	token := adminToken(t, db, 1)
	subscribe(t, db, 1, 5)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/factories", token, fiber.Map{
		"name": "Plant A",
		"code": "PA-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, parsed := doJSON(t, app, fiber.MethodPost, "/api/factories", token, fiber.Map{
		"name": "Plant A Again",
		"code": "PA-01",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, types.ErrDuplicateFactoryCode.Error(), parsed.Message)
}

func TestDeleteFactoryBlockedByRecords(t *testing.T) {
	db := ctrlTestDB(t)
	app := testApp(db)
	token := adminToken(t, db, 1)

	fac := factory.Factory{OrganizationID: 1, Name: "Plant A", Code: "PA-01"}
	require.NoError(t, db.Create(&fac).Error)
	require.NoError(t, db.Create(&emission.EmissionRecord{
		OrganizationID:   1,
		FactoryID:        fac.ID,
		EmissionSourceID: 1,
		UserID:           1,
		Year:             2026,
		Month:            1,
	}).Error)

	resp, _ := doJSON(t, app, fiber.MethodDelete, fmt.Sprintf("/api/factories/%d", fac.ID), token, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var still int64
	require.NoError(t, db.Model(&factory.Factory{}).Where("id = ?", fac.ID).Count(&still).Error)
	assert.Equal(t, int64(1), still)
}

func TestDeleteFactoryWithoutRecordsSucceeds(t *testing.T) {
	db := ctrlTestDB(t)
	app := testApp(db)
	token := adminToken(t, db, 1)

	fac := factory.Factory{OrganizationID: 1, Name: "Plant A", Code: "PA-01"}
	require.NoError(t, db.Create(&fac).Error)

	resp, _ := doJSON(t, app, fiber.MethodDelete, fmt.Sprintf("/api/factories/%d", fac.ID), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var left int64
	require.NoError(t, db.Model(&factory.Factory{}).Where("id = ?", fac.ID).Count(&left).Error)
	assert.Equal(t, int64(0), left)
}

func TestFactoryEndpointsHiddenAcrossTenants(t *testing.T) {
	db := ctrlTestDB(t)
	app := testApp(db)
	token := adminToken(t, db, 2)

	fac := factory.Factory{OrganizationID: 1, Name: "Plant A", Code: "PA-01"}
	require.NoError(t, db.Create(&fac).Error)

	resp, _ := doJSON(t, app, fiber.MethodDelete, fmt.Sprintf("/api/factories/%d", fac.ID), token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
