package factory

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/services/authz"
	"github.com/AsaielHummadi/Sustain/services/entitlement"
	"github.com/AsaielHummadi/Sustain/types"
)

type FactoryController struct {
	db             *gorm.DB
	entitlements   *entitlement.Service
	loggerInstance *logger.AsyncLogger
}

func NewFactoryController(db *gorm.DB, entitlements *entitlement.Service, loggerInstance *logger.AsyncLogger) *FactoryController {
	return &FactoryController{db: db, entitlements: entitlements, loggerInstance: loggerInstance}
}

// Index lists the factories the caller may see, by name.
func (f *FactoryController) Index(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	scope, err := authz.FactoryScope(f.db, ctx)
	if err != nil {
		logger.Error("Error resolving factory scope", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching factories", nil)
	}

	var factories []factory.Factory
	if err := f.db.Scopes(scope).Order("name ASC").Find(&factories).Error; err != nil {
		logger.Error("Error fetching factories", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching factories", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Factories", factories)
}

type factoryRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Location string `json:"location"`
}

// Create adds a factory, gated by the subscription's factory cap.
func (f *FactoryController) Create(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var req factoryRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.Name == "" || req.Code == "" {
		return types.Respond(c, fiber.StatusBadRequest, "Name and code are required", nil)
	}

	allowed, err := f.entitlements.CanCreateFactory(ctx.OrganizationID)
	if err != nil {
		logger.Error("Error checking factory entitlement", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error creating factory", nil)
	}
	if !allowed {
		sub, err := f.entitlements.ActiveSubscription(ctx.OrganizationID)
		if err == nil && sub == nil {
			return types.RespondError(c, types.ErrNoActiveSubscription, "")
		}
		return types.RespondError(c, types.ErrLimitReached, "")
	}

	if err := f.codeAvailable(req.Code, 0); err != nil {
		return types.RespondError(c, err, "Error creating factory")
	}

	fac := factory.Factory{
		OrganizationID: ctx.OrganizationID,
		Name:           req.Name,
		Code:           req.Code,
		Location:       req.Location,
	}
	if err := f.db.Create(&fac).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return types.RespondError(c, types.ErrDuplicateFactoryCode, "")
		}
		logger.Error("Error creating factory", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error creating factory", nil)
	}

	return types.Respond(c, fiber.StatusCreated, "Factory created successfully", fac)
}

// Edit updates a factory's details, keeping the code globally unique.
func (f *FactoryController) Edit(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid factory id", nil)
	}

	var req factoryRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.Name == "" || req.Code == "" {
		return types.Respond(c, fiber.StatusBadRequest, "Name and code are required", nil)
	}

	var fac factory.Factory
	if err := f.db.Where("organization_id = ?", ctx.OrganizationID).First(&fac, id).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}

	if err := f.codeAvailable(req.Code, fac.ID); err != nil {
		return types.RespondError(c, err, "Error updating factory")
	}

	fac.Name = req.Name
	fac.Code = req.Code
	fac.Location = req.Location
	if err := f.db.Save(&fac).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return types.RespondError(c, types.ErrDuplicateFactoryCode, "")
		}
		logger.Error("Error updating factory", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error updating factory", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Factory updated successfully", fac)
}

// Delete removes a factory with no emission records.
func (f *FactoryController) Delete(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid factory id", nil)
	}

	var fac factory.Factory
	if err := f.db.Where("organization_id = ?", ctx.OrganizationID).First(&fac, id).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}

	var records int64
	if err := f.db.Model(&emission.EmissionRecord{}).Where("factory_id = ?", fac.ID).Count(&records).Error; err != nil {
		logger.Error("Error checking factory usage", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting factory", nil)
	}
	if records > 0 {
		return types.Respond(c, fiber.StatusConflict, "This factory has emission records and cannot be deleted", nil)
	}

	if err := f.db.Delete(&fac).Error; err != nil {
		logger.Error("Error deleting factory", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting factory", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Factory deleted successfully", nil)
}

func (f *FactoryController) codeAvailable(code string, excludeID uint) error {
	query := f.db.Model(&factory.Factory{}).Where("code = ?", code)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return types.ErrDuplicateFactoryCode
	}
	return nil
}
