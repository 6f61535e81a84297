package emission

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/services/authz"
	"github.com/AsaielHummadi/Sustain/types"
)

type SourceController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewSourceController(db *gorm.DB, loggerInstance *logger.AsyncLogger) *SourceController {
	return &SourceController{db: db, loggerInstance: loggerInstance}
}

// Index lists the global catalog plus the organization's own sources,
// active ones first.
func (s *SourceController) Index(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var sources []emission.EmissionSource
	err := s.db.Scopes(authz.SourceScope(ctx.OrganizationID)).
		Order("is_active DESC, name ASC").
		Find(&sources).Error
	if err != nil {
		logger.Error("Error fetching emission sources", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching emission sources", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Emission sources", sources)
}

type sourceRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Period         string          `json:"period"`
	Scope          string          `json:"scope"`
	Unit           string          `json:"unit"`
	EmissionFactor decimal.Decimal `json:"emission_factor"`
	Formula        *string         `json:"formula"`
	IsActive       *bool           `json:"is_active"`
}

func (req sourceRequest) validate() error {
	if req.Name == "" || req.Unit == "" {
		return types.ErrValidation
	}
	if req.Scope != constants.Scope1 && req.Scope != constants.Scope2 {
		return types.ErrValidation
	}
	if req.EmissionFactor.IsNegative() {
		return types.ErrValidation
	}
	return nil
}

// Store creates an organization-owned source, immediately usable.
func (s *SourceController) Store(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := req.validate(); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Name, unit, a valid scope and a non-negative emission factor are required", nil)
	}

	orgID := ctx.OrganizationID
	src := emission.EmissionSource{
		OrganizationID: &orgID,
		Name:           req.Name,
		Description:    req.Description,
		Period:         req.Period,
		Scope:          req.Scope,
		Unit:           req.Unit,
		EmissionFactor: req.EmissionFactor,
		Formula:        req.Formula,
		IsActive:       true,
	}
	if err := s.db.Create(&src).Error; err != nil {
		logger.Error("Error creating emission source", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error creating emission source", nil)
	}

	return types.Respond(c, fiber.StatusCreated, "Emission source created successfully", src)
}

// Update edits an organization-owned source. Global sources resolve but are
// not mutable, which reads as not found to the caller.
func (s *SourceController) Update(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid source id", nil)
	}

	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := req.validate(); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Name, unit, a valid scope and a non-negative emission factor are required", nil)
	}

	src, err := s.findMutable(ctx, uint(id))
	if err != nil {
		return types.RespondError(c, err, "Error updating emission source")
	}

	src.Name = req.Name
	src.Description = req.Description
	src.Period = req.Period
	src.Scope = req.Scope
	src.Unit = req.Unit
	src.EmissionFactor = req.EmissionFactor
	src.Formula = req.Formula
	if req.IsActive != nil {
		src.IsActive = *req.IsActive
	}

	if err := s.db.Save(src).Error; err != nil {
		logger.Error("Error updating emission source", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error updating emission source", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Emission source updated successfully", src)
}

// Destroy removes an organization-owned source that has no records.
func (s *SourceController) Destroy(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid source id", nil)
	}

	src, err := s.findMutable(ctx, uint(id))
	if err != nil {
		return types.RespondError(c, err, "Error deleting emission source")
	}

	var records int64
	if err := s.db.Model(&emission.EmissionRecord{}).Where("emission_source_id = ?", src.ID).Count(&records).Error; err != nil {
		logger.Error("Error checking source usage", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting emission source", nil)
	}
	if records > 0 {
		return types.Respond(c, fiber.StatusConflict, "This emission source has recorded data and cannot be deleted", nil)
	}

	if err := s.db.Delete(src).Error; err != nil {
		logger.Error("Error deleting emission source", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting emission source", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Emission source deleted successfully", nil)
}

type customSourceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Scope       string `json:"scope"`
	Unit        string `json:"unit"`
	Formula     string `json:"formula"`
}

// RequestCustomSource files a custom-source request. It stays inactive with a
// zero factor until an operator of the platform approves it.
func (s *SourceController) RequestCustomSource(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var req customSourceRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.Name == "" || req.Unit == "" || (req.Scope != constants.Scope1 && req.Scope != constants.Scope2) {
		return types.Respond(c, fiber.StatusBadRequest, "Name, unit and a valid scope are required", nil)
	}

	orgID := ctx.OrganizationID
	pending := constants.RequestStatusPending
	requestedAt := time.Now()
	var formula *string
	if req.Formula != "" {
		formula = &req.Formula
	}

	src := emission.EmissionSource{
		OrganizationID: &orgID,
		Name:           req.Name,
		Description:    req.Description,
		Scope:          req.Scope,
		Unit:           req.Unit,
		EmissionFactor: decimal.Zero,
		Formula:        formula,
		IsActive:       false,
		IsRequested:    true,
		RequestStatus:  &pending,
		RequestedAt:    &requestedAt,
	}
	if err := s.db.Create(&src).Error; err != nil {
		logger.Error("Error creating custom source request", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error submitting custom source request", nil)
	}

	return types.Respond(c, fiber.StatusCreated, "Custom source request submitted successfully", src)
}

func (s *SourceController) findMutable(ctx authz.Context, id uint) (*emission.EmissionSource, error) {
	var src emission.EmissionSource
	if err := s.db.Scopes(authz.SourceScope(ctx.OrganizationID)).First(&src, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	if !authz.CanMutateSource(src, ctx) {
		return nil, types.ErrNotFound
	}
	return &src, nil
}
