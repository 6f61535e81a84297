package goal

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/models/goal"
	"github.com/AsaielHummadi/Sustain/services/authz"
	"github.com/AsaielHummadi/Sustain/types"
)

type GoalController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewGoalController(db *gorm.DB, loggerInstance *logger.AsyncLogger) *GoalController {
	return &GoalController{db: db, loggerInstance: loggerInstance}
}

// Index lists goals: all of the organization's for admins and officers, only
// the caller's own for factory operators.
func (g *GoalController) Index(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	query := g.db.Where("organization_id = ?", ctx.OrganizationID).
		Preload("EmissionSource").Preload("User")
	if !ctx.CanViewOrgWide() {
		query = query.Where("user_id = ?", ctx.UserID)
	}

	var goals []goal.Goal
	if err := query.Order("end_date ASC").Find(&goals).Error; err != nil {
		logger.Error("Error fetching goals", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching goals", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Goals", goals)
}

// Show returns one goal the caller may see.
func (g *GoalController) Show(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid goal id", nil)
	}

	target, err := g.findVisible(ctx, uint(id), true)
	if err != nil {
		return types.RespondError(c, err, "Error fetching goal")
	}

	return types.Respond(c, fiber.StatusOK, "Goal", target)
}

type goalRequest struct {
	EmissionSourceID uint            `json:"emission_source_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Value            decimal.Decimal `json:"value"`
	Period           string          `json:"period"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
}

func (req goalRequest) validate() error {
	if req.Title == "" || req.EmissionSourceID == 0 {
		return types.ErrValidation
	}
	if req.Value.IsNegative() {
		return types.ErrValidation
	}
	if !req.EndDate.IsZero() && !req.StartDate.IsZero() && req.EndDate.Before(req.StartDate) {
		return types.ErrValidation
	}
	return nil
}

// Store creates a goal owned by the caller, starting Active.
func (g *GoalController) Store(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var req goalRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := req.validate(); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Title, an emission source, a non-negative value and a valid date range are required", nil)
	}

	target := goal.Goal{
		OrganizationID:   ctx.OrganizationID,
		UserID:           ctx.UserID,
		EmissionSourceID: req.EmissionSourceID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           constants.GoalStatusActive,
		Value:            req.Value,
		Period:           req.Period,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}
	if err := g.db.Create(&target).Error; err != nil {
		logger.Error("Error creating goal", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error creating goal", nil)
	}

	return types.Respond(c, fiber.StatusCreated, "Goal created successfully", target)
}

// Update edits a goal the caller owns (or any org goal for admins/officers).
func (g *GoalController) Update(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid goal id", nil)
	}

	var req goalRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := req.validate(); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Title, an emission source, a non-negative value and a valid date range are required", nil)
	}

	target, err := g.findVisible(ctx, uint(id), false)
	if err != nil {
		return types.RespondError(c, err, "Error updating goal")
	}

	target.EmissionSourceID = req.EmissionSourceID
	target.Title = req.Title
	target.Description = req.Description
	target.Value = req.Value
	target.Period = req.Period
	target.StartDate = req.StartDate
	target.EndDate = req.EndDate
	if err := g.db.Save(target).Error; err != nil {
		logger.Error("Error updating goal", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error updating goal", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Goal updated successfully", target)
}

type goalStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves a goal between Active, Completed and Cancelled.
func (g *GoalController) UpdateStatus(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid goal id", nil)
	}

	var req goalStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	switch req.Status {
	case constants.GoalStatusActive, constants.GoalStatusCompleted, constants.GoalStatusCancelled:
	default:
		return types.Respond(c, fiber.StatusBadRequest, "Status must be Active, Completed or Cancelled", nil)
	}

	target, err := g.findVisible(ctx, uint(id), false)
	if err != nil {
		return types.RespondError(c, err, "Error updating goal status")
	}

	target.Status = req.Status
	if err := g.db.Save(target).Error; err != nil {
		logger.Error("Error updating goal status", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error updating goal status", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Goal status updated successfully", target)
}

// Destroy removes a goal the caller may edit.
func (g *GoalController) Destroy(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid goal id", nil)
	}

	target, err := g.findVisible(ctx, uint(id), false)
	if err != nil {
		return types.RespondError(c, err, "Error deleting goal")
	}

	if err := g.db.Delete(target).Error; err != nil {
		logger.Error("Error deleting goal", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting goal", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Goal deleted successfully", nil)
}

func (g *GoalController) findVisible(ctx authz.Context, id uint, preload bool) (*goal.Goal, error) {
	query := g.db.Where("organization_id = ?", ctx.OrganizationID)
	if !ctx.CanViewOrgWide() {
		query = query.Where("user_id = ?", ctx.UserID)
	}
	if preload {
		query = query.Preload("EmissionSource").Preload("User")
	}

	var target goal.Goal
	if err := query.First(&target, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &target, nil
}
