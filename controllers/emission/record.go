package emission

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/services/authz"
	"github.com/AsaielHummadi/Sustain/services/emissions"
	"github.com/AsaielHummadi/Sustain/types"
)

type RecordController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewRecordController(db *gorm.DB, loggerInstance *logger.AsyncLogger) *RecordController {
	return &RecordController{db: db, loggerInstance: loggerInstance}
}

// Index lists the records the caller may see, newest period first, with the
// optional filters factory_id, source_id, year, month and scope applied.
func (r *RecordController) Index(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	scope, err := authz.RecordScope(r.db, ctx)
	if err != nil {
		logger.Error("Error resolving record scope", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching emission records", nil)
	}

	query := r.db.Model(&emission.EmissionRecord{}).Scopes(scope).
		Select("emission_records.*").
		Joins("JOIN emission_sources ON emission_sources.id = emission_records.emission_source_id").
		Preload("Factory").Preload("EmissionSource").Preload("User")

	if v := c.QueryInt("factory_id"); v > 0 {
		query = query.Where("emission_records.factory_id = ?", v)
	}
	if v := c.QueryInt("source_id"); v > 0 {
		query = query.Where("emission_records.emission_source_id = ?", v)
	}
	if v := c.QueryInt("year"); v > 0 {
		query = query.Where("emission_records.year = ?", v)
	}
	if v := c.QueryInt("month"); v > 0 {
		query = query.Where("emission_records.month = ?", v)
	}
	if v := c.Query("scope"); v != "" {
		query = query.Where("emission_sources.scope = ?", v)
	}

	var records []emission.EmissionRecord
	if err := query.Order("emission_records.year DESC, emission_records.month DESC, emission_records.id DESC").Find(&records).Error; err != nil {
		logger.Error("Error fetching emission records", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching emission records", nil)
	}

	total := decimal.Zero
	items := make([]fiber.Map, 0, len(records))
	for _, rec := range records {
		e := rec.Emissions()
		total = total.Add(e)
		items = append(items, fiber.Map{
			"record":    rec,
			"emissions": e,
		})
	}

	return types.Respond(c, fiber.StatusOK, "Emission records", fiber.Map{
		"records":         items,
		"total_emissions": total,
		"count":           len(records),
	})
}

type recordRequest struct {
	FactoryID        uint            `json:"factory_id"`
	EmissionSourceID uint            `json:"emission_source_id"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Quantity         decimal.Decimal `json:"quantity"`
}

func (req recordRequest) validate() error {
	if req.FactoryID == 0 || req.EmissionSourceID == 0 {
		return types.ErrValidation
	}
	if req.Year < 2000 || req.Year > 2100 {
		return types.ErrValidation
	}
	if req.Month < 1 || req.Month > 12 {
		return types.ErrValidation
	}
	if req.Quantity.IsNegative() {
		return types.ErrValidation
	}
	return nil
}

// Store creates one record for a (factory, source, period) tuple. The
// pre-check produces the friendly duplicate message; the composite unique
// index catches the concurrent race and gets translated to the same error.
func (r *RecordController) Store(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := req.validate(); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Factory, source, a year, a month between 1 and 12 and a non-negative quantity are required", nil)
	}

	if err := r.factoryUsable(ctx, req.FactoryID); err != nil {
		return types.RespondError(c, err, "Error creating emission record")
	}

	var src emission.EmissionSource
	if err := r.db.Scopes(authz.SourceScope(ctx.OrganizationID)).First(&src, req.EmissionSourceID).Error; err != nil {
		return types.RespondError(c, types.ErrNotFound, "")
	}
	if !src.IsActive {
		return types.Respond(c, fiber.StatusBadRequest, "This emission source is not active", nil)
	}

	if err := emissions.EnsurePeriodUnique(r.db, ctx.OrganizationID, req.FactoryID, req.EmissionSourceID, req.Year, req.Month, 0); err != nil {
		return types.RespondError(c, err, "Error creating emission record")
	}

	record := emission.EmissionRecord{
		OrganizationID:   ctx.OrganizationID,
		FactoryID:        req.FactoryID,
		EmissionSourceID: req.EmissionSourceID,
		UserID:           ctx.UserID,
		Year:             req.Year,
		Month:            req.Month,
		Quantity:         req.Quantity,
	}
	if err := r.db.Create(&record).Error; err != nil {
		err = emissions.TranslateWriteError(err)
		if !types.IsDomainError(err) {
			logger.Error("Error creating emission record", err)
		}
		return types.RespondError(c, err, "Error creating emission record")
	}

	record.EmissionSource = src
	return types.Respond(c, fiber.StatusCreated, "Emission record created successfully", fiber.Map{
		"record":    record,
		"emissions": record.Emissions(),
	})
}

// Update edits a record's period or quantity, re-running the uniqueness guard
// with the record itself excluded so saving unchanged values still succeeds.
func (r *RecordController) Update(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid record id", nil)
	}

	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := req.validate(); err != nil {
		return types.Respond(c, fiber.StatusBadRequest, "Factory, source, a year, a month between 1 and 12 and a non-negative quantity are required", nil)
	}

	record, err := r.findScoped(ctx, uint(id))
	if err != nil {
		return types.RespondError(c, err, "Error updating emission record")
	}

	if req.FactoryID != record.FactoryID {
		if err := r.factoryUsable(ctx, req.FactoryID); err != nil {
			return types.RespondError(c, err, "Error updating emission record")
		}
	}
	if req.EmissionSourceID != record.EmissionSourceID {
		var src emission.EmissionSource
		if err := r.db.Scopes(authz.SourceScope(ctx.OrganizationID)).First(&src, req.EmissionSourceID).Error; err != nil {
			return types.RespondError(c, types.ErrNotFound, "")
		}
	}

	if err := emissions.EnsurePeriodUnique(r.db, ctx.OrganizationID, req.FactoryID, req.EmissionSourceID, req.Year, req.Month, record.ID); err != nil {
		return types.RespondError(c, err, "Error updating emission record")
	}

	record.FactoryID = req.FactoryID
	record.EmissionSourceID = req.EmissionSourceID
	record.Year = req.Year
	record.Month = req.Month
	record.Quantity = req.Quantity
	if err := r.db.Save(record).Error; err != nil {
		err = emissions.TranslateWriteError(err)
		if !types.IsDomainError(err) {
			logger.Error("Error updating emission record", err)
		}
		return types.RespondError(c, err, "Error updating emission record")
	}

	return types.Respond(c, fiber.StatusOK, "Emission record updated successfully", record)
}

// Show returns one record with its computed emissions and up to five other
// records of the same source for quick comparison.
func (r *RecordController) Show(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid record id", nil)
	}

	scope, err := authz.RecordScope(r.db, ctx)
	if err != nil {
		logger.Error("Error resolving record scope", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching emission record", nil)
	}

	var record emission.EmissionRecord
	err = r.db.Scopes(scope).
		Preload("Factory").Preload("EmissionSource").Preload("User").
		First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.RespondError(c, types.ErrNotFound, "")
	}
	if err != nil {
		logger.Error("Error fetching emission record", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error fetching emission record", nil)
	}

	var similar []emission.EmissionRecord
	if err := r.db.Scopes(scope).
		Where("emission_records.emission_source_id = ? AND emission_records.id <> ?", record.EmissionSourceID, record.ID).
		Order("emission_records.year DESC, emission_records.month DESC").
		Limit(5).
		Preload("Factory").Preload("EmissionSource").
		Find(&similar).Error; err != nil {
		logger.Error("Error fetching similar records", err)
		similar = nil
	}

	return types.Respond(c, fiber.StatusOK, "Emission record", fiber.Map{
		"record":          record,
		"emissions":       record.Emissions(),
		"similar_records": similar,
	})
}

// Destroy removes a record the caller can see.
func (r *RecordController) Destroy(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return types.Respond(c, fiber.StatusBadRequest, "Invalid record id", nil)
	}

	record, err := r.findScoped(ctx, uint(id))
	if err != nil {
		return types.RespondError(c, err, "Error deleting emission record")
	}

	if err := r.db.Delete(record).Error; err != nil {
		logger.Error("Error deleting emission record", err)
		return types.Respond(c, fiber.StatusInternalServerError, "Error deleting emission record", nil)
	}

	return types.Respond(c, fiber.StatusOK, "Emission record deleted successfully", nil)
}

func (r *RecordController) findScoped(ctx authz.Context, id uint) (*emission.EmissionRecord, error) {
	scope, err := authz.RecordScope(r.db, ctx)
	if err != nil {
		return nil, err
	}
	var record emission.EmissionRecord
	if err := r.db.Scopes(scope).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// factoryUsable checks the factory belongs to the caller's organization and,
// for operators, is their bound factory.
func (r *RecordController) factoryUsable(ctx authz.Context, factoryID uint) error {
	scope, err := authz.FactoryScope(r.db, ctx)
	if err != nil {
		return err
	}
	var count int64
	if err := r.db.Model(&factory.Factory{}).Scopes(scope).Where("factories.id = ?", factoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return types.ErrNotFound
	}
	return nil
}
