package dashboard

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/middleware"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/subscription"
	"github.com/AsaielHummadi/Sustain/models/user"
	"github.com/AsaielHummadi/Sustain/services/authz"
	"github.com/AsaielHummadi/Sustain/services/emissions"
	"github.com/AsaielHummadi/Sustain/services/entitlement"
	"github.com/AsaielHummadi/Sustain/types"
)

type DashboardController struct {
	db             *gorm.DB
	entitlements   *entitlement.Service
	loggerInstance *logger.AsyncLogger
}

func NewDashboardController(db *gorm.DB, entitlements *entitlement.Service, loggerInstance *logger.AsyncLogger) *DashboardController {
	return &DashboardController{db: db, entitlements: entitlements, loggerInstance: loggerInstance}
}

// AdminDashboard summarizes the organization: membership, subscription usage,
// reporting compliance for the current month and per-factory emissions.
func (d *DashboardController) AdminDashboard(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	var totalUsers, activeUsers int64
	if err := d.db.Model(&user.User{}).Where("organization_id = ?", ctx.OrganizationID).Count(&totalUsers).Error; err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}
	if err := d.db.Model(&user.User{}).
		Where("organization_id = ? AND status = ?", ctx.OrganizationID, constants.UserStatusActive).
		Count(&activeUsers).Error; err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}

	roleDistribution := make(map[string]int64, 3)
	for roleID, name := range constants.AllRoles() {
		var n int64
		if err := d.db.Model(&user.User{}).
			Where("organization_id = ? AND role_id = ?", ctx.OrganizationID, roleID).
			Count(&n).Error; err != nil {
			return d.fail(c, "Error loading dashboard", err)
		}
		roleDistribution[name] = n
	}

	var factories []factory.Factory
	if err := d.db.Where("organization_id = ?", ctx.OrganizationID).Order("name ASC").Find(&factories).Error; err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}

	rows, err := emissions.Rows(d.db.Where("emission_records.organization_id = ?", ctx.OrganizationID))
	if err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}
	summary := emissions.Aggregate(rows)

	factoryPerformance := make([]fiber.Map, 0, len(factories))
	reporting := int64(0)
	for _, f := range factories {
		total, ok := summary.ByFactory[f.ID]
		if !ok {
			total = decimal.Zero
		} else {
			reporting++
		}
		factoryPerformance = append(factoryPerformance, fiber.Map{
			"factory_id": f.ID,
			"name":       f.Name,
			"emissions":  total,
		})
	}

	compliance, err := d.monthlyCompliance(ctx.OrganizationID, len(factories))
	if err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}

	recent, err := d.recentActivity(ctx.OrganizationID)
	if err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}

	sub, err := d.entitlements.ActiveSubscription(ctx.OrganizationID)
	if err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}
	limits, err := d.entitlements.GetLimits(ctx.OrganizationID)
	if err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}

	return types.Respond(c, fiber.StatusOK, "Admin dashboard", fiber.Map{
		"total_users":         totalUsers,
		"active_users":        activeUsers,
		"role_distribution":   roleDistribution,
		"total_factories":     len(factories),
		"reporting_factories": reporting,
		"total_emissions":     summary.Total,
		"factory_performance": factoryPerformance,
		"data_compliance":     compliance,
		"recent_activity":     recent,
		"subscription":        sub,
		"usage":               limits,
	})
}

// OfficerDashboard is the full emissions view: totals, scope split and the
// chart series, optionally narrowed to one factory.
func (d *DashboardController) OfficerDashboard(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	query := d.db.Where("emission_records.organization_id = ?", ctx.OrganizationID)
	if v := c.QueryInt("factory_id"); v > 0 {
		query = query.Where("emission_records.factory_id = ?", v)
	}

	rows, err := emissions.Rows(query)
	if err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}
	summary := emissions.Aggregate(rows)

	var factories []factory.Factory
	if err := d.db.Where("organization_id = ?", ctx.OrganizationID).Order("name ASC").Find(&factories).Error; err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}
	factoryNames := make(map[uint]string, len(factories))
	for _, f := range factories {
		factoryNames[f.ID] = f.Name
	}

	return types.Respond(c, fiber.StatusOK, "Officer dashboard", fiber.Map{
		"summary":       summary,
		"monthly_chart": periodSeries(summary.ByPeriod),
		"factories":     factories,
		"factory_names": factoryNames,
		"record_count":  len(rows),
	})
}

// OperatorDashboard shows the operator's bound factory only. An operator
// without a factory binding has nothing to see.
func (d *DashboardController) OperatorDashboard(c *fiber.Ctx) error {
	ctx := middleware.AuthContext(c)

	factoryID, err := authz.AssignedFactoryID(d.db, ctx)
	if err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}
	if factoryID == nil {
		return types.Respond(c, fiber.StatusNotFound, "No factory assigned to your account", nil)
	}

	var fac factory.Factory
	if err := d.db.First(&fac, *factoryID).Error; err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}

	rows, err := emissions.Rows(d.db.
		Where("emission_records.organization_id = ? AND emission_records.factory_id = ?", ctx.OrganizationID, *factoryID))
	if err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}
	summary := emissions.Aggregate(rows)

	period := now.BeginningOfMonth()
	currentMonth := summary.ByPeriod[emissions.PeriodKey(period.Year(), int(period.Month()))]

	var latest []emission.EmissionRecord
	if err := d.db.Preload("EmissionSource").
		Where("organization_id = ? AND factory_id = ?", ctx.OrganizationID, *factoryID).
		Order("created_at DESC").
		Limit(3).
		Find(&latest).Error; err != nil {
		return d.fail(c, "Error loading dashboard", err)
	}

	return types.Respond(c, fiber.StatusOK, "Operator dashboard", fiber.Map{
		"factory":                 fac,
		"summary":                 summary,
		"monthly_chart":           periodSeries(summary.ByPeriod),
		"current_month_emissions": currentMonth,
		"latest_records":          latest,
	})
}

// monthlyCompliance is the share of expected current-month reports that were
// actually filed: one report per factory per active source.
func (d *DashboardController) monthlyCompliance(organizationID uint, factoryCount int) (fiber.Map, error) {
	period := now.BeginningOfMonth()

	var activeSources int64
	err := d.db.Model(&emission.EmissionSource{}).
		Scopes(authz.SourceScope(organizationID)).
		Where("is_active = ?", true).
		Count(&activeSources).Error
	if err != nil {
		return nil, err
	}

	var filed int64
	err = d.db.Model(&emission.EmissionRecord{}).
		Where("organization_id = ? AND year = ? AND month = ?", organizationID, period.Year(), int(period.Month())).
		Count(&filed).Error
	if err != nil {
		return nil, err
	}

	expected := int64(factoryCount) * activeSources
	percentage := 0.0
	if expected > 0 {
		percentage = float64(filed) / float64(expected) * 100
		if percentage > 100 {
			percentage = 100
		}
	}

	return fiber.Map{
		"period":     emissions.PeriodKey(period.Year(), int(period.Month())),
		"expected":   expected,
		"filed":      filed,
		"percentage": percentage,
	}, nil
}

func (d *DashboardController) recentActivity(organizationID uint) (fiber.Map, error) {
	var recentUsers []user.User
	err := d.db.Preload("Role").
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Limit(2).
		Find(&recentUsers).Error
	if err != nil {
		return nil, err
	}

	var recentRecord *emission.EmissionRecord
	var rec emission.EmissionRecord
	err = d.db.Preload("Factory").Preload("EmissionSource").
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		First(&rec).Error
	if err == nil {
		recentRecord = &rec
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var recentInvoice *subscription.Invoice
	var inv subscription.Invoice
	err = d.db.Model(&subscription.Invoice{}).
		Select("invoices.*").
		Joins("JOIN subscriptions ON subscriptions.id = invoices.subscription_id").
		Where("subscriptions.organization_id = ? AND invoices.status = ?", organizationID, constants.InvoiceStatusPaid).
		Order("invoices.issued_at DESC").
		First(&inv).Error
	if err == nil {
		recentInvoice = &inv
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return fiber.Map{
		"recent_users":   recentUsers,
		"recent_record":  recentRecord,
		"recent_invoice": recentInvoice,
	}, nil
}

// periodSeries flattens the period map into a chronologically sorted series
// the charts consume directly. "YYYY-MM" keys sort correctly as strings.
func periodSeries(byPeriod map[string]decimal.Decimal) []fiber.Map {
	keys := make([]string, 0, len(byPeriod))
	for k := range byPeriod {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make([]fiber.Map, 0, len(keys))
	for _, k := range keys {
		series = append(series, fiber.Map{
			"period":    k,
			"emissions": byPeriod[k],
		})
	}
	return series
}

func (d *DashboardController) fail(c *fiber.Ctx, message string, err error) error {
	logger.Error(message, err)
	return types.Respond(c, fiber.StatusInternalServerError, message, nil)
}
