package database

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/constants"
	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/subscription"
	"github.com/AsaielHummadi/Sustain/models/user"
)

// SeedData seeds roles, subscription plans and the global emission source
// catalog. Each seeder is idempotent.
func SeedData(db *gorm.DB) error {
	if err := seedRoles(db); err != nil {
		return err
	}
	if err := seedSubscriptionPlans(db); err != nil {
		return err
	}
	if err := seedGlobalEmissionSources(db); err != nil {
		return err
	}
	logger.Success("Database seeding completed")
	return nil
}

func seedRoles(db *gorm.DB) error {
	var count int64
	if err := db.Model(&user.Role{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Roles already seeded, skipping")
		return nil
	}

	roles := []user.Role{
		{ID: constants.RoleSustainabilityOfficer, Name: "Sustainability Officer"},
		{ID: constants.RoleFactoryOperator, Name: "Factory Operator"},
		{ID: constants.RoleAdministrator, Name: "Administrator"},
	}
	return db.Create(&roles).Error
}

func seedSubscriptionPlans(db *gorm.DB) error {
	var count int64
	if err := db.Model(&subscription.SubscriptionPlan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Subscription plans already seeded, skipping")
		return nil
	}

	plans := []subscription.SubscriptionPlan{
		{
			Name:        "Free Trial",
			Description: "One month trial for small teams",
			Type:        constants.PlanTypeFree,
			Price:       decimal.Zero,
			UserMax:     intPtr(3),
			FactoryMax:  intPtr(1),
			Duration:    1,
		},
		{
			Name:        "Starter",
			Description: "For single-site organizations",
			Type:        constants.PlanTypePaid,
			Price:       decimal.NewFromFloat(49.99),
			UserMax:     intPtr(10),
			FactoryMax:  intPtr(3),
			Duration:    12,
		},
		{
			Name:        "Professional",
			Description: "For multi-site organizations",
			Type:        constants.PlanTypePaid,
			Price:       decimal.NewFromFloat(99.99),
			UserMax:     intPtr(25),
			FactoryMax:  intPtr(10),
			Duration:    12,
		},
		{
			Name:        "Enterprise",
			Description: "For large reporting programs",
			Type:        constants.PlanTypePaid,
			Price:       decimal.NewFromFloat(199.99),
			UserMax:     intPtr(100),
			FactoryMax:  intPtr(50),
			Duration:    12,
		},
	}
	return db.Create(&plans).Error
}

func seedGlobalEmissionSources(db *gorm.DB) error {
	var count int64
	if err := db.Model(&emission.EmissionSource{}).Where("organization_id IS NULL").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Global emission sources already seeded, skipping")
		return nil
	}

	sources := []emission.EmissionSource{
		{
			Name:           "Diesel (stationary combustion)",
			Description:    "Diesel burned in generators and boilers",
			Scope:          constants.Scope1,
			Unit:           "litre",
			Period:         "Monthly",
			EmissionFactor: decimal.RequireFromString("0.002680"),
			IsActive:       true,
		},
		{
			Name:           "Natural Gas",
			Description:    "Natural gas burned on site",
			Scope:          constants.Scope1,
			Unit:           "m3",
			Period:         "Monthly",
			EmissionFactor: decimal.RequireFromString("0.001880"),
			IsActive:       true,
		},
		{
			Name:           "Petrol (fleet)",
			Description:    "Petrol used by company vehicles",
			Scope:          constants.Scope1,
			Unit:           "litre",
			Period:         "Monthly",
			EmissionFactor: decimal.RequireFromString("0.002310"),
			IsActive:       true,
		},
		{
			Name:           "Purchased Electricity",
			Description:    "Grid electricity consumption",
			Scope:          constants.Scope2,
			Unit:           "kWh",
			Period:         "Monthly",
			EmissionFactor: decimal.RequireFromString("0.000453"),
			IsActive:       true,
		},
		{
			Name:           "Purchased Steam",
			Description:    "Steam or heat bought from a district network",
			Scope:          constants.Scope2,
			Unit:           "kg",
			Period:         "Monthly",
			EmissionFactor: decimal.RequireFromString("0.000190"),
			IsActive:       true,
		},
	}
	return db.Create(&sources).Error
}

func intPtr(v int) *int {
	return &v
}
