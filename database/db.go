package database

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/logger"
	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/goal"
	"github.com/AsaielHummadi/Sustain/models/invitation"
	"github.com/AsaielHummadi/Sustain/models/log"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/subscription"
	"github.com/AsaielHummadi/Sustain/models/user"
)

var DB *gorm.DB

// InitDB opens the database, runs staged migrations, creates extra indexes
// and seeds reference data. DATABASE_URL selects postgres; with no DSN a
// local sqlite file is used so the app runs without extra setup.
func InitDB() (*gorm.DB, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file found, using environment as-is")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = buildPostgresDSN()
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open("sustain.db")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(db); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(db); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}

	if err := SeedData(db); err != nil {
		logger.Error("Failed to seed reference data", err)
		return nil, err
	}

	DB = db
	return db, nil
}

func buildPostgresDSN() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, envOr("DB_PORT", "5432"), os.Getenv("DB_USERNAME"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_DATABASE"), envOr("DB_SSLMODE", "disable"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// autoMigrate migrates models in dependency stages so foreign keys always
// find their parent tables.
func autoMigrate(db *gorm.DB) error {
	// Stage 1: tenant root and lookup tables
	stage1 := []interface{}{
		&organization.Organization{},
		&user.Role{},
		&subscription.SubscriptionPlan{},
	}

	// Stage 2: entities owned directly by an organization
	stage2 := []interface{}{
		&user.User{},
		&factory.Factory{},
		&emission.EmissionSource{},
		&subscription.Subscription{},
	}

	// Stage 3: entities referencing stage 2
	stage3 := []interface{}{
		&emission.EmissionRecord{},
		&goal.Goal{},
		&invitation.Invitation{},
		&subscription.Invoice{},
	}

	// Stage 4: leaves
	stage4 := []interface{}{
		&subscription.Payment{},
		&log.Log{},
	}

	for _, stage := range [][]interface{}{stage1, stage2, stage3, stage4} {
		for _, model := range stage {
			if err := db.AutoMigrate(model); err != nil {
				return fmt.Errorf("failed to migrate %T: %w", model, err)
			}
		}
	}
	return nil
}

// createIndexes adds query indexes that AutoMigrate tags do not cover.
func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name string
		sql  string
	}{
		{"idx_emission_records_period", "CREATE INDEX IF NOT EXISTS idx_emission_records_period ON emission_records(year, month)"},
		{"idx_subscriptions_org_status", "CREATE INDEX IF NOT EXISTS idx_subscriptions_org_status ON subscriptions(organization_id, status)"},
		{"idx_invitations_status", "CREATE INDEX IF NOT EXISTS idx_invitations_status ON invitations(status)"},
		{"idx_logs_status_code", "CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)"},
		{"idx_logs_created_at", "CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)"},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}
