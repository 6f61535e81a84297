package goal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AsaielHummadi/Sustain/models/emission"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/user"
)

// Goal is a sustainability target against one emission source.
type Goal struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID   uint            `gorm:"not null;index" json:"organization_id"`
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	EmissionSourceID uint            `gorm:"not null;index" json:"emission_source_id"`
	Title            string          `gorm:"size:150;not null" json:"title"`
	Description      string          `gorm:"size:255" json:"description"`
	Status           string          `gorm:"size:50;not null;default:Active" json:"status"` // Active, Completed, Cancelled
	Value            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"value"`
	Period           string          `gorm:"size:50" json:"period"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Organization   organization.Organization `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:CASCADE" json:"organization,omitempty"`
	User           user.User                 `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE" json:"user,omitempty"`
	EmissionSource emission.EmissionSource   `gorm:"foreignKey:EmissionSourceID;constraint:OnUpdate:CASCADE" json:"emission_source,omitempty"`
}
