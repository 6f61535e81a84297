package emission

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/user"
)

// EmissionSource is a catalog entry. A nil OrganizationID marks a global
// source shared by every organization; those are never editable by tenants.
// Organization-submitted custom sources carry the request workflow fields and
// stay inactive until approved.
type EmissionSource struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID *uint           `gorm:"index" json:"organization_id,omitempty"`
	Name           string          `gorm:"size:150;not null" json:"name"`
	Description    string          `gorm:"size:255" json:"description"`
	Period         string          `gorm:"size:50" json:"period"`
	Scope          string          `gorm:"size:50" json:"scope"` // Scope 1, Scope 2
	Unit           string          `gorm:"size:50" json:"unit"`
	EmissionFactor decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"emission_factor"`
	Formula        *string         `gorm:"size:255" json:"formula,omitempty"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	IsRequested    bool            `gorm:"not null;default:false" json:"is_requested"`
	RequestStatus  *string         `gorm:"size:50" json:"request_status,omitempty"` // Pending, Approved, Rejected
	RequestedAt    *time.Time      `json:"requested_at,omitempty"`

	Organization *organization.Organization `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"organization,omitempty"`
}

// EmissionRecord stores one reported quantity per (organization, factory,
// source, year, month). The composite unique index is the authoritative guard
// against concurrent duplicate creates; the in-process check only produces the
// friendlier error message first.
type EmissionRecord struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID   uint            `gorm:"not null;uniqueIndex:idx_emission_record_period" json:"organization_id"`
	FactoryID        uint            `gorm:"not null;uniqueIndex:idx_emission_record_period" json:"factory_id"`
	EmissionSourceID uint            `gorm:"not null;uniqueIndex:idx_emission_record_period" json:"emission_source_id"`
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	Year             int             `gorm:"not null;uniqueIndex:idx_emission_record_period" json:"year"`
	Month            int             `gorm:"not null;uniqueIndex:idx_emission_record_period" json:"month"` // 1-12
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Organization   organization.Organization `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:CASCADE" json:"organization,omitempty"`
	Factory        factory.Factory           `gorm:"foreignKey:FactoryID;constraint:OnUpdate:CASCADE" json:"factory,omitempty"`
	EmissionSource EmissionSource            `gorm:"foreignKey:EmissionSourceID;constraint:OnUpdate:CASCADE" json:"emission_source,omitempty"`
	User           user.User                 `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE" json:"user,omitempty"`
}

// Emissions is the computed (never stored) tCO2e for the record.
func (r EmissionRecord) Emissions() decimal.Decimal {
	return r.EmissionSource.EmissionFactor.Mul(r.Quantity)
}
