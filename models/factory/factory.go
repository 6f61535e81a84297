package factory

import (
	"time"

	"github.com/AsaielHummadi/Sustain/models/organization"
)

// Factory belongs to one organization. The code is unique across all
// organizations, not just within one.
type Factory struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	Name           string    `gorm:"size:150;not null" json:"name"`
	Code           string    `gorm:"size:50;not null;uniqueIndex" json:"code"`
	Location       string    `gorm:"size:150" json:"location"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Organization organization.Organization `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"organization,omitempty"`
}
