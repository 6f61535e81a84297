package user

import (
	"time"

	"github.com/AsaielHummadi/Sustain/models/organization"
)

// Role is a seeded lookup table (Sustainability Officer, Factory Operator,
// Administrator).
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null;unique" json:"name"`
}

type User struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID uint       `gorm:"not null;index" json:"organization_id"`
	RoleID         uint       `gorm:"not null;index" json:"role_id"`
	FirstName      string     `gorm:"size:100;not null" json:"first_name"`
	LastName       string     `gorm:"size:100" json:"last_name"`
	Email          string     `gorm:"size:150;not null;uniqueIndex" json:"email"`
	Phone          string     `gorm:"size:20" json:"phone"`
	Password       string     `gorm:"size:255;not null" json:"-"`
	Status         string     `gorm:"size:50;not null;default:Active" json:"status"` // Active, Inactive
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Organization organization.Organization `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"organization,omitempty"`
	Role         Role                      `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE" json:"role,omitempty"`
}
