package invitation

import (
	"time"

	"github.com/AsaielHummadi/Sustain/models/factory"
	"github.com/AsaielHummadi/Sustain/models/organization"
	"github.com/AsaielHummadi/Sustain/models/user"
)

// Invitation is how a user joins an organization, and doubles as the permanent
// record of a Factory Operator's factory binding: there is no direct foreign
// key from users to factories, the accepted invitation row with a non-nil
// FactoryID is the assignment. Rows persist past acceptance for that reason.
type Invitation struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID uint       `gorm:"not null;index" json:"organization_id"`
	RoleID         uint       `gorm:"not null" json:"role_id"`
	FactoryID      *uint      `gorm:"index" json:"factory_id,omitempty"`
	UserID         *uint      `gorm:"index" json:"user_id,omitempty"` // set on acceptance
	InvitedEmail   string     `gorm:"size:150;not null" json:"invited_email"`
	Token          string     `gorm:"size:200;not null;index" json:"-"`
	Status         string     `gorm:"size:50;not null;default:Pending" json:"status"` // Pending, Accepted, Cancelled
	SentAt         time.Time  `gorm:"autoCreateTime" json:"sent_at"`
	Expiration     time.Time  `json:"expiration"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`

	Organization organization.Organization `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"organization,omitempty"`
	Role         user.Role                 `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE" json:"role,omitempty"`
	Factory      *factory.Factory          `gorm:"foreignKey:FactoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"factory,omitempty"`
	User         *user.User                `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"user,omitempty"`
}
