package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AsaielHummadi/Sustain/models/organization"
)

// SubscriptionPlan caps how many users and factories an organization may have.
// Nil caps are treated as zero by the entitlement checker, never as unlimited.
type SubscriptionPlan struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"size:255" json:"description"`
	Type        string          `gorm:"size:10;not null" json:"type"` // free, paid
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	UserMax     *int            `json:"user_max,omitempty"`
	FactoryMax  *int            `json:"factory_max,omitempty"`
	Duration    int             `json:"duration"` // months
}

type Subscription struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID     uint      `gorm:"not null;index" json:"organization_id"`
	SubscriptionPlanID uint      `gorm:"not null;index" json:"subscription_plan_id"`
	StartDate          time.Time `gorm:"not null" json:"start_date"`
	EndDate            time.Time `gorm:"not null" json:"end_date"`
	Status             string    `gorm:"size:50;not null;default:Active" json:"status"` // Active, Expired
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`

	Organization     organization.Organization `gorm:"foreignKey:OrganizationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"organization,omitempty"`
	SubscriptionPlan SubscriptionPlan          `gorm:"foreignKey:SubscriptionPlanID;constraint:OnUpdate:CASCADE" json:"subscription_plan,omitempty"`
}

type Invoice struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	SubscriptionID uint            `gorm:"not null;index" json:"subscription_id"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	IssuedAt       time.Time       `gorm:"not null" json:"issued_at"`
	Status         string          `gorm:"size:50;not null;default:Pending" json:"status"` // Pending, Paid

	Subscription Subscription `gorm:"foreignKey:SubscriptionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subscription,omitempty"`
}

type Payment struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID uint            `gorm:"not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	Method    string          `gorm:"size:50" json:"method"`
	Status    string          `gorm:"size:50;not null;default:Completed" json:"status"`

	Invoice Invoice `gorm:"foreignKey:InvoiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"invoice,omitempty"`
}
