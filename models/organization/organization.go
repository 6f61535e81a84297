package organization

import "time"

// Organization is the tenant root. Users, factories, subscriptions, goals and
// organization-scoped emission sources all hang off it.
type Organization struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Industry  string    `gorm:"size:100" json:"industry"`
	City      string    `gorm:"size:100" json:"city"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
