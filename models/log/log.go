package log

import "time"

// Log is one persisted request log row, written by the async logger.
type Log struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Method     string    `gorm:"size:10" json:"method"`
	Path       string    `gorm:"size:255" json:"path"`
	StatusCode int       `json:"status_code"`
	IP         string    `gorm:"size:45" json:"ip"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
