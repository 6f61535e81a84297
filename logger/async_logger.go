package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AsaielHummadi/Sustain/models/log"
)

// AsyncLogger persists request logs to the logs table without blocking the
// request path. Entries are dropped when the buffer is full rather than
// slowing down a response.
type AsyncLogger struct {
	db *gorm.DB
	ch chan log.Log
}

func NewAsyncLogger(db *gorm.DB) *AsyncLogger {
	return &AsyncLogger{
		db: db,
		ch: make(chan log.Log, 1024),
	}
}

// ProcessLog drains the channel and writes entries. Run as a goroutine.
func (a *AsyncLogger) ProcessLog() {
	for entry := range a.ch {
		if err := a.db.Create(&entry).Error; err != nil {
			Error("Failed to persist request log", err)
		}
	}
}

// Enqueue submits a log entry without blocking.
func (a *AsyncLogger) Enqueue(entry log.Log) {
	select {
	case a.ch <- entry:
	default:
	}
}

// Middleware records every request after it completes.
func (a *AsyncLogger) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		entry := log.Log{
			Method:     c.Method(),
			Path:       c.Path(),
			StatusCode: c.Response().StatusCode(),
			IP:         c.IP(),
			LatencyMs:  time.Since(start).Milliseconds(),
		}
		if uid, ok := c.Locals("user_id").(uint); ok {
			entry.UserID = &uid
		}
		a.Enqueue(entry)
		return err
	}
}
