package store

import (
	"time"

	"github.com/ayoisaiah/respite/internal/models"
)

// DB is the database storage interface.
type DB interface {
	// UpdateDay creates or overwrites the record for the day of d.
	UpdateDay(d *models.DayStats) error
	// GetDay returns the record for the day containing t, or nil when there
	// is none
	GetDay(t time.Time) (*models.DayStats, error)
	// GetDays returns the records from the day of since through the day of
	// until, oldest first
	GetDays(since, until time.Time) ([]models.DayStats, error)
	// DeleteDays removes every record before the day of t
	DeleteDays(before time.Time) (int, error)
	// Close ends the database connection
	Close() error
}
