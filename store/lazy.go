package store

import (
	"time"

	"github.com/ayoisaiah/respite/internal/models"
)

// Lazy opens the database for every call and closes it afterwards, so that
// the lock is only held while a record is read or written. The daemon uses
// it to let `respite stats` read between flushes.
type Lazy struct {
	path string
}

func NewLazy(dbPath string) *Lazy {
	return &Lazy{path: dbPath}
}

func (l *Lazy) with(fn func(c *Client) error) error {
	c, err := NewClient(l.path)
	if err != nil {
		return err
	}

	err = fn(c)

	if closeErr := c.Close(); err == nil {
		err = closeErr
	}

	return err
}

func (l *Lazy) UpdateDay(d *models.DayStats) error {
	return l.with(func(c *Client) error {
		return c.UpdateDay(d)
	})
}

func (l *Lazy) GetDay(t time.Time) (*models.DayStats, error) {
	var d *models.DayStats

	err := l.with(func(c *Client) error {
		var err error

		d, err = c.GetDay(t)

		return err
	})

	return d, err
}
