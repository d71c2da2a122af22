// Package store keeps daily break statistics in a BoltDB file
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/respite/internal/models"
	"github.com/ayoisaiah/respite/internal/timeutil"
)

const (
	daysBucket = "days"
	metaBucket = "meta"
)

var schemaKey = []byte("schema")

var errDatabaseLocked = errors.New(
	"the statistics database is in use by another process",
)

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

func (c *Client) UpdateDay(d *models.DayStats) error {
	value, err := json.Marshal(d)
	if err != nil {
		return err
	}

	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(daysBucket)).Put(timeutil.DayKey(d.Day), value)
	})
}

func (c *Client) GetDay(t time.Time) (*models.DayStats, error) {
	var day *models.DayStats

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(daysBucket)).Get(timeutil.DayKey(t))
		if len(v) == 0 {
			return nil
		}

		day = &models.DayStats{}

		return json.Unmarshal(v, day)
	})

	return day, err
}

func (c *Client) GetDays(since, until time.Time) ([]models.DayStats, error) {
	var days []models.DayStats

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(daysBucket)).Cursor()
		max := timeutil.DayKey(until)

		for k, v := cur.Seek(timeutil.DayKey(since)); k != nil && bytes.Compare(k, max) <= 0; k, v = cur.Next() {
			var d models.DayStats

			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("day %s: %w", k, err)
			}

			days = append(days, d)
		}

		return nil
	})

	return days, err
}

func (c *Client) DeleteDays(before time.Time) (int, error) {
	var n int

	err := c.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(daysBucket))
		cur := bucket.Cursor()
		min := timeutil.DayKey(before)

		var stale [][]byte

		for k, _ := cur.First(); k != nil && bytes.Compare(k, min) < 0; k, _ = cur.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}

		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}

		n = len(stale)

		return nil
	})

	return n, err
}

// open creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, errDatabaseLocked
		}

		return nil, err
	}

	return db, nil
}

// NewClient returns a wrapper to a BoltDB connection. Missing buckets are
// created and older records are migrated to the current schema.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	c := &Client{db}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(daysBucket)); err != nil {
			return err
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(metaBucket)); err != nil {
			return err
		}

		return c.migrate(tx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return c, nil
}
