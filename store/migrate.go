package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ayoisaiah/respite/internal/timeutil"
)

const schemaVersion = 1

// migrateDayKeys rewrites records keyed by a full timestamp to the day key
// of the day they hold.
func migrateDayKeys(tx *bbolt.Tx) error {
	bucket := tx.Bucket([]byte(daysBucket))

	type record struct {
		Day time.Time `json:"day"`
	}

	var (
		stale   [][]byte
		rekeyed [][2][]byte
	)

	cur := bucket.Cursor()

	for k, v := cur.First(); k != nil; k, v = cur.Next() {
		var r record

		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("migrating %s: %w", k, err)
		}

		newKey := timeutil.DayKey(r.Day)
		if string(newKey) == string(k) {
			continue
		}

		stale = append(stale, append([]byte(nil), k...))
		rekeyed = append(rekeyed, [2][]byte{newKey, append([]byte(nil), v...)})
	}

	for _, k := range stale {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}

	for _, kv := range rekeyed {
		if err := bucket.Put(kv[0], kv[1]); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) migrate(tx *bbolt.Tx) error {
	meta := tx.Bucket([]byte(metaBucket))

	var version uint32
	if v := meta.Get(schemaKey); len(v) == 4 {
		version = binary.BigEndian.Uint32(v)
	}

	if version >= schemaVersion {
		return nil
	}

	if err := migrateDayKeys(tx); err != nil {
		return err
	}

	return meta.Put(schemaKey, binary.BigEndian.AppendUint32(nil, schemaVersion))
}
