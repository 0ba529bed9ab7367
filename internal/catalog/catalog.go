// Package catalog persists which container holds which entry, so a file name can be
// resolved to its container without decoding every container again.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"mhyunpack/internal/container"
)

var (
	containersBucket = []byte("containers")
	entriesBucket    = []byte("entries")
)

// ErrClosed is returned by every method after Close
var ErrClosed = errors.New("catalog closed")

// ContainerRecord describes one indexed container file
type ContainerRecord struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	Session  string    `json:"session"`
	Envelope string    `json:"envelope"`
	Codec    string    `json:"codec"`
	Entries  int       `json:"entries"`
	Failed   int       `json:"failed"`
}

// Location is where an entry lives
type Location struct {
	Container string `json:"container"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
}

// Catalog is a bbolt database with one bucket per record kind
type Catalog struct {
	db *bolt.DB
}

// Open creates or opens the database at path
func Open(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is empty")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(containersBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// entryKey is the lower-cased file name; streaming paths only carry the base name
func entryKey(name string) []byte {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return []byte(strings.ToLower(name))
}

// Record stores a decoded bundle. Entries of an earlier record for the same path are replaced.
func (c *Catalog) Record(b *container.Bundle, fi os.FileInfo) error {
	if c.db == nil {
		return ErrClosed
	}
	rec := ContainerRecord{
		Path:     b.Path,
		Session:  b.Session.String(),
		Envelope: b.Header.Generation.String(),
		Codec:    b.Codec,
		Entries:  len(b.Entries),
		Failed:   len(b.Failures),
	}
	if fi != nil {
		rec.Size, rec.ModTime = fi.Size(), fi.ModTime().UTC()
	}
	bz, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket(entriesBucket)
		if err := dropEntries(entries, b.Path); err != nil {
			return err
		}
		for _, e := range b.Entries {
			loc, err := json.Marshal(Location{Container: b.Path, Path: e.Path, Size: e.Size})
			if err != nil {
				return err
			}
			if err := entries.Put(entryKey(e.Path), loc); err != nil {
				return err
			}
		}
		return tx.Bucket(containersBucket).Put([]byte(b.Path), bz)
	})
}

func dropEntries(entries *bolt.Bucket, containerPath string) error {
	var stale [][]byte
	err := entries.ForEach(func(k, v []byte) error {
		var loc Location
		if err := json.Unmarshal(v, &loc); err != nil {
			return err
		}
		if loc.Container == containerPath {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range stale {
		if err := entries.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Lookup finds the container holding name, by file name and case-insensitively
func (c *Catalog) Lookup(name string) (Location, bool, error) {
	if c.db == nil {
		return Location{}, false, ErrClosed
	}
	var loc Location
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(entriesBucket).Get(entryKey(name))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &loc)
	})
	return loc, found, err
}

// Container returns the record for a container path
func (c *Catalog) Container(path string) (ContainerRecord, bool, error) {
	if c.db == nil {
		return ContainerRecord{}, false, ErrClosed
	}
	var rec ContainerRecord
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(containersBucket).Get([]byte(path))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	return rec, found, err
}

// Containers lists every record in path order
func (c *Catalog) Containers() ([]ContainerRecord, error) {
	if c.db == nil {
		return nil, ErrClosed
	}
	var out []ContainerRecord
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(containersBucket).ForEach(func(_, v []byte) error {
			var rec ContainerRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

// Fresh reports whether the record for fi's container still matches the file on disk
func (c *Catalog) Fresh(path string, fi os.FileInfo) bool {
	rec, ok, err := c.Container(path)
	if err != nil || !ok || fi == nil {
		return false
	}
	return rec.Size == fi.Size() && rec.ModTime.Equal(fi.ModTime().UTC())
}
