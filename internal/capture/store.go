// Package capture persists completed relationship requests for later
// inspection: the generated queries, the raw rows the store returned and the
// resulting graph.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
	"github.com/rohankatakam/relfinder/internal/finder"
)

const (
	capturesBucket = "captures"
	indexBucket    = "capture_index"
)

// ErrNotFound is returned by Get for an unknown capture id
var ErrNotFound = errors.New("capture not found")

// Capture is one recorded request
type Capture struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	finder.Trace
}

// Summary is the listing form of a capture
type Summary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	MaxDistance int       `json:"max_distance"`
	Queries     int       `json:"queries"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
}

// Store is a bbolt-backed finder.Recorder. Ids are time-ordered UUIDs, so
// key order is recording order.
type Store struct {
	db     *bolt.DB
	now    func() time.Time
	logger *slog.Logger
}

// Open opens or creates the capture database at path
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, apperrors.StorageErrorf(err, "failed to open capture store %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{capturesBucket, indexBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create capture buckets: %w", err)
	}

	return &Store{
		db:     db,
		now:    time.Now,
		logger: slog.Default().With("component", "capture"),
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores trace under a new id
func (s *Store) Record(_ context.Context, trace finder.Trace) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate capture id: %w", err)
	}

	c := Capture{ID: id.String(), CreatedAt: s.now().UTC(), Trace: trace}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}
	summary, err := json.Marshal(summarize(c))
	if err != nil {
		return fmt.Errorf("failed to encode capture summary: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(capturesBucket)).Put([]byte(c.ID), data); err != nil {
			return err
		}
		return tx.Bucket([]byte(indexBucket)).Put([]byte(c.ID), summary)
	})
	if err != nil {
		return apperrors.StorageErrorf(err, "failed to store capture")
	}

	s.logger.Debug("request captured", "id", c.ID, "bytes", len(data))
	return nil
}

// List returns up to limit summaries, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Summary, error) {
	summaries := []Summary{}

	err := s.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(indexBucket)).Cursor()
		for k, v := cur.Last(); k != nil; k, v = cur.Prev() {
			if limit > 0 && len(summaries) >= limit {
				break
			}
			var sum Summary
			if err := json.Unmarshal(v, &sum); err != nil {
				return fmt.Errorf("corrupt capture summary %s: %w", k, err)
			}
			summaries = append(summaries, sum)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// Get returns the full capture with the given id
func (s *Store) Get(id string) (*Capture, error) {
	var c Capture

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(capturesBucket)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func summarize(c Capture) Summary {
	sum := Summary{
		ID:          c.ID,
		CreatedAt:   c.CreatedAt,
		Source:      c.Source,
		Destination: c.Destination,
		MaxDistance: c.MaxDistance,
		Queries:     len(c.Results),
	}
	if c.Graph != nil {
		sum.Nodes = len(c.Graph.Nodes)
		sum.Edges = len(c.Graph.Edges)
	}
	return sum
}
