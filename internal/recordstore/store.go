// Package recordstore keeps a homogeneous collection of records in a single
// JSON file. The whole collection is read and written at once; there is no
// append mode.
//
// A Store serializes its own callers: Load, Save and Update all take the same
// mutex, and Update holds it across the full load → mutate → save cycle, so
// two concurrent read-modify-write sequences cannot lose each other's
// changes. Separate processes sharing a file are not coordinated.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/filex"
)

var emptyCollection = []byte("[]")

// Store is a file-backed collection of T.
type Store[T any] struct {
	path string
	mu   sync.Mutex
}

// Open returns a Store bound to path. When the file does not exist it is
// created, along with its directory, holding an empty collection.
func Open[T any](path string) (*Store[T], error) {
	if _, err := filex.EnsureFile(path, emptyCollection); err != nil {
		return nil, &StorageError{Op: "open", Path: path, Kind: ErrIO, Err: err}
	}
	return &Store[T]{path: path}, nil
}

// Path returns the backing file path.
func (s *Store[T]) Path() string {
	return s.path
}

// Load reads and decodes the full collection in storage order.
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save encodes records and replaces the file content with them.
func (s *Store[T]) Save(ctx context.Context, records []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, records)
}

// Update loads the collection, passes it to fn and saves whatever fn
// returns. The store stays locked for the whole sequence. If fn fails the
// file is not written and fn's error is returned unchanged.
func (s *Store[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}

	next, err := fn(records)
	if err != nil {
		return err
	}

	return s.save(ctx, next)
}

func (s *Store[T]) load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &StorageError{Op: "load", Path: s.path, Kind: ErrIO, Err: err}
	}

	var records []T
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, &StorageError{Op: "load", Path: s.path, Kind: ErrParse, Err: err}
	}
	if records == nil {
		// "null" is valid JSON but not a collection.
		return nil, &StorageError{Op: "load", Path: s.path, Kind: ErrParse, Err: errors.New("collection is null")}
	}
	return records, nil
}

func (s *Store[T]) save(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if records == nil {
		records = []T{}
	}

	b, err := json.Marshal(records)
	if err != nil {
		return &StorageError{Op: "save", Path: s.path, Kind: ErrParse, Err: err}
	}

	if err := filex.WriteFileAtomic(s.path, b); err != nil {
		return &StorageError{Op: "save", Path: s.path, Kind: ErrIO, Err: err}
	}
	return nil
}
