// Package store persists named diagrams.
//
// # Backends
//
// Every backend implements [Store]:
//
//   - [FileStore] writes one JSON file per diagram, the CLI default
//   - [SQLiteStore] keeps diagrams in a single SQLite database
//   - [RedisStore] and [MongoStore] are for servers sharing diagrams
//
// [Open] picks a backend from a [Config] and wraps it so that every call
// reports to the observability store hooks.
//
// # Records
//
// A [Record] is a document plus its name and timestamps. Put assigns an ID
// when the record has none and sets CreatedAt/UpdatedAt; IDs are validated
// with [errors.ValidateStoreID] since they become file names and keys.
// Get and Delete return a NOT_FOUND error for unknown IDs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
	"github.com/matzehuels/netdraw/pkg/observability"
)

// Record is a stored diagram.
type Record struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Document  *diagram.Document `json:"document"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Summary describes a stored diagram without its document.
type Summary struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Stats     diagram.Stats `json:"stats"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store is the interface for diagram storage backends.
type Store interface {
	// Get returns the record with the given ID.
	Get(ctx context.Context, id string) (*Record, error)
	// Put creates or replaces a record.
	Put(ctx context.Context, rec *Record) error
	// List returns all records, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	// Delete removes a record.
	Delete(ctx context.Context, id string) error
	// Close releases the backend's resources.
	Close() error
}

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendFile, BackendSQLite, BackendRedis, BackendMongo}

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Path is the directory for file and the database file for sqlite.
	Path      string
	RedisAddr string
	MongoURI  string
	// MongoDatabase defaults to "netdraw".
	MongoDatabase string
}

// Open returns the backend named by cfg.Backend (file when empty).
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	backend := strings.ToLower(cfg.Backend)
	switch backend {
	case "", BackendFile:
		backend = BackendFile
		s, err = NewFileStore(cfg.Path)
	case BackendSQLite:
		s, err = NewSQLiteStore(cfg.Path)
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.RedisAddr)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q (must be one of: %s)",
			cfg.Backend, strings.Join(Backends, ", "))
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, backend), nil
}

// prepare validates rec and fills in its ID and timestamps.
func prepare(rec *Record, now time.Time) error {
	if rec == nil || rec.Document == nil {
		return errors.New(errors.ErrCodeInvalidInput, "record has no document")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := errors.ValidateStoreID(rec.ID); err != nil {
		return err
	}
	if err := diagram.Validate(rec.Document); err != nil {
		return err
	}
	if rec.Name == "" {
		rec.Name = rec.ID
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "diagram %q not found", id)
}

func summarize(rec *Record) Summary {
	s := Summary{ID: rec.ID, Name: rec.Name, UpdatedAt: rec.UpdatedAt}
	if rec.Document != nil {
		s.Stats = rec.Document.Stats()
	}
	return s
}

func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].ID < s[j].ID
		}
		return s[i].UpdatedAt.After(s[j].UpdatedAt)
	})
}

func encodeDocument(d *diagram.Document) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func decodeDocument(id string, data []byte) (*diagram.Document, error) {
	var d diagram.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "stored diagram %q is corrupt", id)
	}
	return &d, nil
}

// instrumented reports every call to the store hooks.
type instrumented struct {
	inner   Store
	backend string
}

// Instrument wraps s so that its calls are reported to
// observability.Store() under the given backend name.
func Instrument(s Store, backend string) Store {
	return &instrumented{inner: s, backend: backend}
}

func (s *instrumented) report(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, s.backend, op, time.Since(start), err)
}

func (s *instrumented) Get(ctx context.Context, id string) (*Record, error) {
	start := time.Now()
	rec, err := s.inner.Get(ctx, id)
	s.report(ctx, "get", start, err)
	return rec, err
}

func (s *instrumented) Put(ctx context.Context, rec *Record) error {
	start := time.Now()
	err := s.inner.Put(ctx, rec)
	s.report(ctx, "put", start, err)
	return err
}

func (s *instrumented) List(ctx context.Context) ([]Summary, error) {
	start := time.Now()
	out, err := s.inner.List(ctx)
	s.report(ctx, "list", start, err)
	return out, err
}

func (s *instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, id)
	s.report(ctx, "delete", start, err)
	return err
}

func (s *instrumented) Close() error { return s.inner.Close() }
