// Package store persists chart records in SQLite, keyed on source, region and
// epoch. Writes are buffered until Flush so readers only observe committed
// records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

// Store is a single-writer record store.
type Store struct {
	db      *sql.DB
	pending []domain.ChartRecord
	index   map[string]int // record key -> position in pending
}

// Open opens (creating if needed) the database at dsn. Use ":memory:" for a
// throwaway store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dsn, err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", dsn, err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, index: map[string]int{}}, nil
}

// Upsert stages rec for writing. A staged or stored record with the same key
// is replaced when the batch is flushed.
func (s *Store) Upsert(rec domain.ChartRecord) {
	rec.Epoch = domain.Midnight(rec.Epoch)
	key := rec.Key()
	if i, ok := s.index[key]; ok {
		s.pending[i] = rec
		return
	}
	s.index[key] = len(s.pending)
	s.pending = append(s.pending, rec)
}

// Pending returns the number of staged records.
func (s *Store) Pending() int { return len(s.pending) }

// Flush writes staged records in one transaction and returns them in staging
// order. On error nothing is committed and the batch stays staged.
func (s *Store) Flush(ctx context.Context) ([]domain.ChartRecord, error) {
	if len(s.pending) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin flush: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO items
		(name, href, source, region, epoch, format, document, exact_geometry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range s.pending {
		if _, err := stmt.ExecContext(ctx,
			r.Name, r.Href, r.Source.String(), r.Region, r.Epoch.Format(domain.EpochLayout),
			r.Format.String(), r.Document, r.ExactGeometry,
		); err != nil {
			return nil, fmt.Errorf("upsert %s: %w", r.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit flush: %w", err)
	}

	flushed := s.pending
	s.pending = nil
	s.index = map[string]int{}
	return flushed, nil
}

// Close flushes staged records and closes the database.
func (s *Store) Close(ctx context.Context) error {
	_, flushErr := s.Flush(ctx)
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return flushErr
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MostRecentEpoch returns the latest committed epoch for source. ok is false
// when nothing is stored for the source.
func (s *Store) MostRecentEpoch(ctx context.Context, source domain.Source) (epoch time.Time, ok bool, err error) {
	var latest sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT MAX(epoch) FROM items WHERE source = ?`, source.String(),
	).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest epoch for %s: %w", source, err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	epoch, err = parseEpoch(latest.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return epoch, true, nil
}

// Filter selects records. Zero-valued fields match everything; From and To
// are inclusive.
type Filter struct {
	Source        domain.Source
	Region        string
	From, To      time.Time
	ExactGeometry *bool
}

// InYear narrows f to one calendar year.
func (f Filter) InYear(year int) Filter {
	f.From = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	f.To = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return f
}

func (f Filter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Source != 0 {
		clauses = append(clauses, "source = ?")
		args = append(args, f.Source.String())
	}
	if f.Region != "" {
		clauses = append(clauses, "region = ?")
		args = append(args, f.Region)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "epoch >= ?")
		args = append(args, f.From.Format(domain.EpochLayout))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "epoch <= ?")
		args = append(args, f.To.Format(domain.EpochLayout))
	}
	if f.ExactGeometry != nil {
		clauses = append(clauses, "exact_geometry = ?")
		args = append(args, *f.ExactGeometry)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Query returns committed records matching f ordered by source, region and
// descending epoch.
func (s *Store) Query(ctx context.Context, f Filter) ([]domain.ChartRecord, error) {
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, href, source, region, epoch, format, document, exact_geometry FROM items`+
			where+` ORDER BY source, region, epoch DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []domain.ChartRecord
	for rows.Next() {
		var (
			rec           domain.ChartRecord
			source, epoch string
			format        string
		)
		if err := rows.Scan(&rec.Name, &rec.Href, &source, &rec.Region, &epoch, &format,
			&rec.Document, &rec.ExactGeometry); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if rec.Source, err = domain.ParseSource(source); err != nil {
			return nil, err
		}
		if rec.Epoch, err = parseEpoch(epoch); err != nil {
			return nil, err
		}
		rec.Format = domain.ParseFormat(format)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return out, nil
}

func parseEpoch(s string) (time.Time, error) {
	t, err := time.Parse(domain.EpochLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored epoch %q: %w", s, err)
	}
	return t, nil
}
