package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/maine/rssnotify/internal/news"
)

const deliveriesTable = "deliveries"

// Backend names a supported database.
type Backend string

const (
	SQLite   Backend = "sqlite"
	Postgres Backend = "postgres"
)

// Store remembers which destination URLs were already posted.
type Store struct {
	db      *sql.DB
	backend Backend
	flavor  sqlbuilder.Flavor
	clock   func() time.Time
}

// BackendFor picks the backend from the DSN. Anything that is not a
// postgres:// URL is treated as a SQLite file path.
func BackendFor(dsn string) Backend {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// sqliteDSN appends the connection pragmas to a SQLite file path or URI,
// keeping any query it already has.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open connects to the database and creates the deliveries table if it does
// not exist yet. The caller owns the Store and must Close it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	backend := BackendFor(dsn)

	var (
		db     *sql.DB
		flavor sqlbuilder.Flavor
		err    error
	)
	switch backend {
	case Postgres:
		db, err = sql.Open("pgx", dsn)
		flavor = sqlbuilder.PostgreSQL
	default:
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		flavor = sqlbuilder.SQLite
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	if backend == SQLite {
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", backend, err)
	}

	if err := migrateUp(db, backend); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, backend: backend, flavor: flavor, clock: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// HasBeenDelivered reports whether url was recorded by an earlier delivery.
func (s *Store) HasBeenDelivered(ctx context.Context, url string) (bool, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("1").From(deliveriesTable).Where(sb.Equal("url", url)).Limit(1)
	query, args := sb.Build()

	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query delivery: %w", err)
	}
	return true, nil
}

// RecordDelivered stores url as delivered. Recording the same url twice is a
// no-op.
func (s *Store) RecordDelivered(ctx context.Context, title, url string) error {
	ib := s.flavor.NewInsertBuilder()
	ib.InsertInto(deliveriesTable).
		Cols("url", "title", "created_at").
		Values(url, title, s.clock().UTC())
	query, args := ib.Build()
	query += " ON CONFLICT (url) DO NOTHING"

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.WithFields(log.Fields{
			"url": url,
		}).Debug("Delivery already recorded")
	}
	return nil
}

// List returns up to limit delivery records, newest first. A non-positive
// limit returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]news.DeliveryRecord, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("id", "url", "title", "created_at").From(deliveriesTable).OrderBy("id").Desc()
	if limit > 0 {
		sb.Limit(limit)
	}
	query, args := sb.Build()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var records []news.DeliveryRecord
	for rows.Next() {
		var rec news.DeliveryRecord
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Title, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return records, nil
}
