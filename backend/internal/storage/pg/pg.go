package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/boxforum/boxforum/backend/internal/service"
	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/domain"
	"github.com/boxforum/boxforum/shared/logger"
	"github.com/boxforum/boxforum/shared/middleware/metrics"
	sharedpg "github.com/boxforum/boxforum/shared/storage/pg"
	"github.com/google/uuid"
)

var _ service.ContentStorage = (*Storage)(nil)
var _ service.ContentTx = (*queries)(nil)

// Storage is the PostgreSQL Content Store. Reads outside a transaction go
// straight to the pool; WithTx hands out a queries bound to one *sql.Tx
// whose single-entity getters take row locks.
type Storage struct {
	db *sql.DB
	*queries
}

func New(cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to db", "host", cfg.Private.Pg.Host, "dbname", cfg.Private.Pg.Dbname)
	db, err := sharedpg.Connect(cfg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	logger.Log.Info("successfully connected to db")
	return NewFromDB(db), nil
}

func NewFromDB(db *sql.DB) *Storage {
	return &Storage{db: db, queries: &queries{q: db}}
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) WithTx(ctx context.Context, fn func(tx service.ContentTx) error) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("postgres", "tx", start, err) }()
	return sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&queries{q: tx, lock: true})
	})
}

func (s *Storage) ListBoxes(ctx context.Context) ([]domain.BoxSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, cardinality(threads)
		FROM boxes
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boxes: %w", err)
	}
	defer rows.Close()

	boxes := []domain.BoxSummary{}
	for rows.Next() {
		var b domain.BoxSummary
		if err := rows.Scan(&b.Id, &b.Name, &b.Description, &b.ThreadCount); err != nil {
			return nil, fmt.Errorf("failed to scan box: %w", err)
		}
		boxes = append(boxes, b)
	}
	return boxes, rows.Err()
}

// queries implements every Content Store statement over a Querier.
type queries struct {
	q    sharedpg.Querier
	lock bool
}

// forUpdate locks the selected row when running inside a transaction.
func (q *queries) forUpdate() string {
	if q.lock {
		return " FOR UPDATE"
	}
	return ""
}

// ids are uuids in the database; anything else cannot match a row.
func validId(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIds(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validId(id) {
			out = append(out, id)
		}
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
