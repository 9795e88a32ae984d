// internal/catalog/storage.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Storage is the deal image catalog: the image-record table plus the
// id sequence that feeds it. All access goes through a shared
// connection pool; units of work acquire and release connections
// deterministically via pool/tx scoping.
type Storage struct {
	pool      *pgxpool.Pool
	db        *sql.DB // for migrations
	createdBy int64
}

func NewStorage(ctx context.Context, dsn string, createdBy int64) (*Storage, error) {
	const op = "catalog.NewStorage"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	return &Storage{pool: pool, db: db, createdBy: createdBy}, nil
}

func (s *Storage) Close() {
	s.db.Close()
	s.pool.Close()
}
