// internal/reporting/reporting.go
package reporting

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oatesewow/ai-images/internal/models"
	"github.com/oatesewow/ai-images/internal/s3store"
)

// Test lifecycle states in opt_image_variants.
const (
	statusUnderTest = 1
	statusExited    = 3
)

// Store is the separate reporting database tracking images under test.
// It is written on entry (when an approved candidate is promoted) and
// on exit (when the replacement lands in the catalog).
type Store struct {
	pool      *pgxpool.Pool
	batchName string
	listName  string
}

func New(ctx context.Context, dsn, batchName, listName string) (*Store, error) {
	const op = "reporting.New"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &Store{pool: pool, batchName: batchName, listName: listName}, nil
}

func (s *Store) Close() { s.pool.Close() }

// MarkExited records that one image left the test: status moves to
// exited, the exit timestamp is stamped and the newly allocated catalog
// id is attached. Returns false when no under-test row matched.
func (s *Store) MarkExited(ctx context.Context, originalImageID, newImageID int64) (bool, error) {
	const op = "reporting.MarkExited"

	tag, err := s.pool.Exec(ctx,
		`UPDATE opt_image_variants
		 SET status = $1, exit_test_ts = now(), variant_image_id = $2
		 WHERE original_image_id = $3 AND status = $4`,
		statusExited, newImageID, originalImageID, statusUnderTest)
	if err != nil {
		return false, fmt.Errorf("%s: image %d: %v", op, originalImageID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkExitedBatch applies a whole success mapping in one round trip:
// the mapping is bulk-loaded into a session temp table and joined into
// a single UPDATE. Returns the number of rows updated.
func (s *Store) MarkExitedBatch(ctx context.Context, mapping map[int64]int64) (int64, error) {
	const op = "reporting.MarkExitedBatch"

	if len(mapping) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`CREATE TEMP TABLE image_exits (
		     original_image_id  BIGINT,
		     new_variant_image_id BIGINT
		 ) ON COMMIT DROP`)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}

	rows := make([][]any, 0, len(mapping))
	for originalID, newID := range mapping {
		rows = append(rows, []any{originalID, newID})
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"image_exits"},
		[]string{"original_image_id", "new_variant_image_id"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE opt_image_variants
		 SET status = $1,
		     exit_test_ts = now(),
		     variant_image_id = image_exits.new_variant_image_id
		 FROM image_exits
		 WHERE opt_image_variants.original_image_id = image_exits.original_image_id
		   AND opt_image_variants.status = $2`,
		statusExited, statusUnderTest)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %v", op, err)
	}
	return tag.RowsAffected(), nil
}

// EnterTest registers approved review entries as under test. The
// variant id recorded here is the candidate-object convention, not a
// catalog id; the catalog id replaces it at exit time.
func (s *Store) EnterTest(ctx context.Context, entries []models.ReviewEntry) (int64, error) {
	const op = "reporting.EnterTest"

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO opt_image_variants (
			     deal_voucher_id, claid_prompt, status, original_image_id,
			     variant_image_id, batch_name, enter_test_ts, list_name
			 ) VALUES ($1, '', $2, $3, $4, $5, now(), $6)`,
			e.DealID, statusUnderTest, e.ImageIDPos0,
			s3store.TestVariantID(e.ImageIDPos0), s.batchName, s.listName)
	}

	br := s.pool.SendBatch(ctx, batch)
	var inserted int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return inserted, fmt.Errorf("%s: %v", op, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return inserted, fmt.Errorf("%s: %v", op, err)
	}
	return inserted, nil
}

// ActiveOriginalIDs lists the distinct originals still under test.
func (s *Store) ActiveOriginalIDs(ctx context.Context) ([]int64, error) {
	const op = "reporting.ActiveOriginalIDs"

	rows, err := s.pool.Query(ctx,
		`SELECT original_image_id FROM opt_image_variants
		 WHERE status = $1 GROUP BY original_image_id`,
		statusUnderTest)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return ids, nil
}
