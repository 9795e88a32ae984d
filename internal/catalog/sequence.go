package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrSequenceMissing means neither known image id sequence exists in
// the connected schema. That is deployment drift, not a transient
// fault: callers must surface it and never retry.
var ErrSequenceMissing = errors.New("catalog: no usable image id sequence")

const (
	primarySequence  = "deal_voucher_image_seq"
	fallbackSequence = "product_image_seq"
)

// NextImageID allocates a fresh catalog id. Older environments never
// got the dedicated image sequence, so the legacy product sequence is
// tried second. Allocated ids are never recycled; an id orphaned by a
// later failure is an accepted cost.
func (s *Storage) NextImageID(ctx context.Context) (int64, error) {
	return nextImageID(ctx, s.pool)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func nextImageID(ctx context.Context, q rowQuerier) (int64, error) {
	const op = "catalog.NextImageID"

	var id int64
	errPrimary := q.QueryRow(ctx, fmt.Sprintf("SELECT nextval('%s')", primarySequence)).Scan(&id)
	if errPrimary == nil {
		return id, nil
	}

	errFallback := q.QueryRow(ctx, fmt.Sprintf("SELECT nextval('%s')", fallbackSequence)).Scan(&id)
	if errFallback == nil {
		return id, nil
	}

	return 0, fmt.Errorf("%s: tried %s (%v) and %s (%v): %w",
		op, primarySequence, errPrimary, fallbackSequence, errFallback, ErrSequenceMissing)
}
