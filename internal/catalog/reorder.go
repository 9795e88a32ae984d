package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ReplacePositionZero commits a position-0 replacement as one
// transaction: snapshot the deal's active rows, apply the reorder plan
// as a batched write, then insert the new record at position 0 using
// the replaced record as its template (same resource path, extension
// and mobile flag, fresh name and caption). Any failure rolls the
// whole deal back to exactly its prior state.
//
// Two replacements running against the same deal at once can interleave
// between snapshot and write and corrupt positions; callers must not
// submit the same deal concurrently.
func (s *Storage) ReplacePositionZero(ctx context.Context, dealID, originalImageID, newImageID int64, fileName string) error {
	return replacePositionZero(ctx, s.pool, s.createdBy, dealID, originalImageID, newImageID, fileName)
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func replacePositionZero(ctx context.Context, db txBeginner, createdBy, dealID, originalImageID, newImageID int64, fileName string) error {
	const op = "catalog.ReplacePositionZero"

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	defer tx.Rollback(ctx)

	records, err := activeImages(ctx, tx, dealID)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%s: no active images for deal %d: %w", op, dealID, ErrImageNotFound)
	}

	changes, err := PlanReplacement(records, originalImageID)
	if err != nil {
		return fmt.Errorf("%s: deal %d: %w", op, dealID, err)
	}

	replaced := records[0]
	for _, r := range records {
		if r.ID == originalImageID {
			replaced = r
			break
		}
	}
	extension := replaced.Extension
	if extension == "" {
		extension = "jpg"
	}
	caption := fmt.Sprintf("Variant image %d", newImageID)

	batch := &pgx.Batch{}
	for _, c := range changes {
		if c.NewPosition == c.OldPosition {
			continue
		}
		batch.Queue(
			`UPDATE deal_voucher_image SET position = $1
			 WHERE id = $2 AND deal_voucher_id = $3`,
			c.NewPosition, c.ImageID, dealID)
	}
	batch.Queue(
		`INSERT INTO deal_voucher_image (
		     id, deal_voucher_id, resource_path, status_id,
		     file_name, caption, position, alt_tag,
		     extension, has_iphone_img, created_by_user_id, created_date
		 ) VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, now())`,
		newImageID, dealID, replaced.ResourcePath, activeStatus,
		fileName, caption, caption, extension, replaced.HasMobileVariant, createdBy)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("%s: deal %d: %v", op, dealID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("%s: deal %d: %v", op, dealID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: deal %d: %v", op, dealID, err)
	}
	return nil
}
