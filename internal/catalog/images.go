package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oatesewow/ai-images/internal/models"
)

// ErrImageNotFound marks a stale or wrong image identifier. It is
// fatal for the single work item, not for a batch.
var ErrImageNotFound = errors.New("catalog: image not found")

const activeStatus = 1

// DealIDForImage resolves the deal that owns an image.
func (s *Storage) DealIDForImage(ctx context.Context, imageID int64) (int64, error) {
	const op = "catalog.DealIDForImage"

	var dealID int64
	err := s.pool.QueryRow(ctx,
		`SELECT deal_voucher_id FROM deal_voucher_image WHERE id = $1`,
		imageID).Scan(&dealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%s: image %d: %w", op, imageID, ErrImageNotFound)
		}
		return 0, fmt.Errorf("%s: %v", op, err)
	}
	return dealID, nil
}

func (s *Storage) GetImage(ctx context.Context, imageID int64) (*models.ImageRecord, error) {
	const op = "catalog.GetImage"

	var img models.ImageRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, deal_voucher_id, resource_path, status_id, file_name, caption,
		        alt_tag, COALESCE(extension, 'jpg'), position, has_iphone_img,
		        created_by_user_id, created_date
		 FROM deal_voucher_image WHERE id = $1`,
		imageID).Scan(&img.ID, &img.DealID, &img.ResourcePath, &img.StatusID,
		&img.FileName, &img.Caption, &img.AltTag, &img.Extension, &img.Position,
		&img.HasMobileVariant, &img.CreatedBy, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: image %d: %w", op, imageID, ErrImageNotFound)
		}
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &img, nil
}

// ActiveImages returns the deal's active records ordered by position.
func (s *Storage) ActiveImages(ctx context.Context, dealID int64) ([]models.ImageRecord, error) {
	return activeImages(ctx, s.pool, dealID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func activeImages(ctx context.Context, q querier, dealID int64) ([]models.ImageRecord, error) {
	const op = "catalog.activeImages"

	rows, err := q.Query(ctx,
		`SELECT id, deal_voucher_id, resource_path, status_id, file_name, caption,
		        alt_tag, COALESCE(extension, 'jpg'), position, has_iphone_img,
		        created_by_user_id, created_date
		 FROM deal_voucher_image
		 WHERE deal_voucher_id = $1 AND status_id = $2
		 ORDER BY position`,
		dealID, activeStatus)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer rows.Close()

	var images []models.ImageRecord
	for rows.Next() {
		var img models.ImageRecord
		if err := rows.Scan(&img.ID, &img.DealID, &img.ResourcePath, &img.StatusID,
			&img.FileName, &img.Caption, &img.AltTag, &img.Extension, &img.Position,
			&img.HasMobileVariant, &img.CreatedBy, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return images, nil
}
