// internal/models/models.go
package models

import "time"

// ImageRecord is one row of the deal image catalog. Position is the
// zero-based rank of the image within its deal; position 0 is the hero
// image shown first everywhere.
type ImageRecord struct {
	ID               int64     `db:"id"`
	DealID           int64     `db:"deal_voucher_id"`
	ResourcePath     string    `db:"resource_path"`
	StatusID         int       `db:"status_id"` // 1 = active
	FileName         string    `db:"file_name"`
	Caption          string    `db:"caption"`
	AltTag           string    `db:"alt_tag"`
	Extension        string    `db:"extension"`
	Position         int       `db:"position"`
	HasMobileVariant bool      `db:"has_iphone_img"`
	CreatedBy        int64     `db:"created_by_user_id"`
	CreatedAt        time.Time `db:"created_date"`
}

// Review results as written by the review tool.
const (
	ReviewPending    = "pending"
	ReviewApproved   = "approved"
	ReviewRejected   = "rejected"
	ReviewRegenerate = "regenerate"
)

// ReviewEntry is one human approval decision for an AI-generated
// candidate image. Entries are produced by the review dashboard; this
// service only consumes them.
type ReviewEntry struct {
	ID           int64
	DealID       int64
	ImageIDPos0  int64
	S3URL        string
	ReviewResult string
	Notes        string
}

// ReplaceResult describes one successful position-0 replacement.
type ReplaceResult struct {
	OriginalImageID int64             `json:"original_image_id"`
	NewImageID      int64             `json:"new_image_id"`
	DealID          int64             `json:"deal_id"`
	UploadedURLs    map[string]string `json:"uploaded_urls"`
	VariantCount    int               `json:"variants_count"`
}

// ItemFailure records a single failed work item within a batch.
type ItemFailure struct {
	ImageID int64  `json:"image_id"`
	Error   string `json:"error"`
}

// BatchSummary aggregates the outcome of a batch run. Mapping holds
// original image id -> new image id for every success and is the input
// to the reporting-store sync.
type BatchSummary struct {
	Total           int             `json:"total_processed"`
	Succeeded       int             `json:"successful_count"`
	Failed          int             `json:"failed_count"`
	Mapping         map[int64]int64 `json:"successful_mapping"`
	Failures        []ItemFailure   `json:"failed_images"`
	ReportingSynced bool            `json:"reporting_synced"`
}
