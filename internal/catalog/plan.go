package catalog

import (
	"fmt"

	"github.com/oatesewow/ai-images/internal/models"
)

// PositionChange is one row move in a reorder plan.
type PositionChange struct {
	ImageID     int64
	OldPosition int
	NewPosition int
}

// PlanReplacement computes the full position rewrite for putting a new
// image at position 0, entirely in memory before anything is written:
//
//   - the replaced image is demoted to position 2, still visible as a
//     secondary image;
//   - the image at position 1 is left where it is;
//   - any other row unexpectedly sitting at position 0 is pushed to 3;
//   - everything else shifts down by one.
//
// records must be the deal's active rows; the new image itself is not
// part of the plan, it is inserted at 0 afterwards.
func PlanReplacement(records []models.ImageRecord, originalImageID int64) ([]PositionChange, error) {
	const op = "catalog.PlanReplacement"

	found := false
	for _, r := range records {
		if r.ID == originalImageID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%s: image %d: %w", op, originalImageID, ErrImageNotFound)
	}

	changes := make([]PositionChange, 0, len(records))
	for _, r := range records {
		var newPos int
		switch {
		case r.ID == originalImageID:
			newPos = 2
		case r.Position == 1:
			newPos = 1
		case r.Position == 0:
			// A second row at position 0 should not exist; push it
			// behind the demoted image rather than fail the deal.
			newPos = 3
		default:
			newPos = r.Position + 1
		}
		changes = append(changes, PositionChange{
			ImageID:     r.ID,
			OldPosition: r.Position,
			NewPosition: newPos,
		})
	}
	return changes, nil
}
