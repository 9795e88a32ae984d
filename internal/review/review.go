// internal/review/review.go
package review

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/oatesewow/ai-images/internal/models"
)

// LoadApprovedCSV reads a review-tool export and returns only the
// entries a human approved. Required columns: id (the deal),
// image_id_pos_0, s3_url, review_result.
func LoadApprovedCSV(path string) ([]models.ReviewEntry, error) {
	const op = "review.LoadApprovedCSV"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %v", op, err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"id", "image_id_pos_0", "s3_url", "review_result"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", op, required)
		}
	}

	var entries []models.ReviewEntry
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %v", op, line, err)
		}

		if record[cols["review_result"]] != models.ReviewApproved {
			continue
		}

		dealID, err := strconv.ParseInt(record[cols["id"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: bad deal id %q", op, line, record[cols["id"]])
		}
		imageID, err := strconv.ParseInt(record[cols["image_id_pos_0"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: bad image id %q", op, line, record[cols["image_id_pos_0"]])
		}

		e := models.ReviewEntry{
			DealID:       dealID,
			ImageIDPos0:  imageID,
			S3URL:        record[cols["s3_url"]],
			ReviewResult: models.ReviewApproved,
		}
		if i, ok := cols["notes"]; ok && i < len(record) {
			e.Notes = record[i]
		}
		entries = append(entries, e)
	}
	return entries, nil
}
