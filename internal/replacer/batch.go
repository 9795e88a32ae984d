package replacer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"go.uber.org/multierr"

	"github.com/oatesewow/ai-images/internal/models"
)

// DefaultWorkers is the batch fan-out width when none is configured.
const DefaultWorkers = 25

type itemOutcome struct {
	imageID int64
	result  *models.ReplaceResult
	err     error
}

// ReplaceBatch runs replacements across a bounded worker pool. Items
// are independent: one failure never aborts or rolls back another, and
// completion order is unspecified. The returned error is non-nil only
// when every item failed; partial failure is the normal outcome and is
// reported through the summary.
func (r *Replacer) ReplaceBatch(ctx context.Context, imageIDs []int64, workers int) (*models.BatchSummary, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if len(imageIDs) < workers {
		workers = len(imageIDs)
	}

	jobs := make(chan int64)
	outcomes := make(chan itemOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				res, err := r.Replace(ctx, id)
				outcomes <- itemOutcome{imageID: id, result: res, err: err}
			}
		}()
	}
	go func() {
		for _, id := range imageIDs {
			jobs <- id
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	summary := &models.BatchSummary{
		Total:   len(imageIDs),
		Mapping: make(map[int64]int64),
	}
	var errs error
	done := 0
	for out := range outcomes {
		done++
		if out.err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, models.ItemFailure{
				ImageID: out.imageID,
				Error:   out.err.Error(),
			})
			errs = multierr.Append(errs, fmt.Errorf("image %d: %w", out.imageID, out.err))
			log.Printf("[%d/%d] replace %d failed: %v", done, summary.Total, out.imageID, out.err)
			continue
		}
		summary.Succeeded++
		summary.Mapping[out.imageID] = out.result.NewImageID
		log.Printf("[%d/%d] replaced %d -> %d (deal %d, %d variants)",
			done, summary.Total, out.imageID, out.result.NewImageID,
			out.result.DealID, out.result.VariantCount)
	}

	if summary.Total > 0 && summary.Succeeded == 0 {
		return summary, fmt.Errorf("replacer.ReplaceBatch: all %d items failed: %w", summary.Total, errs)
	}
	return summary, nil
}
