package review

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/oatesewow/ai-images/internal/models"
	"github.com/oatesewow/ai-images/internal/s3store"
)

// ObjectStore is the slice of the object store needed for promotion.
type ObjectStore interface {
	Copy(ctx context.Context, sourceBucket, sourceKey, destKey string) error
	URL(key string) string
}

// Reporting registers promoted entries as under test.
type Reporting interface {
	EnterTest(ctx context.Context, entries []models.ReviewEntry) (int64, error)
}

// Promoter moves approved AI candidates into the canonical bucket
// under the candidate-id convention, so the replacement pipeline can
// later find them as masters, and registers them in the reporting
// store as under test.
type Promoter struct {
	store     ObjectStore
	reporting Reporting
}

func NewPromoter(store ObjectStore, rep Reporting) *Promoter {
	return &Promoter{store: store, reporting: rep}
}

// Promote copies one approved candidate to
// images/deal/{deal}/{original_id * 100000}.jpg and returns its URL.
func (p *Promoter) Promote(ctx context.Context, e models.ReviewEntry) (string, error) {
	const op = "review.Promote"

	if e.ReviewResult != models.ReviewApproved {
		return "", fmt.Errorf("%s: entry for image %d is %q, not approved", op, e.ImageIDPos0, e.ReviewResult)
	}

	sourceBucket, sourceKey, err := s3store.ParseURL(e.S3URL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	destKey := s3store.DealImageKey(e.DealID, s3store.TestVariantID(e.ImageIDPos0), "")
	if err := p.store.Copy(ctx, sourceBucket, sourceKey, destKey); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return p.store.URL(destKey), nil
}

// PromotionSummary aggregates one promotion batch.
type PromotionSummary struct {
	Total      int
	Succeeded  int
	Failed     int
	Registered int64
	Failures   []models.ItemFailure
}

// PromoteBatch promotes entries across a bounded worker pool, then
// registers every success in the reporting store in one pass. Failures
// are independent and reported per item.
func (p *Promoter) PromoteBatch(ctx context.Context, entries []models.ReviewEntry, workers int) (*PromotionSummary, error) {
	const op = "review.PromoteBatch"

	if workers <= 0 {
		workers = 25
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		promoted  []models.ReviewEntry
		failures  []models.ItemFailure
		semaphore = make(chan struct{}, workers)
	)

	for _, e := range entries {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(e models.ReviewEntry) {
			defer wg.Done()
			defer func() { <-semaphore }()

			url, err := p.Promote(ctx, e)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, models.ItemFailure{ImageID: e.ImageIDPos0, Error: err.Error()})
				log.Printf("promote image %d failed: %v", e.ImageIDPos0, err)
				return
			}
			promoted = append(promoted, e)
			log.Printf("promoted image %d (deal %d) -> %s", e.ImageIDPos0, e.DealID, url)
		}(e)
	}
	wg.Wait()

	summary := &PromotionSummary{
		Total:     len(entries),
		Succeeded: len(promoted),
		Failed:    len(failures),
		Failures:  failures,
	}

	if len(promoted) > 0 && p.reporting != nil {
		registered, err := p.reporting.EnterTest(ctx, promoted)
		summary.Registered = registered
		if err != nil {
			return summary, fmt.Errorf("%s: register under test: %w", op, err)
		}
	}
	return summary, nil
}
