// internal/backfill/backfill.go
package backfill

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/oatesewow/ai-images/internal/s3store"
	"github.com/oatesewow/ai-images/internal/variant"
)

type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	URL(key string) string
}

type Catalog interface {
	DealIDForImage(ctx context.Context, imageID int64) (int64, error)
}

// Backfiller repairs catalog images whose derivative set is
// incomplete: it probes every suffix key and regenerates only the
// missing ones from the stored base image.
type Backfiller struct {
	store   ObjectStore
	catalog Catalog
	sizes   variant.SizeCatalog
}

func New(store ObjectStore, cat Catalog, sizes variant.SizeCatalog) *Backfiller {
	if sizes == nil {
		sizes = variant.DefaultSizes()
	}
	return &Backfiller{store: store, catalog: cat, sizes: sizes}
}

type Result struct {
	ImageID  int64             `json:"image_id"`
	DealID   int64             `json:"deal_id"`
	Missing  []string          `json:"missing_suffixes"`
	Uploaded map[string]string `json:"uploaded_urls"`
}

// MissingSuffixes probes each derivative key for the image and lists
// the suffixes that are absent, sorted for stable output.
func (b *Backfiller) MissingSuffixes(ctx context.Context, dealID, imageID int64) ([]string, error) {
	const op = "backfill.MissingSuffixes"

	var missing []string
	for suffix := range b.sizes {
		ok, err := b.store.Exists(ctx, s3store.DealImageKey(dealID, imageID, suffix))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			missing = append(missing, suffix)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// Fill regenerates and uploads every missing derivative of one image.
func (b *Backfiller) Fill(ctx context.Context, imageID int64) (*Result, error) {
	const op = "backfill.Fill"

	dealID, err := b.catalog.DealIDForImage(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	missing, err := b.MissingSuffixes(ctx, dealID, imageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &Result{
		ImageID:  imageID,
		DealID:   dealID,
		Missing:  missing,
		Uploaded: map[string]string{},
	}
	if len(missing) == 0 {
		return result, nil
	}

	baseKey := s3store.DealImageKey(dealID, imageID, "")
	data, err := b.store.Download(ctx, baseKey)
	if err != nil {
		return nil, fmt.Errorf("%s: base %s: %w", op, baseKey, err)
	}
	base, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: decode %s: %v", op, baseKey, err)
	}

	variants, err := variant.RenderAll(base, b.sizes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, suffix := range missing {
		body, err := variant.EncodeJPEG(variants[suffix])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		key := s3store.DealImageKey(dealID, imageID, suffix)
		if err := b.store.Upload(ctx, key, body, "image/jpeg"); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result.Uploaded[suffix] = b.store.URL(key)
	}
	return result, nil
}
