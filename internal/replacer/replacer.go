// internal/replacer/replacer.go
package replacer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/oatesewow/ai-images/internal/models"
	"github.com/oatesewow/ai-images/internal/s3store"
	"github.com/oatesewow/ai-images/internal/variant"
)

// ObjectStore is the slice of the object store the orchestrator needs.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	URL(key string) string
}

// Catalog is the slice of the image catalog the orchestrator needs.
type Catalog interface {
	DealIDForImage(ctx context.Context, imageID int64) (int64, error)
	NextImageID(ctx context.Context) (int64, error)
	ReplacePositionZero(ctx context.Context, dealID, originalImageID, newImageID int64, fileName string) error
}

type Replacer struct {
	store   ObjectStore
	catalog Catalog
	sizes   variant.SizeCatalog
}

func New(store ObjectStore, cat Catalog, sizes variant.SizeCatalog) *Replacer {
	if sizes == nil {
		sizes = variant.DefaultSizes()
	}
	return &Replacer{store: store, catalog: cat, sizes: sizes}
}

// Replace swaps one deal's hero image for its approved AI candidate:
// download the candidate master, allocate a fresh id, render and upload
// the full derivative set under the new id, then rewrite the deal's
// image ordering. The id is allocated before the fallible steps and is
// never released on failure; orphaned ids are cheap and expected.
func (r *Replacer) Replace(ctx context.Context, originalImageID int64) (*models.ReplaceResult, error) {
	const op = "replacer.Replace"

	dealID, err := r.catalog.DealIDForImage(ctx, originalImageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	workDir := filepath.Join(os.TempDir(), "replace-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer os.RemoveAll(workDir)

	masterID := s3store.TestVariantID(originalImageID)
	masterKey := s3store.DealImageKey(dealID, masterID, "")
	data, err := r.store.Download(ctx, masterKey)
	if err != nil {
		return nil, fmt.Errorf("%s: master %s: %w", op, masterKey, err)
	}

	masterPath := filepath.Join(workDir, variant.FileName(masterID, ""))
	if err := os.WriteFile(masterPath, data, 0644); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	master, err := imaging.Open(masterPath)
	if err != nil {
		return nil, fmt.Errorf("%s: decode master %s: %v", op, masterKey, err)
	}

	newImageID, err := r.catalog.NextImageID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	variants, err := variant.RenderAll(master, r.sizes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uploaded := make(map[string]string, len(variants))
	for suffix, img := range variants {
		path := filepath.Join(workDir, variant.FileName(newImageID, suffix))
		if err := imaging.Save(img, path); err != nil {
			return nil, fmt.Errorf("%s: save %s: %v", op, path, err)
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		key := s3store.DealImageKey(dealID, newImageID, suffix)
		if err := r.store.Upload(ctx, key, body, "image/jpeg"); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		uploaded[suffix] = r.store.URL(key)
	}

	fileName := variant.FileName(newImageID, "")
	if err := r.catalog.ReplacePositionZero(ctx, dealID, originalImageID, newImageID, fileName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.ReplaceResult{
		OriginalImageID: originalImageID,
		NewImageID:      newImageID,
		DealID:          dealID,
		UploadedURLs:    uploaded,
		VariantCount:    len(variants),
	}, nil
}
