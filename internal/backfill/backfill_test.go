package backfill

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/oatesewow/ai-images/internal/s3store"
	"github.com/oatesewow/ai-images/internal/variant"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, uploads: map[string][]byte{}}
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStore) Download(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if body, ok := f.objects[key]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("key %s: %w", key, s3store.ErrNotFound)
}

func (f *fakeStore) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = body
	f.objects[key] = body
	return nil
}

func (f *fakeStore) URL(key string) string { return "https://test-bucket/" + key }

type fakeCatalog struct{ deals map[int64]int64 }

func (f *fakeCatalog) DealIDForImage(ctx context.Context, imageID int64) (int64, error) {
	if dealID, ok := f.deals[imageID]; ok {
		return dealID, nil
	}
	return 0, fmt.Errorf("image %d not found", imageID)
}

func baseJPEG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(777, 520, color.NRGBA{R: 200, G: 30, B: 40, A: 255})
	data, err := variant.EncodeJPEG(img)
	if err != nil {
		t.Fatalf("encode base: %v", err)
	}
	return data
}

func TestFillUploadsOnlyMissing(t *testing.T) {
	store := newFakeStore()
	cat := &fakeCatalog{deals: map[int64]int64{1234: 500}}
	sizes := variant.DefaultSizes()

	// Everything present except two derivatives.
	base := baseJPEG(t)
	for suffix := range sizes {
		if suffix == "-thumb" || suffix == "-email" {
			continue
		}
		store.objects[s3store.DealImageKey(500, 1234, suffix)] = base
	}

	result, err := New(store, cat, sizes).Fill(context.Background(), 1234)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}

	if len(result.Missing) != 2 {
		t.Fatalf("missing = %v, want two suffixes", result.Missing)
	}
	if result.Missing[0] != "-email" || result.Missing[1] != "-thumb" {
		t.Errorf("missing = %v, want sorted [-email -thumb]", result.Missing)
	}
	if len(store.uploads) != 2 {
		t.Errorf("uploaded %d objects, want 2", len(store.uploads))
	}
	for _, suffix := range []string{"-thumb", "-email"} {
		key := s3store.DealImageKey(500, 1234, suffix)
		if _, ok := store.uploads[key]; !ok {
			t.Errorf("missing upload for %s", key)
		}
	}
}

func TestFillNothingMissing(t *testing.T) {
	store := newFakeStore()
	cat := &fakeCatalog{deals: map[int64]int64{1234: 500}}
	sizes := variant.DefaultSizes()

	base := baseJPEG(t)
	for suffix := range sizes {
		store.objects[s3store.DealImageKey(500, 1234, suffix)] = base
	}

	result, err := New(store, cat, sizes).Fill(context.Background(), 1234)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(result.Missing) != 0 || len(store.uploads) != 0 {
		t.Errorf("expected no work: missing=%v uploads=%d", result.Missing, len(store.uploads))
	}
}

func TestFillBaseMissing(t *testing.T) {
	store := newFakeStore()
	cat := &fakeCatalog{deals: map[int64]int64{1234: 500}}

	if _, err := New(store, cat, nil).Fill(context.Background(), 1234); err == nil {
		t.Fatal("expected error when the base image itself is absent")
	}
}
