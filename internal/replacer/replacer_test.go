package replacer

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/oatesewow/ai-images/internal/catalog"
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
	return nil
}

func (f *fakeStore) URL(key string) string {
	return "https://test-bucket/" + key
}

type reorderCall struct {
	dealID, originalID, newID int64
	fileName                  string
}

type fakeCatalog struct {
	mu       sync.Mutex
	nextID   int64
	deals    map[int64]int64 // image id -> deal id
	reorders []reorderCall
}

func (f *fakeCatalog) DealIDForImage(ctx context.Context, imageID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dealID, ok := f.deals[imageID]; ok {
		return dealID, nil
	}
	return 0, fmt.Errorf("image %d: %w", imageID, catalog.ErrImageNotFound)
}

func (f *fakeCatalog) NextImageID(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID, nil
}

func (f *fakeCatalog) ReplacePositionZero(ctx context.Context, dealID, originalImageID, newImageID int64, fileName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reorders = append(f.reorders, reorderCall{dealID, originalImageID, newImageID, fileName})
	return nil
}

func masterJPEG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(900, 600, color.NRGBA{R: 20, G: 160, B: 90, A: 255})
	data, err := variant.EncodeJPEG(img)
	if err != nil {
		t.Fatalf("encode master: %v", err)
	}
	return data
}

func TestReplaceSuccess(t *testing.T) {
	store := newFakeStore()
	cat := &fakeCatalog{nextID: 5000, deals: map[int64]int64{1000: 500}}

	// Candidate master lives under the five-zero convention.
	store.objects["images/deal/500/100000000.jpg"] = masterJPEG(t)

	r := New(store, cat, nil)
	result, err := r.Replace(context.Background(), 1000)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if result.DealID != 500 {
		t.Errorf("DealID = %d, want 500", result.DealID)
	}
	if result.NewImageID != 5001 {
		t.Errorf("NewImageID = %d, want 5001", result.NewImageID)
	}

	sizes := variant.DefaultSizes()
	if result.VariantCount != len(sizes) {
		t.Errorf("VariantCount = %d, want %d", result.VariantCount, len(sizes))
	}
	if len(store.uploads) != len(sizes) {
		t.Errorf("uploaded %d objects, want %d", len(store.uploads), len(sizes))
	}
	for suffix := range sizes {
		key := fmt.Sprintf("images/deal/500/5001%s.jpg", suffix)
		if _, ok := store.uploads[key]; !ok {
			t.Errorf("missing upload for key %s", key)
		}
		url, ok := result.UploadedURLs[suffix]
		if !ok || !strings.HasSuffix(url, key) {
			t.Errorf("suffix %q: url = %q, want suffix %q", suffix, url, key)
		}
	}

	if len(cat.reorders) != 1 {
		t.Fatalf("reorder calls = %d, want 1", len(cat.reorders))
	}
	call := cat.reorders[0]
	want := reorderCall{dealID: 500, originalID: 1000, newID: 5001, fileName: "5001.jpg"}
	if call != want {
		t.Errorf("reorder call = %+v, want %+v", call, want)
	}
}

func TestReplaceMissingMaster(t *testing.T) {
	store := newFakeStore()
	cat := &fakeCatalog{nextID: 5000, deals: map[int64]int64{1000: 500}}

	_, err := New(store, cat, nil).Replace(context.Background(), 1000)
	if !errors.Is(err, s3store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(store.uploads) != 0 {
		t.Errorf("uploaded %d objects after failed download", len(store.uploads))
	}
	if len(cat.reorders) != 0 {
		t.Errorf("reorder ran after failed download")
	}
}

func TestReplaceUnknownImage(t *testing.T) {
	store := newFakeStore()
	cat := &fakeCatalog{deals: map[int64]int64{}}

	_, err := New(store, cat, nil).Replace(context.Background(), 77)
	if !errors.Is(err, catalog.ErrImageNotFound) {
		t.Fatalf("err = %v, want ErrImageNotFound", err)
	}
}

func TestReplaceBatchIndependence(t *testing.T) {
	store := newFakeStore()
	cat := &fakeCatalog{
		nextID: 9000,
		deals:  map[int64]int64{1: 100, 2: 200, 4: 400, 5: 500}, // 3 is unknown
	}
	master := masterJPEG(t)
	for id, dealID := range cat.deals {
		key := fmt.Sprintf("images/deal/%d/%d.jpg", dealID, s3store.TestVariantID(id))
		store.objects[key] = master
	}

	summary, err := New(store, cat, nil).ReplaceBatch(context.Background(), []int64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("ReplaceBatch: %v", err)
	}

	if summary.Total != 5 || summary.Succeeded != 4 || summary.Failed != 1 {
		t.Errorf("summary = %d/%d/%d (total/ok/failed), want 5/4/1",
			summary.Total, summary.Succeeded, summary.Failed)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].ImageID != 3 {
		t.Errorf("failures = %+v, want single failure for image 3", summary.Failures)
	}
	if len(summary.Mapping) != 4 {
		t.Errorf("mapping has %d entries, want 4", len(summary.Mapping))
	}
	for _, id := range []int64{1, 2, 4, 5} {
		if newID, ok := summary.Mapping[id]; !ok || newID <= 9000 {
			t.Errorf("mapping[%d] = %d, want a freshly allocated id", id, newID)
		}
	}
	if _, ok := summary.Mapping[3]; ok {
		t.Error("failed item must not appear in the success mapping")
	}
}

func TestReplaceBatchAllFailed(t *testing.T) {
	store := newFakeStore()
	cat := &fakeCatalog{deals: map[int64]int64{}}

	summary, err := New(store, cat, nil).ReplaceBatch(context.Background(), []int64{7, 8}, 2)
	if err == nil {
		t.Fatal("expected error when zero items succeed")
	}
	if summary.Succeeded != 0 || summary.Failed != 2 {
		t.Errorf("summary = %d ok / %d failed, want 0/2", summary.Succeeded, summary.Failed)
	}
}

func TestReplaceBatchEmpty(t *testing.T) {
	summary, err := New(newFakeStore(), &fakeCatalog{}, nil).ReplaceBatch(context.Background(), nil, 4)
	if err != nil {
		t.Fatalf("ReplaceBatch: %v", err)
	}
	if summary.Total != 0 || summary.Succeeded != 0 || summary.Failed != 0 {
		t.Errorf("unexpected summary for empty batch: %+v", summary)
	}
}
