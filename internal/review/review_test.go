package review

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/oatesewow/ai-images/internal/models"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "review.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadApprovedCSV(t *testing.T) {
	path := writeCSV(t,
		"id,image_id_pos_0,s3_url,review_result,notes\n"+
			"500,1000,https://gen-bucket/candidates/a.jpg,approved,looks good\n"+
			"501,1001,https://gen-bucket/candidates/b.jpg,rejected,too dark\n"+
			"502,1002,https://gen-bucket/candidates/c.jpg,approved,\n"+
			"503,1003,https://gen-bucket/candidates/d.jpg,pending,\n")

	entries, err := LoadApprovedCSV(path)
	if err != nil {
		t.Fatalf("LoadApprovedCSV: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 approved", len(entries))
	}
	first := entries[0]
	if first.DealID != 500 || first.ImageIDPos0 != 1000 {
		t.Errorf("first entry = %+v, want deal 500 image 1000", first)
	}
	if first.S3URL != "https://gen-bucket/candidates/a.jpg" {
		t.Errorf("first entry url = %q", first.S3URL)
	}
	if first.Notes != "looks good" {
		t.Errorf("first entry notes = %q", first.Notes)
	}
	if entries[1].DealID != 502 || entries[1].ImageIDPos0 != 1002 {
		t.Errorf("second entry = %+v, want deal 502 image 1002", entries[1])
	}
}

func TestLoadApprovedCSVReportsDataLine(t *testing.T) {
	// The header is line 1; a malformed first data row is line 2.
	path := writeCSV(t, "id,image_id_pos_0,s3_url,review_result\n500,1000,approved\n")

	_, err := LoadApprovedCSV(path)
	if err == nil {
		t.Fatal("expected error for a row with missing fields")
	}
	if !strings.Contains(err.Error(), "review.LoadApprovedCSV: line 2:") {
		t.Errorf("error = %v, want it to name line 2", err)
	}
}

func TestLoadApprovedCSVMissingColumn(t *testing.T) {
	path := writeCSV(t, "id,s3_url,review_result\n500,x,approved\n")

	if _, err := LoadApprovedCSV(path); err == nil {
		t.Fatal("expected error for missing image_id_pos_0 column")
	}
}

type fakeCopyStore struct {
	mu     sync.Mutex
	copies map[string]string // dest key -> source bucket/key
	fail   map[string]bool   // source key -> force failure
}

func (f *fakeCopyStore) Copy(ctx context.Context, sourceBucket, sourceKey, destKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[sourceKey] {
		return os.ErrDeadlineExceeded
	}
	if f.copies == nil {
		f.copies = map[string]string{}
	}
	f.copies[destKey] = sourceBucket + "/" + sourceKey
	return nil
}

func (f *fakeCopyStore) URL(key string) string { return "https://test-bucket/" + key }

type fakeReporting struct {
	mu      sync.Mutex
	entered []models.ReviewEntry
}

func (f *fakeReporting) EnterTest(ctx context.Context, entries []models.ReviewEntry) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = append(f.entered, entries...)
	return int64(len(entries)), nil
}

func approvedEntry(dealID, imageID int64, url string) models.ReviewEntry {
	return models.ReviewEntry{
		DealID:       dealID,
		ImageIDPos0:  imageID,
		S3URL:        url,
		ReviewResult: models.ReviewApproved,
	}
}

func TestPromoteCopiesUnderCandidateConvention(t *testing.T) {
	store := &fakeCopyStore{}
	p := NewPromoter(store, nil)

	url, err := p.Promote(context.Background(), approvedEntry(55, 70, "https://gen-bucket/out/img.jpg"))
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}

	wantKey := "images/deal/55/7000000.jpg"
	if url != "https://test-bucket/"+wantKey {
		t.Errorf("url = %q, want it to address %q", url, wantKey)
	}
	if src := store.copies[wantKey]; src != "gen-bucket/out/img.jpg" {
		t.Errorf("copied from %q, want gen-bucket/out/img.jpg", src)
	}
}

func TestPromoteRejectsUnapproved(t *testing.T) {
	e := approvedEntry(55, 70, "https://gen-bucket/out/img.jpg")
	e.ReviewResult = models.ReviewRejected

	if _, err := NewPromoter(&fakeCopyStore{}, nil).Promote(context.Background(), e); err == nil {
		t.Fatal("expected error promoting a rejected entry")
	}
}

func TestPromoteBatchRegistersSuccesses(t *testing.T) {
	store := &fakeCopyStore{fail: map[string]bool{"out/bad.jpg": true}}
	rep := &fakeReporting{}
	p := NewPromoter(store, rep)

	entries := []models.ReviewEntry{
		approvedEntry(1, 10, "https://gen-bucket/out/a.jpg"),
		approvedEntry(2, 20, "https://gen-bucket/out/bad.jpg"),
		approvedEntry(3, 30, "https://gen-bucket/out/c.jpg"),
	}

	summary, err := p.PromoteBatch(context.Background(), entries, 2)
	if err != nil {
		t.Fatalf("PromoteBatch: %v", err)
	}

	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %d ok / %d failed, want 2/1", summary.Succeeded, summary.Failed)
	}
	if summary.Registered != 2 {
		t.Errorf("registered = %d, want 2", summary.Registered)
	}
	if len(rep.entered) != 2 {
		t.Errorf("reporting got %d entries, want 2", len(rep.entered))
	}
	if len(summary.Failures) != 1 || summary.Failures[0].ImageID != 20 {
		t.Errorf("failures = %+v, want single failure for image 20", summary.Failures)
	}
}
