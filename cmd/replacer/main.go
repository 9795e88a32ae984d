package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/oatesewow/ai-images/internal/catalog"
	"github.com/oatesewow/ai-images/internal/idfile"
	"github.com/oatesewow/ai-images/internal/models"
	"github.com/oatesewow/ai-images/internal/replacer"
	"github.com/oatesewow/ai-images/internal/reporting"
	"github.com/oatesewow/ai-images/internal/review"
	"github.com/oatesewow/ai-images/internal/s3store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	idsFile := flag.String("file", "", "file of image ids to replace (.csv with image_id column, or .txt)")
	idsList := flag.String("ids", "", "comma-separated image ids to replace")
	approvedCSV := flag.String("approved", "", "review export CSV: promote approved candidates instead of replacing")
	fromReporting := flag.Bool("from-reporting", false, "replace every image still under test in the reporting store")
	workers := flag.Int("workers", 0, "worker pool width (default from config)")
	skipSync := flag.Bool("skip-sync", false, "skip the reporting store update")
	flag.Parse()

	cfg, err := models.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *workers <= 0 {
		*workers = cfg.Workers
	}

	ctx := context.Background()

	store, err := s3store.New(ctx, cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		log.Fatalf("failed to init object store: %v", err)
	}
	log.Printf("object store ready (bucket %s)", store.Bucket())

	var rs *reporting.Store
	if !*skipSync {
		rs, err = reporting.New(ctx, cfg.ReportingDatabaseURL, cfg.BatchName, cfg.ListName)
		if err != nil {
			log.Fatalf("failed to init reporting store: %v", err)
		}
		defer rs.Close()
	}

	if *approvedCSV != "" {
		runPromotion(ctx, *approvedCSV, store, rs, *workers)
		return
	}

	var ids []int64
	if *fromReporting {
		if rs == nil {
			log.Fatal("-from-reporting needs the reporting store; drop -skip-sync")
		}
		ids, err = rs.ActiveOriginalIDs(ctx)
		if err != nil {
			log.Fatalf("failed to list images under test: %v", err)
		}
	} else {
		ids, err = loadIDs(*idsFile, *idsList)
		if err != nil {
			log.Fatalf("failed to load image ids: %v", err)
		}
	}
	if len(ids) == 0 {
		log.Fatal("nothing to do: pass -file, -ids or -from-reporting")
	}

	cat, err := catalog.NewStorage(ctx, cfg.CatalogDatabaseURL, cfg.CreatedByUserID)
	if err != nil {
		log.Fatalf("failed to init catalog: %v", err)
	}
	defer cat.Close()

	rep := replacer.New(store, cat, nil)

	log.Printf("processing %d images with %d workers", len(ids), *workers)
	summary, batchErr := rep.ReplaceBatch(ctx, ids, *workers)

	if rs != nil && len(summary.Mapping) > 0 {
		updated, err := rs.MarkExitedBatch(ctx, summary.Mapping)
		if err != nil {
			log.Printf("reporting store update failed: %v", err)
		} else {
			summary.ReportingSynced = true
			log.Printf("reporting store: %d row(s) marked exited", updated)
		}
	}

	printSummary(summary)
	if batchErr != nil {
		log.Fatalf("batch failed: %v", batchErr)
	}
}

func runPromotion(ctx context.Context, path string, store *s3store.Store, rs *reporting.Store, workers int) {
	entries, err := review.LoadApprovedCSV(path)
	if err != nil {
		log.Fatalf("failed to load review export: %v", err)
	}
	if len(entries) == 0 {
		log.Fatal("no approved entries in review export")
	}
	log.Printf("promoting %d approved candidates with %d workers", len(entries), workers)

	var rep review.Reporting
	if rs != nil {
		rep = rs
	}
	summary, err := review.NewPromoter(store, rep).PromoteBatch(ctx, entries, workers)
	if summary != nil {
		fmt.Printf("promoted %d/%d candidates (%d registered under test)\n",
			summary.Succeeded, summary.Total, summary.Registered)
		for _, f := range summary.Failures {
			fmt.Printf("  %d: %s\n", f.ImageID, f.Error)
		}
	}
	if err != nil {
		log.Fatalf("promotion failed: %v", err)
	}
}

func loadIDs(file, list string) ([]int64, error) {
	if file != "" {
		return idfile.Load(file)
	}
	var ids []int64
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad image id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printSummary(s *models.BatchSummary) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("BATCH PROCESSING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total processed: %d\n", s.Total)
	fmt.Printf("Successful: %d\n", s.Succeeded)
	fmt.Printf("Failed: %d\n", s.Failed)
	if s.ReportingSynced {
		fmt.Println("Reporting store updated")
	}

	if len(s.Mapping) > 0 {
		fmt.Println("\nSuccessful replacements:")
		for originalID, newID := range s.Mapping {
			fmt.Printf("  %d -> %d\n", originalID, newID)
		}
	}
	if len(s.Failures) > 0 {
		fmt.Println("\nFailed replacements:")
		for _, f := range s.Failures {
			fmt.Printf("  %d: %s\n", f.ImageID, f.Error)
		}
	}
}
