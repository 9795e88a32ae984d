package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"

	"github.com/oatesewow/ai-images/internal/backfill"
	"github.com/oatesewow/ai-images/internal/catalog"
	"github.com/oatesewow/ai-images/internal/models"
	"github.com/oatesewow/ai-images/internal/replacer"
	"github.com/oatesewow/ai-images/internal/reporting"
	"github.com/oatesewow/ai-images/internal/s3store"
	"github.com/oatesewow/ai-images/internal/server"
	"github.com/oatesewow/ai-images/internal/variant"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := models.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := catalog.NewStorage(ctx, cfg.CatalogDatabaseURL, cfg.CreatedByUserID)
	if err != nil {
		log.Fatalf("failed to init catalog: %v", err)
	}
	defer cat.Close()

	rs, err := reporting.New(ctx, cfg.ReportingDatabaseURL, cfg.BatchName, cfg.ListName)
	if err != nil {
		log.Fatalf("failed to init reporting store: %v", err)
	}
	defer rs.Close()

	store, err := s3store.New(ctx, cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		log.Fatalf("failed to init object store: %v", err)
	}
	log.Printf("object store ready (bucket %s)", store.Bucket())

	sizes := variant.DefaultSizes()
	rep := replacer.New(store, cat, sizes)
	bf := backfill.New(store, cat, sizes)

	// Kafka producer
	producer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{cfg.KafkaBroker},
		Topic:   cfg.KafkaTopic,
	})

	// Start Kafka consumer in background
	go func() {
		consumer := kafka.NewReader(kafka.ReaderConfig{
			Brokers: []string{cfg.KafkaBroker},
			Topic:   cfg.KafkaTopic,
			GroupID: "image-replacer-group",
		})
		defer consumer.Close()

		for {
			msg, err := consumer.ReadMessage(ctx)
			if err != nil {
				if err == context.Canceled {
					return
				}
				log.Printf("error reading message: %v", err)
				continue
			}
			if err := server.ProcessMessage(ctx, string(msg.Value), rep, rs); err != nil {
				log.Printf("error processing replacement: %v", err)
			}
		}
	}()

	srv := server.NewServer(cfg, cat, rep, bf, rs, producer)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	srv.Stop()
	producer.Close()
}
