// Package main provides the legal-loader CLI for indexing FEC advisory opinions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/fec-legal-docs/internal/advisory"
	"github.com/bull/fec-legal-docs/internal/config"
	"github.com/bull/fec-legal-docs/internal/database"
	"github.com/bull/fec-legal-docs/internal/embedding"
	"github.com/bull/fec-legal-docs/internal/indexer"
	"github.com/bull/fec-legal-docs/internal/metrics"
	"github.com/bull/fec-legal-docs/internal/objectstore"
	"github.com/bull/fec-legal-docs/internal/storage"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	skipReconcile bool
	resetIndex    bool
)

var rootCmd = &cobra.Command{
	Use:   "legal-loader",
	Short: "FEC legal document indexing tool",
	Long:  "CLI tool for loading FEC advisory opinions into the legal document index",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = cfg.NewLogger(os.Stderr)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage: true,
}

var loadCmd = &cobra.Command{
	Use:   "load-aos",
	Short: "Load all advisory opinions into the index",
	Long: `Rebuilds every advisory opinion document from the database.

This command:
1. Connects to Postgres and Qdrant and verifies health
2. Computes the citation graph over all final opinions
3. Uploads every attached document to S3
4. Upserts one document per opinion into the index
5. Deletes S3 attachments whose document no longer exists

Environment variables:
  DATABASE_URL            Postgres connection string
  QDRANT_HOST             Qdrant hostname (default: localhost)
  QDRANT_PORT             Qdrant gRPC port (default: 6334)
  DOCS_INDEX              Index collection (default: docs_index)
  BUCKET                  S3 bucket for attachments (required)
  AWS_REGION              S3 region (default: us-gov-west-1)
  UPLOAD_CONCURRENCY      Parallel uploads per opinion (default: 1)
  SKIP_UNCHANGED_UPLOADS  Skip uploads whose ETag matches (default: false)
  EMBED_OPINIONS          Attach OpenAI embeddings (default: false)
  OPENAI_API_KEY          Required when EMBED_OPINIONS is set
  PUSHGATEWAY_URL         Push run metrics when set`,
	RunE: runLoad,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-aos",
	Short: "Delete stored attachments of documents that no longer exist",
	RunE:  runReconcile,
}

var deleteCmd = &cobra.Command{
	Use:   "delete-aos",
	Short: "Remove every advisory opinion from the index",
	RunE:  runDelete,
}

var initCmd = &cobra.Command{
	Use:   "init-index",
	Short: "Create the index collection and payload indexes",
	RunE:  runInit,
}

func init() {
	loadCmd.Flags().BoolVar(&skipReconcile, "skip-reconcile", false, "do not delete orphaned attachments after loading")
	initCmd.Flags().BoolVar(&resetIndex, "reset", false, "drop and recreate the collection")

	rootCmd.AddCommand(loadCmd, reconcileCmd, deleteCmd, initCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func openIndex() (*storage.QdrantStorage, error) {
	logger.Info("Connecting to Qdrant", "host", cfg.QdrantHost, "port", cfg.QdrantPort, "collection", cfg.DocsIndex)
	store, err := storage.NewQdrantStorage(cfg.QdrantHost, cfg.QdrantPort, cfg.DocsIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	return store, nil
}

func openSynchronizer(ctx context.Context, rec objectstore.Recorder) (*objectstore.Synchronizer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("BUCKET is not set")
	}
	bucket, err := objectstore.NewS3Bucket(ctx, objectstore.S3Options{
		Bucket:   cfg.Bucket,
		Region:   cfg.AWSRegion,
		Endpoint: cfg.S3Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return objectstore.NewSynchronizer(bucket, cfg.Bucket,
		objectstore.WithSkipUnchanged(cfg.SkipUnchangedUploads),
		objectstore.WithRecorder(rec),
		objectstore.WithLogger(logger),
	), nil
}

func pushMetrics(ctx context.Context, m *metrics.Metrics) {
	if cfg.PushgatewayURL == "" {
		return
	}
	if err := m.Push(ctx, cfg.PushgatewayURL); err != nil {
		logger.Warn("Failed to push metrics", "error", err)
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := database.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := openIndex()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	m := metrics.New()
	defer pushMetrics(context.WithoutCancel(ctx), m)

	syncer, err := openSynchronizer(ctx, m)
	if err != nil {
		return err
	}

	assembler := advisory.NewAssembler(db, syncer,
		advisory.WithLogger(logger),
		advisory.WithUploadConcurrency(cfg.UploadConcurrency),
	)

	opts := []indexer.Option{indexer.WithLogger(logger), indexer.WithRecorder(m)}
	if !skipReconcile {
		opts = append(opts, indexer.WithReconciler(db, syncer))
	}
	if cfg.EmbedOpinions {
		client, err := embedding.NewClient(cfg.OpenAIAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create embedding client: %w", err)
		}
		opts = append(opts, indexer.WithEmbedder(embedding.NewEmbedder(client, 0)))
	}

	result, err := indexer.NewPipeline(assembler, store, opts...).IndexAll(ctx)
	if err != nil {
		return fmt.Errorf("loading advisory opinions failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Load complete!")
	fmt.Printf("  Opinions: %d (%d pending)\n", result.TotalOpinions, result.PendingOpinions)
	fmt.Printf("  Documents: %d\n", result.TotalDocuments)
	fmt.Printf("  AO citations: %d\n", result.Citations)
	fmt.Printf("  Deleted objects: %d\n", len(result.DeletedObjects))
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := database.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	defer pushMetrics(context.WithoutCancel(ctx), m)

	syncer, err := openSynchronizer(ctx, m)
	if err != nil {
		return err
	}

	pipeline := indexer.NewPipeline(nil, nil, indexer.WithLogger(logger), indexer.WithReconciler(db, syncer))
	deleted, err := pipeline.Reconcile(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d orphaned attachments\n", len(deleted))
	for _, key := range deleted {
		fmt.Printf("  - %s\n", key)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openIndex()
	if err != nil {
		return err
	}
	defer store.Close()

	before, err := store.CountOpinions(ctx)
	if err != nil {
		return err
	}
	if err := store.DeleteOpinions(ctx); err != nil {
		return err
	}

	logger.Info("Deleted advisory opinions from index", "count", before)
	fmt.Printf("Deleted %d advisory opinions from %s\n", before, store.Collection())
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openIndex()
	if err != nil {
		return err
	}
	defer store.Close()

	if resetIndex {
		fmt.Printf("Dropping collection %s...\n", store.Collection())
		if err := store.ClearCollection(ctx); err != nil {
			return fmt.Errorf("failed to clear collection: %w", err)
		}
	}
	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	fmt.Printf("Collection %s ready\n", store.Collection())
	return nil
}
