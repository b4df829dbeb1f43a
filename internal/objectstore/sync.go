package objectstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	// AOPrefix is the key prefix for advisory opinion attachments.
	AOPrefix = "legal/aos/"

	pdfSuffix      = ".pdf"
	pdfContentType = "application/pdf"
)

// ErrMissingContent is returned when an attachment has no binary content.
var ErrMissingContent = errors.New("attachment content is missing")

// DocumentKey returns the storage key for an attachment.
func DocumentKey(documentID int) string {
	return AOPrefix + strconv.Itoa(documentID) + pdfSuffix
}

// parseDocumentKey extracts the document id from a key under AOPrefix.
func parseDocumentKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, AOPrefix)
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, pdfSuffix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Recorder receives synchronizer events. Metrics implements it.
type Recorder interface {
	DocumentUploaded()
	DocumentSkipped()
	ObjectDeleted()
}

type nopRecorder struct{}

func (nopRecorder) DocumentUploaded() {}
func (nopRecorder) DocumentSkipped()  {}
func (nopRecorder) ObjectDeleted()    {}

// Synchronizer uploads attachments and removes orphaned objects.
type Synchronizer struct {
	bucket        Bucket
	bucketName    string
	skipUnchanged bool
	recorder      Recorder
	logger        *slog.Logger
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithSkipUnchanged skips uploads whose stored ETag already matches the
// MD5 of the body.
func WithSkipUnchanged(skip bool) SyncOption {
	return func(s *Synchronizer) { s.skipUnchanged = skip }
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) SyncOption {
	return func(s *Synchronizer) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SyncOption {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSynchronizer creates a synchronizer writing to bucket. bucketName is
// used to build public URLs.
func NewSynchronizer(bucket Bucket, bucketName string, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		bucket:     bucket,
		bucketName: bucketName,
		recorder:   nopRecorder{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the public URL of key.
func (s *Synchronizer) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucketName, key)
}

// Upload stores an attachment under its deterministic key and returns its
// public URL. Repeated uploads overwrite the same object.
func (s *Synchronizer) Upload(ctx context.Context, documentID int, body []byte) (string, error) {
	key := DocumentKey(documentID)
	if body == nil {
		return "", fmt.Errorf("upload %s: %w", key, ErrMissingContent)
	}

	if s.skipUnchanged {
		sum := md5.Sum(body)
		etag, found, err := s.bucket.ETag(ctx, key)
		if err != nil {
			return "", fmt.Errorf("upload %s: %w", key, err)
		}
		if found && etag == hex.EncodeToString(sum[:]) {
			s.logger.Debug("S3: unchanged, skipping", "key", key)
			s.recorder.DocumentSkipped()
			return s.URL(key), nil
		}
	}

	s.logger.Info("S3: uploading", "key", key)
	if err := s.bucket.PutObject(ctx, key, body, pdfContentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	s.recorder.DocumentUploaded()
	return s.URL(key), nil
}

// Reconcile deletes every stored attachment whose document id is not in
// validIDs and returns the deleted keys. Keys that do not look like
// attachment keys are left alone.
func (s *Synchronizer) Reconcile(ctx context.Context, validIDs map[int]struct{}) ([]string, error) {
	keys, err := s.bucket.List(ctx, AOPrefix)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	var deleted []string
	for _, key := range keys {
		id, ok := parseDocumentKey(key)
		if !ok {
			s.logger.Warn("S3: unexpected key under prefix", "key", key)
			continue
		}
		if _, valid := validIDs[id]; valid {
			continue
		}
		s.logger.Info("S3: deleting orphaned document", "key", key)
		if err := s.bucket.Delete(ctx, key); err != nil {
			return deleted, fmt.Errorf("reconcile: %w", err)
		}
		s.recorder.ObjectDeleted()
		deleted = append(deleted, key)
	}
	return deleted, nil
}
