package storage

import "errors"

var (
	ErrQdrantUnreachable  = errors.New("qdrant server unreachable")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrOpinionNotFound    = errors.New("advisory opinion not found")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
)
