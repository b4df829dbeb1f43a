// Package objectstore keeps advisory opinion attachments in an S3 bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Bucket is the object storage contract used by the synchronizer.
type Bucket interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	// ETag returns the stored object's ETag without quotes, and false when
	// the object does not exist.
	ETag(ctx context.Context, key string) (string, bool, error)
}

// S3Bucket is a Bucket backed by Amazon S3. Objects are written public-read.
type S3Bucket struct {
	client *s3.Client
	name   string
}

// S3Options configures the S3 client.
type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string // optional, enables path-style addressing
}

// NewS3Bucket creates an S3 client from the default AWS credential chain.
func NewS3Bucket(ctx context.Context, opts S3Options) (*S3Bucket, error) {
	if opts.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Bucket{client: client, name: opts.Bucket}, nil
}

// Name returns the bucket name.
func (b *S3Bucket) Name() string {
	return b.name
}

func (b *S3Bucket) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// List returns every key under prefix. A missing prefix yields no keys.
func (b *S3Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (b *S3Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (b *S3Bucket) ETag(ctx context.Context, key string) (string, bool, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("head object %s: %w", key, err)
	}
	return strings.Trim(aws.ToString(out.ETag), `"`), true, nil
}
