// Package s3 reads build artifacts stored in AWS S3.
package s3

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// s3API defines the subset of S3 operations needed by the Reader.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ outbound.S3Reader = (*Reader)(nil)

// Reader implements outbound.S3Reader using the AWS SDK.
type Reader struct {
	client s3API
	logger *slog.Logger
}

// NewReader creates a new S3 Reader with the given AWS config.
func NewReader(cfg aws.Config, logger *slog.Logger) *Reader {
	return newReader(s3.NewFromConfig(cfg), logger)
}

func newReader(client s3API, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		client: client,
		logger: logger.With("component", "s3-reader"),
	}
}

// StreamFile returns a reader for the object content. Keys ending in .gz are
// decompressed. The caller must close the reader.
func (r *Reader) StreamFile(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object s3://%s/%s: %w", bucket, key, err)
	}
	r.logger.Debug("streaming object", "bucket", bucket, "key", key)

	if !strings.HasSuffix(key, ".gz") {
		return result.Body, nil
	}
	gz, err := gzip.NewReader(result.Body)
	if err != nil {
		result.Body.Close()
		return nil, fmt.Errorf("opening gzip stream for %s: %w", key, err)
	}
	return &gzipReadCloser{gz: gz, body: result.Body}, nil
}

// gzipReadCloser closes both the gzip stream and the underlying body.
type gzipReadCloser struct {
	gz   *gzip.Reader
	body io.ReadCloser
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	bodyErr := g.body.Close()
	if gzErr != nil {
		return gzErr
	}
	return bodyErr
}

// ParseURI splits s3://bucket/key into its parts.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q must be s3://bucket/key", uri)
	}
	return bucket, key, nil
}
