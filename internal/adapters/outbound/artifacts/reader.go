// Package artifacts reads compiled contract artifacts from disk or S3.
package artifacts

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/archon-research/lendpool/internal/adapters/outbound/s3"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// ErrS3NotConfigured is returned for s3:// locations when no S3 reader is set.
var ErrS3NotConfigured = errors.New("s3 artifact location given but S3 is not configured")

// maxArtifactSize bounds how much of an artifact is read into memory.
const maxArtifactSize = 64 << 20

var _ outbound.ArtifactReader = (*Reader)(nil)

// S3Factory builds an S3 reader on first use of an s3:// location.
type S3Factory func(ctx context.Context) (outbound.S3Reader, error)

// Reader implements outbound.ArtifactReader.
type Reader struct {
	mu    sync.Mutex
	s3    outbound.S3Reader
	newS3 S3Factory
}

// NewReader creates a Reader. s3Reader may be nil when only local paths are used.
func NewReader(s3Reader outbound.S3Reader) *Reader {
	return &Reader{s3: s3Reader}
}

// NewLazyReader creates a Reader that calls newS3 the first time an s3://
// location is read. A failed call is retried on the next s3:// read.
func NewLazyReader(newS3 S3Factory) *Reader {
	return &Reader{newS3: newS3}
}

// ReadArtifact returns the artifact bytes, decompressing .gz files.
func (r *Reader) ReadArtifact(ctx context.Context, location string) ([]byte, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if strings.HasPrefix(location, "s3://") {
		rc, err = r.openS3(ctx, location)
	} else {
		rc, err = openLocal(location)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", location, err)
	}
	if len(data) > maxArtifactSize {
		return nil, fmt.Errorf("artifact %s exceeds %d bytes", location, maxArtifactSize)
	}
	return data, nil
}

func (r *Reader) openS3(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := s3.ParseURI(location)
	if err != nil {
		return nil, err
	}
	client, err := r.s3Reader(ctx)
	if err != nil {
		return nil, err
	}
	return client.StreamFile(ctx, bucket, key)
}

func (r *Reader) s3Reader(ctx context.Context) (outbound.S3Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.s3 != nil {
		return r.s3, nil
	}
	if r.newS3 == nil {
		return nil, ErrS3NotConfigured
	}
	client, err := r.newS3(ctx)
	if err != nil {
		return nil, fmt.Errorf("configuring S3 artifact reader: %w", err)
	}
	r.s3 = client
	return client, nil
}

func openLocal(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening gzip artifact %s: %w", path, err)
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	fileErr := g.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}
