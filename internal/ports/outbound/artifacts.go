package outbound

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// S3Reader reads objects from S3.
type S3Reader interface {
	// StreamFile returns a reader for the object content, transparently
	// decompressing keys ending in .gz. The caller must close it.
	StreamFile(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// ABISource resolves the ABI of a verified contract.
type ABISource interface {
	GetABI(ctx context.Context, address common.Address) (*abi.ABI, error)
}

// ArtifactReader reads a build artifact from a local path or an s3://bucket/key URI.
type ArtifactReader interface {
	ReadArtifact(ctx context.Context, location string) ([]byte, error)
}
