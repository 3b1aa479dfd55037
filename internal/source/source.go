// Package source defines the abstract contract this engine consumes
// from an external N-dimensional array store, plus a
// serialized-access wrapper that applies the engine's locking
// discipline.
package source

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sonia-oph/fragreshape/internal/dataspace"
	"github.com/sonia-oph/fragreshape/internal/ophierr"
)

// Subspace names a hyper-rectangle to read: start[d] is the 0-based
// offset and count[d] the extent along source dimension d.
type Subspace struct {
	Start []int
	Count []int
}

// PerBlockFunc is invoked once per block during a streamed read;
// ReduceFunc folds the block's contribution into the running result.
// Both operate on raw bytes so the adapter never needs to know the
// engine's expression types.
type PerBlockFunc func(ctx context.Context, block []byte) error
type ReduceFunc func(ctx context.Context, acc, block []byte) error

// Container and Dataset are opaque handles minted by an Adapter. They
// carry a uuid so concurrent opens/logs can be correlated without the
// adapter exposing its own identity scheme.
type Container struct {
	ID   uuid.UUID
	Name string
}

type Dataset struct {
	ID   uuid.UUID
	Name string
}

// Adapter is the capability set the engine requires from an external
// array store. Implementations are free to be backed by anything;
// the engine only ever calls these methods while holding its
// source-store mutex (see Serialized), except for the bulk Read of
// regimes R1/R2, which runs outside the lock.
type Adapter interface {
	OpenContainer(ctx context.Context, name string) (Container, error)
	CloseContainer(ctx context.Context, c Container) error

	OpenDataset(ctx context.Context, c Container, varName string) (Dataset, error)
	CloseDataset(ctx context.Context, d Dataset) error

	GetDataspace(ctx context.Context, d Dataset) (dataspace.Descriptor, error)

	Read(ctx context.Context, d Dataset, sub Subspace, dst []byte) error

	// ReadStream is optional; adapters that do not support streamed,
	// reduced reads should return ErrStreamingUnsupported. When reduce
	// is non-nil, acc is caller-owned and pre-sized to the reduction's
	// declared output length; ReadStream must invoke
	// reduce(ctx, acc, block) for every block read so the final
	// reduced value is left in acc for the caller to read back.
	ReadStream(ctx context.Context, d Dataset, sub Subspace, perBlock PerBlockFunc, acc []byte, reduce ReduceFunc) error
}

// ErrStreamingUnsupported is returned by ReadStream implementations
// that have no block-streaming mode.
var ErrStreamingUnsupported = ophierr.New(ophierr.SourceError, "adapter does not support streamed reads")

// ParseSourceURL validates the source-path grammar
// "esdm://<container>/" (or an adapter-specific prefix), rejecting any
// path containing "..".
func ParseSourceURL(raw string, scheme string) (container string, err error) {
	if strings.Contains(raw, "..") {
		return "", ophierr.New(ophierr.ParseError, "source URL must not contain '..'").WithDetail("url", raw)
	}
	prefix := scheme + "://"
	if !strings.HasPrefix(raw, prefix) {
		return "", ophierr.New(ophierr.ParseError, "source URL missing expected scheme").
			WithDetail("url", raw).WithDetail("scheme", scheme)
	}
	rest := strings.TrimPrefix(raw, prefix)
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return "", ophierr.New(ophierr.ParseError, "source URL missing container name").WithDetail("url", raw)
	}
	return rest, nil
}
