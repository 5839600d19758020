package plate

import (
	"context"
	"io"
)

// Archive stores exported day reports.
// All operations stream through io.Reader/io.Writer.
type Archive interface {
	// Put stores the object under key, replacing any existing object.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get retrieves the object stored under key and writes it to w.
	Get(ctx context.Context, key string, w io.Writer) error

	// ValidateSetup verifies that the archive is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}
