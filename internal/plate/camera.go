package plate

import "context"

// Frame is a single still image in an encoded format such as JPEG.
type Frame struct {
	Data     []byte
	MIMEType string
}

// Camera acquires an image source.
type Camera interface {
	// Open acquires the device. A denied or missing device returns an error.
	Open(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera device. Close releases it.
type Stream interface {
	// Capture grabs one still frame.
	Capture(ctx context.Context) (Frame, error)

	Close() error
}
