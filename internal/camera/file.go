package camera

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"plate-go/internal/plate"
)

// frameExtensions are the file types a FileCamera treats as frames.
var frameExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".heic"}

// FileCamera is a camera backed by the filesystem. Its device is either a
// single image file or a directory of images; each capture returns the next
// image in name order, wrapping around at the end.
type FileCamera struct {
	device string
}

var _ plate.Camera = (*FileCamera)(nil)

// NewFileCamera creates a FileCamera for the given device path.
func NewFileCamera(device string) *FileCamera {
	return &FileCamera{device: device}
}

// Open validates the device and lists its frames. A missing or unreadable
// device is reported as an error, as a denied camera would be.
func (c *FileCamera) Open(ctx context.Context) (plate.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(c.device)
	if err != nil {
		return nil, fmt.Errorf("resolving device path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat device: %w", err)
	}

	mode := info.Mode()
	if mode&os.ModeDevice != 0 || mode&os.ModeNamedPipe != 0 || mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("unsupported device type: %s", absPath)
	}

	if !info.IsDir() {
		return &fileStream{frames: []string{absPath}}, nil
	}

	frames, err := listFrames(absPath)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames in device directory: %s", absPath)
	}
	return &fileStream{frames: frames}, nil
}

// listFrames returns the image files directly inside dir, sorted by name.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading device directory: %w", err)
	}

	var frames []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.Contains(frameExtensions, ext) {
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(frames)
	return frames, nil
}

// fileStream serves frames from an opened FileCamera.
type fileStream struct {
	frames []string
	next   int
	closed bool
}

func (s *fileStream) Capture(ctx context.Context) (plate.Frame, error) {
	if s.closed {
		return plate.Frame{}, fmt.Errorf("stream is closed")
	}
	if err := ctx.Err(); err != nil {
		return plate.Frame{}, err
	}

	path := s.frames[s.next]
	s.next = (s.next + 1) % len(s.frames)

	data, err := os.ReadFile(path)
	if err != nil {
		return plate.Frame{}, fmt.Errorf("reading frame: %w", err)
	}
	if len(data) == 0 {
		return plate.Frame{}, fmt.Errorf("empty frame: %s", path)
	}

	return plate.Frame{Data: data, MIMEType: http.DetectContentType(data)}, nil
}

func (s *fileStream) Close() error {
	s.closed = true
	return nil
}
