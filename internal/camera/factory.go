package camera

import (
	"fmt"

	"plate-go/internal/config"
	"plate-go/internal/plate"
)

// NewCameraFromConfig creates a Camera based on the camera config type.
// Type "none" returns a nil Camera: frames then only arrive as uploads.
func NewCameraFromConfig(cfg config.CameraConfig) (plate.Camera, error) {
	switch cfg.Type {
	case "file":
		if cfg.Device == "" {
			return nil, fmt.Errorf("file camera requires device to be set")
		}
		return NewFileCamera(cfg.Device), nil
	case "memory":
		return NewMemoryCamera(), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown camera type: %s", cfg.Type)
	}
}
