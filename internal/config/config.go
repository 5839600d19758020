package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for plate.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Goals      GoalsConfig      `toml:"goals"`
	Hydration  HydrationConfig  `toml:"hydration"`
	Camera     CameraConfig     `toml:"camera"`
	Estimator  EstimatorConfig  `toml:"estimator"`
	Archive    ArchiveConfig    `toml:"archive"`
	Encryption EncryptionConfig `toml:"encryption"`
	Journal    JournalConfig    `toml:"journal"`
	Server     ServerConfig     `toml:"server"`
}

// GoalsConfig holds the user's daily targets.
type GoalsConfig struct {
	DailyCalories int `toml:"daily_calories"`
	DailySteps    int `toml:"daily_steps"`
}

// HydrationConfig selects the water unit. Goal and presets default per unit when unset.
type HydrationConfig struct {
	Unit    string `toml:"unit"` // "ml" (default) or "oz"
	Goal    int    `toml:"goal,omitempty"`
	Presets []int  `toml:"presets,omitempty"`
}

// CameraConfig represents configuration for the camera device.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CameraConfig struct {
	Type   string `toml:"type"`             // "file", "memory" or "none"
	Device string `toml:"device,omitempty"` // image file or directory of frames; only used for type=file
}

// EstimatorConfig represents configuration for the nutrition estimation service.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
// API keys are read from the environment, never from this file.
type EstimatorConfig struct {
	Type           string `toml:"type"` // "gemini", "edamam", "rekognition" or "static"
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`

	// Gemini-specific fields (only used when Type == "gemini", or as text estimator)
	GeminiModel   string `toml:"gemini_model,omitempty"`
	GeminiBaseURL string `toml:"gemini_base_url,omitempty"`

	// Edamam-specific fields (only used when Type == "edamam", or as text estimator)
	EdamamBaseURL string `toml:"edamam_base_url,omitempty"`

	// Rekognition-specific fields (only used when Type == "rekognition")
	AWSRegion     string  `toml:"aws_region,omitempty"`
	MinConfidence float64 `toml:"min_confidence,omitempty"`
	TextEstimator string  `toml:"text_estimator,omitempty"` // estimator used for label lookups and text search

	// Static-specific fields (only used when Type == "static")
	Foods []StaticFood `toml:"foods,omitempty"`
}

// StaticFood is one row of the static estimator's lookup table.
type StaticFood struct {
	Name     string   `toml:"name"`
	Aliases  []string `toml:"aliases,omitempty"`
	Calories float64  `toml:"calories"`
	Protein  float64  `toml:"protein"`
	Carbs    float64  `toml:"carbs"`
	Fat      float64  `toml:"fat"`
}

// ArchiveConfig represents configuration for the report archive.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ArchiveConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // for S3-compatible stores

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for report encryption.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// JournalConfig represents configuration for the export journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ServerConfig holds settings for `plate serve`.
type ServerConfig struct {
	Address        string   `toml:"address"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// NewConfig creates a new Config with defaults rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Goals: GoalsConfig{
			DailyCalories: 2400,
			DailySteps:    10000,
		},
		Hydration: HydrationConfig{Unit: "ml"},
		Camera:    CameraConfig{Type: "file", Device: filepath.Join(baseDir, "camera")},
		Estimator: EstimatorConfig{
			Type:           "gemini",
			TimeoutSeconds: 30,
		},
		Archive: ArchiveConfig{
			Type:   "filesystem",
			Name:   "local",
			FSRoot: filepath.Join(baseDir, "archive"),
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "plate.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "plate.key"),
		},
		Journal: JournalConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Server: ServerConfig{
			Address:        "127.0.0.1:8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path, creating its directory.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
