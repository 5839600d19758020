package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/plate",
		LogDir:  "/home/user/.local/share/plate/log",
		Goals:   GoalsConfig{DailyCalories: 2100, DailySteps: 8000},
		Hydration: HydrationConfig{
			Unit:    "oz",
			Goal:    96,
			Presets: []int{8, 12},
		},
		Camera: CameraConfig{Type: "file", Device: "/dev/frames"},
		Estimator: EstimatorConfig{
			Type:          "rekognition",
			AWSRegion:     "eu-west-1",
			MinConfidence: 80,
			TextEstimator: "static",
			Foods: []StaticFood{
				{Name: "Banana", Aliases: []string{"bananas"}, Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4},
			},
		},
		Archive: ArchiveConfig{Type: "s3", Name: "cloud", S3Bucket: "reports", S3Prefix: "plate", S3Region: "us-east-1"},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/plate/keys/plate.pub",
			PrivateKeyPath: "/home/user/.local/share/plate/keys/plate.key",
		},
		Journal: JournalConfig{Type: "sqlite", DataDir: "/home/user/.local/share/plate/db"},
		Server:  ServerConfig{Address: ":9090", AllowedOrigins: []string{"https://plate.example"}},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.Goals != original.Goals {
		t.Errorf("Goals = %+v, want %+v", got.Goals, original.Goals)
	}
	if got.Hydration.Unit != "oz" || got.Hydration.Goal != 96 {
		t.Errorf("Hydration = %+v, want unit oz goal 96", got.Hydration)
	}
	if len(got.Hydration.Presets) != 2 || got.Hydration.Presets[1] != 12 {
		t.Errorf("Hydration.Presets = %v, want [8 12]", got.Hydration.Presets)
	}
	if got.Camera.Device != "/dev/frames" {
		t.Errorf("Camera.Device = %q, want %q", got.Camera.Device, "/dev/frames")
	}
	if got.Estimator.Type != "rekognition" || got.Estimator.TextEstimator != "static" {
		t.Errorf("Estimator = %+v", got.Estimator)
	}
	if len(got.Estimator.Foods) != 1 {
		t.Fatalf("len(Estimator.Foods) = %d, want 1", len(got.Estimator.Foods))
	}
	if got.Estimator.Foods[0].Calories != 105 || got.Estimator.Foods[0].Aliases[0] != "bananas" {
		t.Errorf("Estimator.Foods[0] = %+v", got.Estimator.Foods[0])
	}
	if got.Archive.S3Bucket != "reports" {
		t.Errorf("Archive.S3Bucket = %q, want %q", got.Archive.S3Bucket, "reports")
	}
	if got.Encryption.Type != "age" {
		t.Errorf("Encryption.Type = %q, want %q", got.Encryption.Type, "age")
	}
	if got.Journal.DataDir != original.Journal.DataDir {
		t.Errorf("Journal.DataDir = %q, want %q", got.Journal.DataDir, original.Journal.DataDir)
	}
	if got.Server.Address != ":9090" || len(got.Server.AllowedOrigins) != 1 {
		t.Errorf("Server = %+v", got.Server)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/plate")

	if cfg.LogDir != "/data/plate/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/plate/log")
	}
	if cfg.Goals.DailyCalories != 2400 {
		t.Errorf("Goals.DailyCalories = %d, want 2400", cfg.Goals.DailyCalories)
	}
	if cfg.Hydration.Unit != "ml" {
		t.Errorf("Hydration.Unit = %q, want ml", cfg.Hydration.Unit)
	}
	if cfg.Camera.Device != "/data/plate/camera" {
		t.Errorf("Camera.Device = %q, want %q", cfg.Camera.Device, "/data/plate/camera")
	}
	if cfg.Archive.FSRoot != "/data/plate/archive" {
		t.Errorf("Archive.FSRoot = %q, want %q", cfg.Archive.FSRoot, "/data/plate/archive")
	}
	if cfg.Encryption.Type != "none" {
		t.Errorf("Encryption.Type = %q, want none", cfg.Encryption.Type)
	}
	if cfg.Encryption.PrivateKeyPath != "/data/plate/keys/plate.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/plate/keys/plate.key")
	}
	if cfg.Journal.DataDir != "/data/plate/db" {
		t.Errorf("Journal.DataDir = %q, want %q", cfg.Journal.DataDir, "/data/plate/db")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plate.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plate.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plate.toml")
		cfg := NewConfig(dir)
		cfg.Goals.DailyCalories = 1800

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Goals.DailyCalories != 1800 {
			t.Errorf("Goals.DailyCalories = %d, want 1800", got.Goals.DailyCalories)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/plate.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
