package estimate

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"

	"plate-go/internal/config"
	"plate-go/internal/plate"
)

const defaultTimeout = 30 * time.Second

// NewEstimatorFromConfig creates an Estimator based on the estimator config type.
// API keys are looked up with getenv.
func NewEstimatorFromConfig(ctx context.Context, cfg config.EstimatorConfig, getenv func(string) string) (plate.Estimator, error) {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	switch cfg.Type {
	case "gemini":
		key := getenv("GEMINI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("gemini estimator requires GEMINI_API_KEY to be set")
		}
		return NewGeminiEstimator(key, cfg.GeminiBaseURL, cfg.GeminiModel, timeout), nil
	case "edamam":
		id, key := getenv("EDAMAM_APP_ID"), getenv("EDAMAM_APP_KEY")
		if id == "" || key == "" {
			return nil, fmt.Errorf("edamam estimator requires EDAMAM_APP_ID and EDAMAM_APP_KEY to be set")
		}
		return NewEdamamEstimator(id, key, cfg.EdamamBaseURL, timeout), nil
	case "static":
		if len(cfg.Foods) == 0 {
			return nil, fmt.Errorf("static estimator requires at least one food")
		}
		return NewStaticEstimator(cfg.Foods), nil
	case "rekognition":
		if cfg.TextEstimator == "" || cfg.TextEstimator == "rekognition" {
			return nil, fmt.Errorf("rekognition estimator requires text_estimator to be gemini, edamam or static")
		}
		textCfg := cfg
		textCfg.Type = cfg.TextEstimator
		text, err := NewEstimatorFromConfig(ctx, textCfg, getenv)
		if err != nil {
			return nil, fmt.Errorf("creating text estimator: %w", err)
		}

		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return NewRekognitionEstimator(rekognition.NewFromConfig(awsCfg), text, cfg.MinConfidence), nil
	default:
		return nil, fmt.Errorf("unknown estimator type: %s", cfg.Type)
	}
}
