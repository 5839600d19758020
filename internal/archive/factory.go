package archive

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"plate-go/internal/config"
	"plate-go/internal/plate"
)

// NewArchiveFromConfig creates an Archive implementation based on the archive config type.
// getenv supplies optional static S3 credentials.
func NewArchiveFromConfig(ctx context.Context, cfg config.ArchiveConfig, getenv func(string) string) (plate.Archive, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryArchive(cfg.Name), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 archive requires s3_bucket to be set")
		}
		client, err := newS3Client(ctx, cfg, getenv)
		if err != nil {
			return nil, err
		}
		return NewS3Archive(cfg.Name, cfg.S3Bucket, cfg.S3Prefix, client), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem archive requires fs_root to be set")
		}
		a, err := NewFileSystemArchive(cfg.Name, cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}

// newS3Client loads the default AWS config. PLATE_S3_ACCESS_KEY_ID and
// PLATE_S3_SECRET_ACCESS_KEY override the default credential chain, which
// S3-compatible stores addressed through s3_endpoint usually need.
func newS3Client(ctx context.Context, cfg config.ArchiveConfig, getenv func(string) string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if id, secret := getenv("PLATE_S3_ACCESS_KEY_ID"), getenv("PLATE_S3_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, getenv("PLATE_S3_SESSION_TOKEN")),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
