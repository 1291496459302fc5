package source

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3 client. Static keys are optional; without
// them the default AWS credential chain applies.
type S3Options struct {
	Region          string
	Endpoint        string // for S3-compatible services (MinIO, etc.)
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3 builds an S3 client from opts.
func NewS3(ctx context.Context, opts S3Options) (*s3.Client, error) {
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = opts.UsePathStyle
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}
