package source

import (
	"context"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chmouel/coverage-delta/internal/log"
)

// awsOptions holds optional overrides for AWS config loading.
type awsOptions struct {
	profile string
	region  string
}

// Option customizes how the AWS config for s3:// locations is loaded. With no
// options the shell environment and shared config chain are inherited.
type Option func(*awsOptions)

// WithProfile sets the shared config profile.
func WithProfile(profile string) Option {
	return func(o *awsOptions) { o.profile = profile }
}

// WithRegion sets the region override.
func WithRegion(region string) Option {
	return func(o *awsOptions) { o.region = region }
}

func loadAWSConfig(ctx context.Context, o awsOptions) (awsv2.Config, error) {
	log.Debugf("aws opts: profile=%s, region=%s", o.profile, o.region)

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return awsv2.Config{}, err
	}
	return cfg, nil
}

func newS3Client(ctx context.Context, o awsOptions) (ObjectGetter, error) {
	cfg, err := loadAWSConfig(ctx, o)
	if err != nil {
		return nil, err
	}
	return s3v2.NewFromConfig(cfg), nil
}
