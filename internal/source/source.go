// Package source loads raw coverage report text from wherever it lives: a
// local file, standard input or an S3 object.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/chmouel/coverage-delta/internal/log"
)

// Stdin is the location that reads from standard input.
const Stdin = "-"

// ErrNotFound is returned when a report location does not exist.
var ErrNotFound = errors.New("coverage report not found")

// ObjectGetter is the subset of the S3 client used to fetch reports.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// Loader reads report blobs. The zero value is not usable; call NewLoader.
type Loader struct {
	// Stdin is read for the "-" location.
	Stdin io.Reader
	// NewS3 builds the client for s3:// locations on first use.
	NewS3 func(ctx context.Context) (ObjectGetter, error)

	s3 ObjectGetter
}

// NewLoader returns a Loader reading standard input and resolving s3://
// locations with the default AWS config chain plus opts.
func NewLoader(opts ...Option) *Loader {
	var o awsOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader{
		Stdin: os.Stdin,
		NewS3: func(ctx context.Context) (ObjectGetter, error) {
			return newS3Client(ctx, o)
		},
	}
}

// Load returns the bytes at location. An empty location means "no report"
// and yields nil without error.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	switch {
	case location == "":
		return nil, nil
	case location == Stdin:
		if l.Stdin == nil {
			return nil, fmt.Errorf("stdin: %w", ErrNotFound)
		}
		data, err := io.ReadAll(l.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	if bucket, key, ok := ParseS3URL(location); ok {
		return l.loadS3(ctx, bucket, key)
	}

	data, err := os.ReadFile(location) //nolint:gosec // location comes from the command line
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", location, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	return data, nil
}

func (l *Loader) loadS3(ctx context.Context, bucket, key string) ([]byte, error) {
	if l.s3 == nil {
		if l.NewS3 == nil {
			return nil, errors.New("no S3 client configured")
		}
		client, err := l.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		l.s3 = client
	}

	log.Debugf("fetching s3://%s/%s", bucket, key)
	result, err := l.s3.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(bucket),
		Key:    awsv2.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}
	return data, nil
}

// ParseS3URL splits an s3://bucket/key location. ok is false for anything
// else, including a URL with no key.
func ParseS3URL(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
