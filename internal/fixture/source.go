// Package fixture locates the initial dataset CSVs that /initialize reloads.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mohammed-shakir/isuumo/internal/core/config"
)

const (
	ChairFile  = "chair.csv"
	EstateFile = "estate.csv"
)

// ErrMissing means the source has no file by that name.
var ErrMissing = errors.New("fixture file missing")

type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// New builds the source selected by cfg.Source: fs, s3 or none.
func New(ctx context.Context, cfg config.FixtureCfg) (Source, error) {
	switch cfg.Source {
	case "", "fs":
		return DirSource{Dir: cfg.Dir}, nil
	case "s3":
		return NewS3Source(ctx, cfg)
	case "none":
		return noneSource{}, nil
	default:
		return nil, fmt.Errorf("fixture: unknown source %q", cfg.Source)
	}
}

type DirSource struct {
	Dir string
}

func (d DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrMissing)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (d DirSource) String() string { return "fs:" + d.Dir }

type noneSource struct{}

func (noneSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("%s: %w", name, ErrMissing)
}

func (noneSource) String() string { return "none" }

type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Source(ctx context.Context, cfg config.FixtureCfg, optFns ...func(*s3.Options)) (*S3Source, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("fixture: s3 bucket required")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("fixture: aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
	return &S3Source{client: client, bucket: cfg.S3Bucket, prefix: cfg.S3Prefix}, nil
}

func (s *S3Source) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		var nsk *types.NoSuchKey
		var re *awshttp.ResponseError
		if errors.As(err, &nsk) || (errors.As(err, &re) && re.HTTPStatusCode() == 404) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, ErrMissing)
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	return out.Body, nil
}

func (s *S3Source) String() string { return "s3://" + s.bucket + "/" + s.prefix }
