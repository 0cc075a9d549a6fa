package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config locates the bucket holding videos.
type S3Config struct {
	Bucket string
	Region string
	// Prefix is prepended to every storage path, e.g. "videos/".
	Prefix string
	// Endpoint points the client at an S3-compatible store (MinIO, LocalStack)
	// and switches to path-style addressing.
	Endpoint string
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 serves objects from an S3 bucket.
type S3 struct {
	client objectGetter
	bucket string
	prefix string
}

var _ Adapter = (*S3)(nil)

// NewS3 wraps an existing client.
func NewS3(client *s3.Client, cfg S3Config) *S3 {
	return &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

// NewS3FromConfig builds a client from the default AWS credential chain.
func NewS3FromConfig(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket name cannot be empty")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3(client, cfg), nil
}

// Fetch implements Adapter.Fetch. A missing key maps to ErrNotFound; auth,
// network and server failures map to *BackendError.
func (s *S3) Fetch(ctx context.Context, p string) (*Stream, error) {
	key := path.Join(s.prefix, p)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, &BackendError{Backend: "s3", Path: p, Err: err}
	}

	length := int64(-1)
	if out.ContentLength != nil {
		length = *out.ContentLength
	}
	ct := aws.ToString(out.ContentType)
	if ct == "" || ct == DefaultContentType {
		ct = contentTypeByExt(p)
	}

	return &Stream{
		Body:          out.Body,
		ContentType:   ct,
		ContentLength: length,
	}, nil
}

func isS3NotFound(err error) bool {
	// A missing bucket is a deployment problem, not a missing video.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket" {
		return false
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
