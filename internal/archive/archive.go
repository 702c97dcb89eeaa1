// Package archive keeps a copy of every accepted import payload in object
// storage so a batch can be replayed or audited later.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Archiver interface {
	Archive(ctx context.Context, kind string, companyID uuid.UUID, payload []byte, contentType string) (string, error)
}

// Noop is used when no bucket is configured.
type Noop struct{}

func (Noop) Archive(context.Context, string, uuid.UUID, []byte, string) (string, error) {
	return "", nil
}

// PutObjectAPI is the part of *s3.Client the archiver uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3 struct {
	client PutObjectAPI
	bucket string
	now    func() time.Time
}

// NewS3 loads AWS credentials from the default chain. A non-empty endpoint
// targets an S3-compatible store such as MinIO with path-style addressing.
func NewS3(ctx context.Context, bucket, region, endpoint string) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3WithClient(client, bucket), nil
}

func NewS3WithClient(client PutObjectAPI, bucket string) *S3 {
	return &S3{client: client, bucket: bucket, now: time.Now}
}

// Archive stores the payload under
// imports/<company>/<kind>/<date>/<uuid><ext> and returns the object key.
func (a *S3) Archive(ctx context.Context, kind string, companyID uuid.UUID, payload []byte, contentType string) (string, error) {
	key := fmt.Sprintf("imports/%s/%s/%s/%s%s",
		companyID, kind, a.now().UTC().Format("2006-01-02"), uuid.NewString(), extension(contentType))

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(payload))),
		Metadata: map[string]string{
			"import-kind": kind,
			"company-id":  companyID.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put archive object: %w", err)
	}
	return key, nil
}

func extension(contentType string) string {
	switch contentType {
	case "application/json":
		return ".json"
	case "text/csv":
		return ".csv"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	}
	return ""
}
