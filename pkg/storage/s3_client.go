// Package storage holds the S3-backed attachment store. Tasks keep only the
// generated object names; the blobs live in one bucket.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client stores attachment blobs under generated names.
type S3Client interface {
	Put(ctx context.Context, name string, body io.Reader, contentType string) error
	Delete(ctx context.Context, name string) error
}

// Client is the aws-sdk-go-v2 backed S3Client.
type Client struct {
	s3     *s3.Client
	bucket string
}

// NewS3Client builds a client against the given region and bucket. Explicit
// keys take precedence; otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, region, bucket, accessKey, secretKey string) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Client{s3: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (c *Client) Put(ctx context.Context, name string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(name),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", name, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, name string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", name, err)
	}
	return nil
}
