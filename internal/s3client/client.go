// Package s3client uploads test artifacts to an S3-compatible bucket.
// For tests, use gofakes3 via TestClient.
package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Client wraps an S3 client bound to one bucket and key prefix.
type Client struct {
	s3Client   *s3.Client
	bucketName string
	prefix     string
}

// Config holds the configuration for creating an S3 client.
type Config struct {
	// Endpoint is the S3 endpoint URL. Leave empty to use AWS S3.
	Endpoint string
	// Region is the AWS region.
	Region string
	// AccessKeyID and SecretAccessKey are optional; the default credential chain
	// is used when they are empty.
	AccessKeyID     string
	SecretAccessKey string
	// BucketName is the bucket artifacts are written to.
	BucketName string
	// Prefix is prepended to every key, typically the run ID.
	Prefix string
	// UsePathStyle enables path-style addressing. Set to true for gofakes3 and
	// most self-hosted S3 implementations.
	UsePathStyle bool
}

// New creates a new S3 client with the given configuration.
func New(ctx context.Context, cfg Config) (*Client, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewFromS3Client(s3Client, cfg.BucketName, cfg.Prefix), nil
}

// NewFromS3Client creates a Client from an existing S3 client.
func NewFromS3Client(s3Client *s3.Client, bucketName, prefix string) *Client {
	return &Client{
		s3Client:   s3Client,
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
	}
}

// Key joins the client prefix with the given parts, e.g.
// Key("screenshots", "login_test", "TestX.png") -> "<prefix>/screenshots/login_test/TestX.png".
func (c *Client) Key(parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if c.prefix != "" {
		all = append(all, c.prefix)
	}
	for _, p := range parts {
		if trimmed := strings.Trim(p, "/"); trimmed != "" {
			all = append(all, trimmed)
		}
	}
	return path.Join(all...)
}

// PutObject stores content under the given key with the specified content type.
func (c *Client) PutObject(ctx context.Context, key string, content []byte, contentType string) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3client: failed to put object %q: %w", key, err)
	}
	return nil
}

// UploadFile reads a local file and stores it under key.
func (c *Client) UploadFile(ctx context.Context, key, localPath, contentType string) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("s3client: read %s: %w", localPath, err)
	}
	return c.PutObject(ctx, key, content, contentType)
}

// ListKeys returns every key under the client prefix joined with sub.
func (c *Client) ListKeys(ctx context.Context, sub string) ([]string, error) {
	prefix := c.Key(sub)
	if prefix != "" {
		prefix += "/"
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucketName),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3client: failed to list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// EnsureBucket creates the bucket when it does not exist yet. Self-hosted
// endpoints often start empty.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucketName)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("s3client: head bucket %q: %w", c.bucketName, err)
	}
	if _, err := c.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucketName)}); err != nil {
		return fmt.Errorf("s3client: create bucket %q: %w", c.bucketName, err)
	}
	return nil
}
