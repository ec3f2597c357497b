package s3client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

// TestConfig starts an in-memory gofakes3 server for the test and returns a
// Config pointing at it. The server is closed when the test completes.
func TestConfig(t testing.TB, bucketName, prefix string) Config {
	t.Helper()

	faker := gofakes3.New(s3mem.New())
	ts := httptest.NewServer(faker.Server())
	t.Cleanup(ts.Close)

	return Config{
		Endpoint:        ts.URL,
		Region:          "us-east-1",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		BucketName:      bucketName,
		Prefix:          prefix,
		UsePathStyle:    true,
	}
}

// TestClient returns a Client on a fresh in-memory server with bucketName
// already created.
func TestClient(t testing.TB, bucketName, prefix string) *Client {
	t.Helper()

	ctx := context.Background()
	c, err := New(ctx, TestConfig(t, bucketName, prefix))
	if err != nil {
		t.Fatalf("s3client: %v", err)
	}
	if err := c.EnsureBucket(ctx); err != nil {
		t.Fatalf("s3client: %v", err)
	}
	return c
}
