//go:build integration

package s3

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/athenaq/athenaq/internal/storage"
)

func TestStoreUploadAgainstMinIO(t *testing.T) {
	endpoint := envOr("ATHENAQ_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("ATHENAQ_TEST_S3_ENDPOINT is not set")
	}

	cfg := Config{
		Endpoint:         endpoint,
		Region:           envOr("ATHENAQ_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("ATHENAQ_TEST_S3_BUCKET", "athenaq-it"),
		AccessKeyID:      envOr("ATHENAQ_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("ATHENAQ_TEST_S3_SECRET_KEY", "miniostorage"),
		UseSSL:           false,
		Prefix:           "integration-tests",
		AutoCreateBucket: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key, err := storage.BuildReportKey(time.Now().UTC(), "query_20260115_103045.txt")
	if err != nil {
		t.Fatalf("BuildReportKey() error = %v", err)
	}
	payload := []byte("athenaq-integration")

	if _, err := store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	stat, err := store.Stat(ctx, key)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stat.Size != int64(len(payload)) {
		t.Fatalf("Stat().Size = %d, want %d", stat.Size, len(payload))
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
