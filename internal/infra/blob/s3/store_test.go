package s3

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"bestiary/internal/blob/blobtest"
	"bestiary/internal/blob/core"
)

func TestConformanceAgainstFakeBucket(t *testing.T) {
	blobtest.Conformance(t, NewMockForTests())
}

func TestListFollowsContinuationTokens(t *testing.T) {
	s := NewMockForTests()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("p/%02d", i)
		if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := s.List(ctx, "p/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 5 || infos[0].Key != "p/00" || infos[4].Key != "p/04" {
		t.Fatalf("unexpected listing %+v", infos)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestNewAppliesOptions(t *testing.T) {
	s, err := New(context.Background(), Config{
		Bucket:          "b",
		Endpoint:        "http://minio.local:9000",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: newFakeBucket(10)},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Bucket() != "b" || s.Driver() != core.DriverS3 {
		t.Fatalf("unexpected store %+v", s)
	}
	if _, err := s.Put(context.Background(), "k", strings.NewReader("v"), core.PutOptions{}); err != nil {
		t.Fatalf("put through custom client: %v", err)
	}
}

func TestDecodeChunked(t *testing.T) {
	in := "5;chunk-signature=abc\r\nhello\r\n6\r\n world\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n"
	out, err := decodeChunked([]byte(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out) != "hello world" {
		t.Fatalf("unexpected %q", out)
	}
	if _, err := decodeChunked([]byte("zz\r\n")); err == nil {
		t.Fatal("expected error for bad size")
	}
}
