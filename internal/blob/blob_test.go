package blob

import (
	"context"
	"testing"

	"bestiary/internal/blob/blobtest"
	"bestiary/internal/config"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		cfg  config.Blob
		want Driver
	}{
		{config.Blob{Driver: config.BlobMemory}, DriverMemory},
		{config.Blob{Driver: config.BlobFilesystem, FSRoot: t.TempDir()}, DriverFilesystem},
		{config.Blob{Driver: config.BlobS3, S3Bucket: "bucket", S3Region: "eu-west-1"}, DriverS3},
	}
	for _, tc := range cases {
		store, err := Open(ctx, tc.cfg)
		if err != nil {
			t.Fatalf("open %s: %v", tc.cfg.Driver, err)
		}
		if store.Driver() != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, store.Driver())
		}
	}
}

func TestOpenNoneReturnsNilStore(t *testing.T) {
	for _, driver := range []string{"", config.BlobNone} {
		store, err := Open(context.Background(), config.Blob{Driver: driver})
		if err != nil || store != nil {
			t.Fatalf("driver %q: expected nil store, got %v %v", driver, store, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Blob{Driver: "gcs"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFacadeStoresConform(t *testing.T) {
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	for name, store := range map[string]Store{"fs": fsStore, "memory": NewMemory(), "s3": NewMockS3ForTests()} {
		t.Run(name, func(t *testing.T) { blobtest.Conformance(t, store) })
	}
}
