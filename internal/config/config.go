// Package config loads process configuration from BESTIARY_* environment
// variables. CLI flags override the parsed values.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Archive drivers.
const (
	ArchiveNone     = "none"
	ArchiveMemory   = "memory"
	ArchiveSQLite   = "sqlite"
	ArchivePostgres = "postgres"
)

// Blob drivers.
const (
	BlobNone       = "none"
	BlobFilesystem = "fs"
	BlobS3         = "s3"
	BlobMemory     = "memory"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full process configuration.
type Config struct {
	LogLevel      string `env:"BESTIARY_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"BESTIARY_LOG_FORMAT" envDefault:"console"`
	CatalogPath   string `env:"BESTIARY_CATALOG_PATH"`
	KnowledgePath string `env:"BESTIARY_KNOWLEDGE_PATH"`
	Strategy      string `env:"BESTIARY_STRATEGY" envDefault:"naive"`
	MetricsAddr   string `env:"BESTIARY_METRICS_ADDR" envDefault:"127.0.0.1:9464"`
	Parallelism   int    `env:"BESTIARY_PARALLELISM" envDefault:"4"`
	Archive       Archive
	Blob          Blob
}

// Archive selects where resolved sessions are stored.
type Archive struct {
	Driver      string `env:"BESTIARY_ARCHIVE_DRIVER" envDefault:"none"`
	SQLitePath  string `env:"BESTIARY_SQLITE_PATH" envDefault:"bestiary.db"`
	PostgresDSN string `env:"BESTIARY_POSTGRES_DSN"`
}

// Blob selects where session transcripts are exported.
type Blob struct {
	Driver      string `env:"BESTIARY_BLOB_DRIVER" envDefault:"none"`
	FSRoot      string `env:"BESTIARY_BLOB_FS_ROOT" envDefault:"./transcripts"`
	S3Bucket    string `env:"BESTIARY_BLOB_S3_BUCKET"`
	S3Region    string `env:"BESTIARY_BLOB_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"BESTIARY_BLOB_S3_ENDPOINT"`
	S3PathStyle bool   `env:"BESTIARY_BLOB_S3_PATH_STYLE"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations and driver prerequisites.
func (c Config) Validate() error {
	switch c.Strategy {
	case "", "naive", "indexed":
	default:
		return fmt.Errorf("%w: strategy %q", ErrInvalid, c.Strategy)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be positive, got %d", ErrInvalid, c.Parallelism)
	}
	switch c.Archive.Driver {
	case "", ArchiveNone, ArchiveMemory:
	case ArchiveSQLite:
		if c.Archive.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite archive requires BESTIARY_SQLITE_PATH", ErrInvalid)
		}
	case ArchivePostgres:
		if c.Archive.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres archive requires BESTIARY_POSTGRES_DSN", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: archive driver %q", ErrInvalid, c.Archive.Driver)
	}
	switch c.Blob.Driver {
	case "", BlobNone, BlobMemory, BlobFilesystem:
	case BlobS3:
		if c.Blob.S3Bucket == "" {
			return fmt.Errorf("%w: s3 blob driver requires BESTIARY_BLOB_S3_BUCKET", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: blob driver %q", ErrInvalid, c.Blob.Driver)
	}
	return nil
}
