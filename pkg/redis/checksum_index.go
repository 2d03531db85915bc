package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChecksumIndex stores content checksums of persisted uploads so duplicate
// files can be rejected across requests and service instances.
// It satisfies upload.ChecksumIndex.
type ChecksumIndex struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewChecksumIndex wraps a connected client. Keys are prefix+checksum and
// hold the storage path of the first file stored with that content.
func NewChecksumIndex(client redis.UniversalClient, prefix string, ttl time.Duration) *ChecksumIndex {
	return &ChecksumIndex{db: client, prefix: prefix, ttl: ttl}
}

// NewChecksumIndexFromConfig uses the key settings from cfg.
func NewChecksumIndexFromConfig(client redis.UniversalClient, cfg Config) *ChecksumIndex {
	return NewChecksumIndex(client, cfg.KeyPrefix, cfg.KeyTTL)
}

// Contains reports whether checksum was recorded before.
func (i *ChecksumIndex) Contains(ctx context.Context, checksum string) (bool, error) {
	n, err := i.db.Exists(ctx, i.key(checksum)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	return n > 0, nil
}

// Add records checksum with the path it was stored under. An existing entry
// keeps its original path.
func (i *ChecksumIndex) Add(ctx context.Context, checksum, path string) error {
	if err := i.db.SetNX(ctx, i.key(checksum), path, i.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	return nil
}

// Path returns the storage path recorded for checksum, or "" if unknown.
func (i *ChecksumIndex) Path(ctx context.Context, checksum string) (string, error) {
	path, err := i.db.Get(ctx, i.key(checksum)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	return path, nil
}

func (i *ChecksumIndex) key(checksum string) string {
	return i.prefix + checksum
}
