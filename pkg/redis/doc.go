// Package redis connects to Redis and exposes the checksum index used to
// reject duplicate uploads.
//
// Connect retries the initial ping according to Config, whose fields are
// loaded from the environment with github.com/caarlos0/env. Healthcheck
// returns a probe function for readiness endpoints. ChecksumIndex satisfies
// upload.ChecksumIndex, so the same instance can back both the Unique
// validator and the IndexedStorage decorator:
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	index := redis.NewChecksumIndexFromConfig(client, cfg.Redis)
//
//	storage := upload.WithIndex(local, index)
//	f.AddValidator(upload.NewUnique(index))
package redis
