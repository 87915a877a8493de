// Package schemacache provides an in-process cache of raw schema JSON bytes,
// keyed by a caller-supplied id (Fingerprint derives one from the schema
// text). It sits strictly in front of
// schema retrieval (e.g. from a remote registry keyed by id) and has no
// knowledge of pkg/fds.Decoder or its compiled plan.
package schemacache

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/coocood/freecache"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/compression"
)

const (
	defaultCacheSizeBytes = 64 * 1024 * 1024
	defaultTTLSeconds     = 300
	compressAboveNumBytes = 2048
	ttlEnvKey             = "FDS_SCHEMA_CACHE_TTL_SECONDS"
	sizeEnvKey            = "FDS_SCHEMA_CACHE_SIZE_BYTES"
	compressThresholdEnv  = "FDS_SCHEMA_CACHE_COMPRESS_ABOVE_BYTES"
)

var (
	once     sync.Once
	instance *Cache
)

// Cache wraps a freecache.Cache holding raw schema JSON bytes under the
// id passed to Put. Entries above a configurable size are zstd-compressed before
// storage; freecache itself is lock-sharded and safe for concurrent use.
type Cache struct {
	store             *freecache.Cache
	ttlSeconds        int
	compressThreshold int
	encoder           compression.Encoder
	decoder           compression.Decoder
}

// Instance returns the process-wide schema cache, initializing it from
// viper-configured settings on first use.
func Instance() *Cache {
	once.Do(func() {
		instance = New(viper.GetInt(sizeEnvKey))
	})
	return instance
}

// New constructs a Cache with the given freecache size in bytes. A
// sizeBytes of 0 falls back to defaultCacheSizeBytes.
func New(sizeBytes int) *Cache {
	if sizeBytes <= 0 {
		sizeBytes = defaultCacheSizeBytes
	}
	ttl := defaultTTLSeconds
	if viper.IsSet(ttlEnvKey) {
		ttl = viper.GetInt(ttlEnvKey)
	}
	threshold := compressAboveNumBytes
	if viper.IsSet(compressThresholdEnv) {
		threshold = viper.GetInt(compressThresholdEnv)
	}
	enc, err := compression.GetEncoder(compression.TypeZSTD)
	if err != nil {
		log.Warn().Err(err).Msg("schemacache: falling back to no-op encoder")
		enc, _ = compression.GetEncoder(compression.TypeNone)
	}
	dec, err := compression.GetDecoder(compression.TypeZSTD)
	if err != nil {
		log.Warn().Err(err).Msg("schemacache: falling back to no-op decoder")
		dec, _ = compression.GetDecoder(compression.TypeNone)
	}
	return &Cache{
		store:             freecache.NewCache(sizeBytes),
		ttlSeconds:        ttl,
		compressThreshold: threshold,
		encoder:           enc,
		decoder:           dec,
	}
}

// Fingerprint returns the cache key for a raw schema JSON payload.
func Fingerprint(schemaJSON []byte) string {
	return fmt.Sprintf("%x", xxhash.Sum64(schemaJSON))
}

// Get returns the raw schema JSON for id, if present and unexpired.
func (c *Cache) Get(id string) ([]byte, bool) {
	raw, err := c.store.Get([]byte(id))
	if err != nil {
		return nil, false
	}
	if len(raw) == 0 {
		return raw, true
	}
	compressed := raw[0] == 1
	payload := raw[1:]
	if !compressed {
		return payload, true
	}
	data, err := c.decoder.Decode(payload)
	if err != nil {
		log.Warn().Err(err).Msg("schemacache: failed to decompress cached schema")
		return nil, false
	}
	return data, true
}

// Put stores schemaJSON under id with the cache's configured TTL,
// compressing the payload first when it exceeds the configured threshold.
func (c *Cache) Put(id string, schemaJSON []byte) {
	compressed := byte(0)
	payload := schemaJSON
	if len(schemaJSON) > c.compressThreshold {
		payload = c.encoder.Encode(schemaJSON)
		compressed = 1
	}
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, compressed)
	buf = append(buf, payload...)
	if err := c.store.Set([]byte(id), buf, c.ttlSeconds); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("schemacache: failed to store schema")
	}
}
