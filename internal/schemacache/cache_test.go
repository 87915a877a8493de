package schemacache_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/schemacache"
)

func TestCachePutGetRoundTrip(t *testing.T) {
	c := schemacache.New(1024 * 1024)
	schemaJSON := []byte(`{"type":"record","name":"r","fields":[{"name":"a","type":"int"}]}`)
	id := schemacache.Fingerprint(schemaJSON)

	_, ok := c.Get(id)
	require.False(t, ok)

	c.Put(id, schemaJSON)
	got, ok := c.Get(id)
	require.True(t, ok)
	require.Equal(t, schemaJSON, got)
}

func TestCacheCompressesLargePayload(t *testing.T) {
	c := schemacache.New(1024 * 1024)
	big := []byte(`{"type":"record","name":"r","fields":[` + strings.Repeat(`{"name":"a","type":"int"},`, 200) + `{"name":"z","type":"int"}]}`)
	id := schemacache.Fingerprint(big)

	c.Put(id, big)
	got, ok := c.Get(id)
	require.True(t, ok)
	require.Equal(t, big, got)
}

func TestFingerprintStable(t *testing.T) {
	a := schemacache.Fingerprint([]byte("same"))
	b := schemacache.Fingerprint([]byte("same"))
	require.Equal(t, a, b)
}
