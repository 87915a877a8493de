package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/schemacache"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/fds"
)

// batchColumnConfig is the JSON shape a driver operator supplies
// describing the schema for a topic and the dense/sparse/varlen
// features declared against it. One topic's worth of records shares
// exactly one schema and one column declaration for the life of the
// consumer process.
type batchColumnConfig struct {
	SchemaID   string               `json:"schema_id"`
	SchemaJSON json.RawMessage      `json:"schema_json,omitempty"`
	Dense      []fds.DenseMetadata  `json:"dense"`
	Sparse     []fds.SparseMetadata `json:"sparse"`
	Varlen     []fds.VarlenMetadata `json:"varlen"`
}

// loadBatchColumnConfig reads the column declaration from the file named
// by FDS_BATCH_CONFIG_FILE. The schema itself is resolved through
// internal/schemacache, keyed by SchemaID, falling back to the inline
// SchemaJSON on a cache miss (and populating the cache from it).
func loadBatchColumnConfig() (*batchColumnConfig, *avro.Node, error) {
	path := viper.GetString("FDS_BATCH_CONFIG_FILE")
	if path == "" {
		return nil, nil, fmt.Errorf("FDS_BATCH_CONFIG_FILE not set")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading batch config %s: %w", path, err)
	}
	var cfg batchColumnConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing batch config %s: %w", path, err)
	}

	schemaJSON, ok := schemacache.Instance().Get(cfg.SchemaID)
	if !ok {
		if len(cfg.SchemaJSON) == 0 {
			return nil, nil, fmt.Errorf("schema %q not cached and no inline schema_json supplied", cfg.SchemaID)
		}
		schemaJSON = cfg.SchemaJSON
		schemacache.Instance().Put(cfg.SchemaID, schemaJSON)
	}

	schema, err := avro.ParseSchema(schemaJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing schema %q: %w", cfg.SchemaID, err)
	}
	return &cfg, schema, nil
}

// newTensorBuilder closes over the declared dense metadata and returns a
// function that allocates a fresh, correctly-sized tensor slice for a
// batch of the given size.
func newTensorBuilder(dense []fds.DenseMetadata) func(batchSize int) []*tensorsink.DenseTensor {
	return func(batchSize int) []*tensorsink.DenseTensor {
		return fds.NewTensors(dense, batchSize)
	}
}

// valueAndIndicesSlotCounts returns the number of value-slot groups and
// indices/count slots a ValueBuffer needs to hold every declared
// sparse/varlen column's output.
func valueAndIndicesSlotCounts(sparse []fds.SparseMetadata, varlen []fds.VarlenMetadata) (numValues, numIndices int) {
	return fds.SlotCounts(sparse, varlen)
}
