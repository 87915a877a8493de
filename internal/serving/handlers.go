package serving

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/schemacache"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/fds"
)

func registerRoutes(router *gin.Engine) {
	v1 := router.Group("/v1")
	{
		v1.POST("/decode", handleDecode)
		v1.GET("/decode/stats/:fingerprint", handleDecodeStats)
	}
}

// decodeRequest is the inline, single-record debug request body: a
// schema, a column declaration against it, and one base64-encoded
// Avro-binary record. There is no batch here — rowOffset is always 0.
type decodeRequest struct {
	SchemaJSON json.RawMessage      `json:"schema_json" binding:"required"`
	Dense      []fds.DenseMetadata  `json:"dense"`
	Sparse     []fds.SparseMetadata `json:"sparse"`
	Varlen     []fds.VarlenMetadata `json:"varlen"`
	RecordB64  string               `json:"record_base64" binding:"required"`
}

type decodeResponse struct {
	Fingerprint    string `json:"fingerprint"`
	SkippedColumns []int  `json:"skipped_columns"`
}

// handleDecode decodes exactly one record against an inline schema and
// column declaration, for debugging a malformed record outside the
// Kafka path. A record decode failure is reported as a 422 with the error
// message; it is still recorded to the stats cache so repeated failures
// against the same schema are visible via GET /v1/decode/stats/:fingerprint.
func handleDecode(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	fingerprint := schemacache.Fingerprint(req.SchemaJSON)

	schema, err := avro.ParseSchema(req.SchemaJSON)
	if err != nil {
		recordSummary(fingerprint, BatchSummary{Error: err.Error(), DecodedAtUnix: time.Now().Unix()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schema: " + err.Error()})
		return
	}

	record, err := base64.StdEncoding.DecodeString(req.RecordB64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record_base64: " + err.Error()})
		return
	}

	decoder := fds.NewDecoder(req.Dense, req.Sparse, req.Varlen)
	if err := decoder.Initialize(schema); err != nil {
		recordSummary(fingerprint, BatchSummary{Error: err.Error(), DecodedAtUnix: time.Now().Unix()})
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to bind schema: " + err.Error()})
		return
	}

	numValues, numIndices := fds.SlotCounts(req.Sparse, req.Varlen)
	tensors := fds.NewTensors(req.Dense, 1)
	buf := fds.NewValueBuffer(numValues, numIndices)

	byteDec := avro.NewBinaryDecoder(bytes.NewReader(record))
	if err := decoder.DecodeRecord(byteDec, tensors, buf, decoder.SkippedData(), 0); err != nil {
		log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("serving: record decode failed")
		recordSummary(fingerprint, BatchSummary{Error: err.Error(), DecodedAtUnix: time.Now().Unix()})
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	skipped := decoder.SkippedData()
	skippedIdx := make([]int, 0, len(skipped))
	for i := range skipped {
		skippedIdx = append(skippedIdx, i)
	}

	recordSummary(fingerprint, BatchSummary{RowCount: 1, DecodedAtUnix: time.Now().Unix()})

	c.JSON(http.StatusOK, decodeResponse{
		Fingerprint:    fingerprint,
		SkippedColumns: skippedIdx,
	})
}

// handleDecodeStats returns the most recently recorded batch summaries
// for a schema fingerprint.
func handleDecodeStats(c *gin.Context) {
	fingerprint := c.Param("fingerprint")
	summaries, err := recentSummaries(fingerprint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fingerprint": fingerprint, "summaries": summaries})
}
