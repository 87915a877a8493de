package serving

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	statsKeyPrefix  = "fds:decode:stats:"
	statsListMaxLen = 20
	statsTTL        = 24 * time.Hour
)

var (
	redisOnce   sync.Once
	redisClient redis.UniversalClient
)

// BatchSummary is what handleDecode records per request, for later
// inspection via GET /v1/decode/stats/:fingerprint.
type BatchSummary struct {
	RowCount       int      `json:"row_count"`
	SkippedColumns []string `json:"skipped_columns,omitempty"`
	Error          string   `json:"error,omitempty"`
	DecodedAtUnix  int64    `json:"decoded_at_unix"`
}

func redisInstance() redis.UniversalClient {
	redisOnce.Do(func() {
		addrs := viper.GetString("FDS_SERVING_REDIS_ADDRS")
		if addrs == "" {
			addrs = "localhost:6379"
		}
		redisClient = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: strings.Split(addrs, ","),
		})
	})
	return redisClient
}

// recordSummary pushes summary onto the fingerprint's recent-batches
// list, trimming to the most recent statsListMaxLen entries.
func recordSummary(fingerprint string, summary BatchSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		log.Error().Err(err).Msg("serving: failed to marshal batch summary")
		return
	}
	key := statsKeyPrefix + fingerprint
	ctx := context.Background()
	pipe := redisInstance().Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, statsListMaxLen-1)
	pipe.Expire(ctx, key, statsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("fingerprint", fingerprint).Msg("serving: failed to record batch summary")
	}
}

// recentSummaries returns the most recent batch summaries recorded
// against fingerprint, newest first.
func recentSummaries(fingerprint string) ([]BatchSummary, error) {
	key := statsKeyPrefix + fingerprint
	raw, err := redisInstance().LRange(context.Background(), key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	summaries := make([]BatchSummary, 0, len(raw))
	for _, r := range raw {
		var s BatchSummary
		if err := json.Unmarshal([]byte(r), &s); err != nil {
			log.Warn().Err(err).Msg("serving: dropping malformed cached batch summary")
			continue
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
