package main

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/consumer/listeners"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/serving"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/fds"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/metric"
)

func initEnv() {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func initLogger() {
	level, err := zerolog.ParseLevel(viper.GetString("APP_LOG_LEVEL"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	initEnv()
	initLogger()
	metric.Init()

	cfg, schema, err := loadBatchColumnConfig()
	if err != nil {
		log.Panic().Err(err).Msg("Failed to load FDS batch column config")
	}

	decoder := fds.NewDecoder(cfg.Dense, cfg.Sparse, cfg.Varlen)
	if err := decoder.Initialize(schema); err != nil {
		log.Panic().Err(err).Msg("Failed to initialize FDS decoder against schema")
	}

	numValues, numIndices := valueAndIndicesSlotCounts(cfg.Sparse, cfg.Varlen)
	buildTensors := newTensorBuilder(cfg.Dense)

	kafkaListener := listeners.NewKafkaListener(decoder, buildTensors, numValues, numIndices)
	kafkaListener.Init()
	kafkaListener.Consume()

	serving.Init()
	if err := serving.Instance().Run(":" + viper.GetString("APP_PORT")); err != nil {
		log.Panic().Err(err).Msg("Error running fdsbatch debug HTTP surface")
	}
}
