package listeners

import (
	"bytes"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog/log"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	kafkaConf "github.com/Meesho/BharatMLStack/fds-decoder/internal/consumer/config"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/fds"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/metric"
)

const (
	envPrefix            = "KAFKA_CONSUMERS_FDS_BATCH_CONSUMER"
	bootstrapServers     = "bootstrap.servers"
	groupID              = "group.id"
	autoOffsetReset      = "auto.offset.reset"
	reBalanceEnable      = "go.application.rebalance.enable"
	enableAutoCommit     = "enable.auto.commit"
	autoCommitIntervalMs = "auto.commit.interval.ms"
	saslUsername         = "sasl.username"
	saslPassword         = "sasl.password"
	saslMechanism        = "sasl.mechanisms"
	securityProtocol     = "security.protocol"
	clientId             = "client.id"
)

var (
	once          sync.Once
	kafkaListener *KafkaListener
)

// TensorBuilder sizes and allocates the destination tensors for one
// batch; the driver owns the mapping from fds.DenseMetadata to
// tensorsink.DType.
type TensorBuilder func(batchSize int) []*tensorsink.DenseTensor

// KafkaListener consumes one message per FDS record (one Avro-encoded
// record per Kafka message) and decodes each record through a
// pre-initialized fds.Decoder, batching per partition the same way the
// teacher's feature-persist consumer does.
type KafkaListener struct {
	decoder              *fds.Decoder
	newTensors           TensorBuilder
	numValuesSlots       int
	numIndicesSlots      int
	kafkaConfigGenerator kafkaConf.KafkaConfigGenerator
	consumers            []*kafka.Consumer
	kafkaConfig          *kafkaConf.KafkaConfig
	sigChan              chan os.Signal
}

// NewKafkaListener builds the process-wide listener. decoder must
// already be Initialize-d against the batch's schema. numValuesSlots and
// numIndicesSlots size the fds.ValueBuffer allocated fresh for each
// flushed batch.
func NewKafkaListener(decoder *fds.Decoder, newTensors TensorBuilder, numValuesSlots, numIndicesSlots int) *KafkaListener {
	once.Do(func() {
		kafkaConfigGenerator := kafkaConf.NewKafkaConfig()
		kafkaConfig, err := kafkaConfigGenerator.BuildConfigFromEnv(envPrefix)
		if err != nil {
			log.Panic().Err(err).Msg("Failed to build kafka config")
		}

		kafkaListener = &KafkaListener{
			decoder:              decoder,
			newTensors:           newTensors,
			numValuesSlots:       numValuesSlots,
			numIndicesSlots:      numIndicesSlots,
			kafkaConfigGenerator: kafkaConfigGenerator,
			kafkaConfig:          kafkaConfig,
		}
	})
	return kafkaListener
}

func (k *KafkaListener) Init() {
	for i := 0; i < k.kafkaConfig.Concurrency; i++ {
		indexString := strconv.Itoa(i)
		consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
			bootstrapServers:     k.kafkaConfig.BootstrapURLs,
			groupID:              k.kafkaConfig.GroupID,
			autoOffsetReset:      k.kafkaConfig.AutoOffsetReset,
			reBalanceEnable:      k.kafkaConfig.ReBalanceEnable,
			enableAutoCommit:     k.kafkaConfig.AutoCommitEnable,
			autoCommitIntervalMs: k.kafkaConfig.AutoCommitIntervalInMs,
			saslUsername:         k.kafkaConfig.SaslUsername,
			saslPassword:         k.kafkaConfig.SaslPassword,
			securityProtocol:     k.kafkaConfig.SecurityProtocol,
			saslMechanism:        k.kafkaConfig.SaslMechanism,
			clientId:             k.kafkaConfig.ClientID + "-" + indexString,
		})
		if err != nil {
			log.Panic().Err(err).Msg("Failed to create Kafka consumer.")
		}
		err = consumer.SubscribeTopics([]string{k.kafkaConfig.Topic}, nil)
		if err != nil {
			log.Panic().Err(err).Msgf("Failed to subscribe to topic %s", k.kafkaConfig.Topic)
		}
		k.consumers = append(k.consumers, consumer)
	}
	k.sigChan = make(chan os.Signal, 1)
	signal.Notify(k.sigChan, syscall.SIGINT, syscall.SIGTERM)
}

func (k *KafkaListener) Consume() {
	for i, c := range k.consumers {
		log.Info().Msgf("Starting consumption for FDS record batch %v", i)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Msgf("%v : Recovered from panic: %v", c, r)
					partitions, _ := c.Assignment()
					_, err := c.SeekPartitions(partitions)
					if err != nil {
						log.Error().Msgf("%v : Failed to seek partitions", c)
					}
					metric.Incr("fds_consumer_panic", []string{"group:" + k.kafkaConfig.GroupID, "client:" + k.kafkaConfig.ClientID})
				}
			}()
			run := true

			partitionMessages := make(map[int32][]*kafka.Message)
			partitionCounts := make(map[int32]int)
			flushTimer := time.NewTicker(30 * time.Second)

			for run {
				select {
				case <-k.sigChan:
					log.Info().Msgf("Terminating Instance %v", c)

					for partition, messages := range partitionMessages {
						if len(messages) > 0 {
							log.Info().Msgf("Processing remaining %d messages from partition %d before shutdown", len(messages), partition)
							k.process(c, messages)
						}
					}

					if err := c.Unsubscribe(); err != nil {
						log.Error().Msg("Error while UnSubscribing Topic")
					}
					if err := c.Close(); err != nil {
						log.Error().Msg("Error while Closing Consumer")
					}
					run = false

				case <-flushTimer.C:
					for partition, messages := range partitionMessages {
						if len(messages) > 0 {
							log.Info().Msgf("Processing %d messages from partition %d due to timeout", len(messages), partition)
							k.process(c, messages)
							partitionMessages[partition] = partitionMessages[partition][:0]
							partitionCounts[partition] = 0
						}
					}

				default:
					ev := c.Poll(k.kafkaConfig.PollTimeout)
					if ev == nil {
						continue
					}
					switch e := ev.(type) {
					case *kafka.Message:
						metric.Incr("fds_events_consumed", []string{
							"topic:" + *e.TopicPartition.Topic,
							"group:" + k.kafkaConfig.GroupID,
							"client:" + k.kafkaConfig.ClientID,
						})

						partition := e.TopicPartition.Partition
						if _, exists := partitionMessages[partition]; !exists {
							partitionMessages[partition] = make([]*kafka.Message, 0, k.kafkaConfig.BatchSize)
							partitionCounts[partition] = 0
						}
						partitionMessages[partition] = append(partitionMessages[partition], e)
						partitionCounts[partition]++

						if partitionCounts[partition] == k.kafkaConfig.BatchSize {
							log.Info().Msgf("Processing batch of %d messages from partition %d", partitionCounts[partition], partition)
							k.process(c, partitionMessages[partition])
							partitionMessages[partition] = partitionMessages[partition][:0]
							partitionCounts[partition] = 0
						}

					case kafka.Error:
						if e.IsFatal() {
							log.Error().Err(e).Msg("Fatal Kafka error. Shutting down consumer.")

							for partition, messages := range partitionMessages {
								if len(messages) > 0 {
									log.Info().Msgf("Processing remaining %d messages from partition %d before fatal error", len(messages), partition)
									k.process(c, messages)
								}
							}

							run = false
						} else {
							log.Error().Err(e).Msg("Non-fatal Kafka error encountered.")
						}

					default:
						log.Debug().Msgf("Ignored event: %#v", e)
					}
				}
			}
		}()
	}
}

// process decodes one flushed batch. Row offsets strictly increase by
// one per record within the batch, starting at zero, per the decoder's
// ordering contract. A decode failure abandons the whole batch: the
// stream may be left mid-record, so no partial-row recovery is
// attempted. With auto-commit disabled the consumer seeks back to the
// batch's first offset to re-read it; with auto-commit enabled it does
// not seek.
func (k *KafkaListener) process(consumer *kafka.Consumer, messages []*kafka.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Panic occurred in method %s: %v\n", r, debug.Stack())
		}
	}()
	startOffset := messages[0].TopicPartition.Offset
	topic := messages[0].TopicPartition.Topic
	partition := messages[0].TopicPartition.Partition

	tensors := k.newTensors(len(messages))
	buf := fds.NewValueBuffer(k.numValuesSlots, k.numIndicesSlots)

	isFailed := false
	rowOffset := 0
	for _, msg := range messages {
		byteDec := avro.NewBinaryDecoder(bytes.NewReader(msg.Value))
		err := k.decoder.DecodeRecord(byteDec, tensors, buf, k.decoder.SkippedData(), rowOffset)
		if err != nil {
			log.Error().Err(err).Msgf("Failed to decode FDS record at row offset %d", rowOffset)
			metric.Incr("fds_decode_error", []string{"group:" + k.kafkaConfig.GroupID, "client:" + k.kafkaConfig.ClientID})
			isFailed = true
			break
		}
		rowOffset++
	}

	if !isFailed {
		metric.Count("fds_records_decoded", int64(rowOffset), []string{"group:" + k.kafkaConfig.GroupID, "client:" + k.kafkaConfig.ClientID})
		if skipped := k.decoder.SkippedData(); len(skipped) > 0 {
			log.Debug().Msgf("Batch of %d records carried %d skipped columns", rowOffset, len(skipped))
		}
	}

	if !k.kafkaConfig.AutoCommitEnable {
		if !isFailed {
			if _, err := consumer.Commit(); err != nil {
				log.Error().Err(err).Msg("Failed to commit messages")
			}
		} else {
			seekPartitions := []kafka.TopicPartition{
				{
					Topic:     topic,
					Partition: partition,
					Offset:    kafka.Offset(startOffset),
				},
			}
			if _, err := consumer.SeekPartitions(seekPartitions); err != nil {
				log.Error().Msgf("%v : Failed to seek partitions", consumer)
			}
		}
	}
}
