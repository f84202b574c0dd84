// Package redpanda provides the Redpanda/Kafka queue for asynchronous
// CV analysis. Uploading a CV enqueues a task; the worker consumes it,
// runs the analysis pipeline and stores the result on the CV record.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// TopicAnalyzeCV is the topic carrying CV analysis tasks.
const TopicAnalyzeCV = "cv-analyze"

// Producer wraps a Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer connects to the brokers and ensures the topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	return newProducer(brokers, TopicAnalyzeCV)
}

func newProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=queue.producer: no seed brokers provided")
	}
	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))),
	)
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=queue.producer: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), client, topic, 1, 1); err != nil {
		slog.Warn("topic creation failed, assuming it exists",
			slog.String("topic", topic), slog.Any("error", err))
	}
	return &Producer{client: client, topic: topic}, nil
}

// EnqueueAnalyzeCV publishes one analysis task and returns its task id.
func (p *Producer) EnqueueAnalyzeCV(ctx domain.Context, payload domain.AnalyzeCVPayload) (string, error) {
	if payload.TaskID == "" {
		payload.TaskID = ulid.MustNew(ulid.Timestamp(time.Now()), rand.New(rand.NewSource(time.Now().UnixNano()))).String()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("op=queue.enqueue: encode: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(payload.CVID),
		Value: b,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return "", fmt.Errorf("op=queue.enqueue: %w", err)
	}
	slog.Info("cv analysis task enqueued",
		slog.String("task_id", payload.TaskID),
		slog.String("cv_id", payload.CVID))
	return payload.TaskID, nil
}

// Close flushes and releases the underlying client.
func (p *Producer) Close() {
	_ = p.client.Flush(context.Background())
	p.client.Close()
}
