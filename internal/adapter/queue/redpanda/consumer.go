package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/quyet5603/DATN-sub002/internal/adapter/observability"
	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// AnalyzeHandler processes one CV analysis task.
type AnalyzeHandler interface {
	AnalyzeCV(ctx domain.Context, payload domain.AnalyzeCVPayload) error
}

// Consumer is a group consumer that dispatches analysis tasks to a
// handler with bounded concurrency. Delivery is at-least-once: the
// handler must tolerate replays of the same CV id.
type Consumer struct {
	client  *kgo.Client
	handler AnalyzeHandler
	sem     chan struct{}
}

// NewConsumer joins the consumer group on the analysis topic.
func NewConsumer(brokers []string, groupID string, maxConcurrency int, handler AnalyzeHandler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=queue.consumer: no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("op=queue.consumer: missing group id")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))),
	)
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(TopicAnalyzeCV),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=queue.consumer: %w", err)
	}
	return &Consumer{
		client:  client,
		handler: handler,
		sem:     make(chan struct{}, maxConcurrency),
	}, nil
}

// Run polls until the context is cancelled. Records within one poll are
// processed concurrently up to the configured limit.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("fetch error",
				slog.String("topic", topic),
				slog.Int("partition", int(partition)),
				slog.Any("error", err))
		})

		var wg sync.WaitGroup
		fetches.EachRecord(func(rec *kgo.Record) {
			wg.Add(1)
			c.sem <- struct{}{}
			go func(rec *kgo.Record) {
				defer wg.Done()
				defer func() { <-c.sem }()
				c.processRecord(ctx, rec)
			}(rec)
		})
		wg.Wait()
	}
}

func (c *Consumer) processRecord(ctx context.Context, rec *kgo.Record) {
	var payload domain.AnalyzeCVPayload
	if err := json.Unmarshal(rec.Value, &payload); err != nil {
		observability.AnalyzeTasksTotal.WithLabelValues("malformed").Inc()
		slog.Error("malformed analysis task dropped",
			slog.String("key", string(rec.Key)), slog.Any("error", err))
		return
	}
	log := slog.With(
		slog.String("task_id", payload.TaskID),
		slog.String("cv_id", payload.CVID))
	if err := c.handler.AnalyzeCV(ctx, payload); err != nil {
		observability.AnalyzeTasksTotal.WithLabelValues("failed").Inc()
		log.Error("cv analysis task failed", slog.Any("error", err))
		return
	}
	observability.AnalyzeTasksTotal.WithLabelValues("completed").Inc()
	log.Info("cv analysis task completed")
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
