package redpanda

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// createTopicIfNotExists creates the topic via the Kafka admin API.
// Error code 36 (TOPIC_ALREADY_EXISTS) is not a failure.
func createTopicIfNotExists(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	if topic == "" {
		return fmt.Errorf("topic name cannot be empty")
	}

	req := kmsg.NewCreateTopicsRequest()
	req.TimeoutMillis = 30000

	topicReq := kmsg.NewCreateTopicsRequestTopic()
	topicReq.Topic = topic
	topicReq.NumPartitions = partitions
	topicReq.ReplicationFactor = replicationFactor
	req.Topics = append(req.Topics, topicReq)

	resp, err := client.Request(ctx, &req)
	if err != nil {
		return fmt.Errorf("op=queue.create_topic: %w", err)
	}
	createResp, ok := resp.(*kmsg.CreateTopicsResponse)
	if !ok {
		return fmt.Errorf("op=queue.create_topic: unexpected response type %T", resp)
	}
	for _, tr := range createResp.Topics {
		if tr.ErrorCode == 0 {
			slog.Info("topic created", slog.String("topic", tr.Topic))
			continue
		}
		if tr.ErrorCode == 36 { // TOPIC_ALREADY_EXISTS
			continue
		}
		msg := ""
		if tr.ErrorMessage != nil {
			msg = *tr.ErrorMessage
		}
		return fmt.Errorf("op=queue.create_topic: %s (code %d)", msg, tr.ErrorCode)
	}
	return nil
}
