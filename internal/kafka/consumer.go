package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"github.com/nguyentranbao-ct/team-chat/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const publishTimeout = 30 * time.Second

type Consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// NewConsumer feeds message change events into the local hub. Every node
// needs every event, so each process joins with a group of its own.
func NewConsumer(conf config.KafkaConfig, hub usecase.EventPublisher) (Consumer, error) {
	if !conf.Enabled {
		return &noopConsumer{}, nil
	}

	histogram, err := util.GetHistogramVec("kafka_messages_consumed", "status", "topic", "group")
	if err != nil {
		return nil, fmt.Errorf("consumer metrics: %w", err)
	}

	groupID := conf.GroupID + "-" + uuid.NewString()
	group, err := sarama.NewConsumerGroup(conf.Brokers, groupID, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("join group %s: %w", groupID, err)
	}

	return &kafkaConsumer{
		group:   group,
		topics:  []string{conf.Topic},
		handler: newEventHandler(hub, histogram, groupID, publishTimeout),
	}, nil
}

type kafkaConsumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler *eventHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (c *kafkaConsumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	log.Infow(ctx, "kafka consumer started", "topics", c.topics, "group", c.handler.groupID)

	c.wg.Add(2)
	go c.consume(ctx)
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			log.Errorw(ctx, "kafka group error", "error", err)
		}
	}()
	return nil
}

// consume rejoins after every rebalance until the group is closed.
func (c *kafkaConsumer) consume(ctx context.Context) {
	defer c.wg.Done()
	for ctx.Err() == nil {
		err := c.group.Consume(ctx, c.topics, c.handler)
		switch {
		case errors.Is(err, sarama.ErrClosedConsumerGroup):
			return
		case err != nil:
			log.Errorw(ctx, "kafka consume", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (c *kafkaConsumer) Stop(ctx context.Context) error {
	log.Infow(ctx, "kafka consumer stopping")
	if c.cancel != nil {
		c.cancel()
	}
	err := c.group.Close()
	c.wg.Wait()
	return err
}

// eventHandler decodes message events and republishes them to the hub.
type eventHandler struct {
	hub       usecase.EventPublisher
	histogram *prometheus.HistogramVec
	groupID   string
	timeout   time.Duration
}

func newEventHandler(hub usecase.EventPublisher, histogram *prometheus.HistogramVec, groupID string, timeout time.Duration) *eventHandler {
	return &eventHandler{hub: hub, histogram: histogram, groupID: groupID, timeout: timeout}
}

func (h *eventHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *eventHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks every message, failed or not. A dropped event only
// costs subscribers one refresh.
func (h *eventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.processMessage(ctx, msg)
			session.MarkMessage(msg, "")
		}
	}
}

func (h *eventHandler) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) {
	start := time.Now()
	err := h.handle(ctx, msg)
	elapsed := time.Since(start)

	code := codeOf(err)
	h.histogram.WithLabelValues(code.String(), msg.Topic, h.groupID).Observe(elapsed.Seconds())

	text := "event consumed"
	if err != nil {
		text = err.Error()
	}
	log.Logw(ctx, levelFor(code), text,
		"code", code,
		"duration_ms", elapsed.Milliseconds(),
		"lag_ms", start.Sub(msg.Timestamp).Milliseconds(),
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
		"value", json.RawMessage(msg.Value),
	)
}

func (h *eventHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = status.Errorf(codes.Internal, "panic recovered: %v\n%s", r, debug.Stack())
		}
	}()

	event, err := decodeEvent(msg.Value)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.hub.Publish(ctx, event)
}

func decodeEvent(raw []byte) (models.MessageEvent, error) {
	var event models.MessageEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return event, status.Errorf(codes.InvalidArgument, "decode message event: %v", err)
	}
	if event.ChannelID == "" {
		return event, status.Error(codes.InvalidArgument, "message event has no channel")
	}
	return event, nil
}

func codeOf(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	return status.Code(err)
}

// clientCodes are outcomes caused by the event itself rather than by us.
var clientCodes = map[codes.Code]bool{
	codes.Canceled:           true,
	codes.InvalidArgument:    true,
	codes.NotFound:           true,
	codes.AlreadyExists:      true,
	codes.PermissionDenied:   true,
	codes.Unauthenticated:    true,
	codes.ResourceExhausted:  true,
	codes.FailedPrecondition: true,
	codes.Aborted:            true,
	codes.Unimplemented:      true,
	codes.OutOfRange:         true,
}

func levelFor(code codes.Code) logger.Level {
	switch {
	case code == codes.OK:
		return logger.InfoLevel
	case clientCodes[code]:
		return logger.WarnLevel
	}
	return logger.ErrorLevel
}

type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	log.Infow(ctx, "kafka consumer disabled")
	return nil
}

func (n *noopConsumer) Stop(context.Context) error {
	return nil
}
