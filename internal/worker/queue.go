package worker

import (
	"context"
	"errors"

	"github.com/leshachaplin/capirelay/internal/domain"
	"github.com/leshachaplin/capirelay/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/capirelay/internal/worker/redpanda/producer"
)

const defaultQueueSize = 1024

var ErrQueueFull = errors.New("conversion queue is full")

type Queue interface {
	Publish(ctx context.Context, key string, conversion domain.Conversion) error
	Consume(ctx context.Context, taskPayload chan<- domain.Conversion, done <-chan struct{})
}

type RedpandaQueue struct {
	producer *producer.Producer
	consumer *consumer.Consumer
}

func NewRedpandaQueue(producer *producer.Producer, consumer *consumer.Consumer) *RedpandaQueue {
	return &RedpandaQueue{
		producer: producer,
		consumer: consumer,
	}
}

func (r *RedpandaQueue) Publish(ctx context.Context, key string, conversion domain.Conversion) error {
	if err := r.producer.Publish(ctx, key, conversion); err != nil {
		return err
	}
	return nil
}

func (r *RedpandaQueue) Consume(ctx context.Context, taskPayload chan<- domain.Conversion, done <-chan struct{}) {
	r.consumer.Consume(ctx, taskPayload, done)
}

// MemoryQueue keeps conversions in process. Conversions still queued at shutdown are lost.
type MemoryQueue struct {
	conversions chan domain.Conversion
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &MemoryQueue{
		conversions: make(chan domain.Conversion, size),
	}
}

func (m *MemoryQueue) Publish(ctx context.Context, _ string, conversion domain.Conversion) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.conversions <- conversion:
		return nil
	default:
		return ErrQueueFull
	}
}

func (m *MemoryQueue) Consume(ctx context.Context, taskPayload chan<- domain.Conversion, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case c := <-m.conversions:
			select {
			case taskPayload <- c:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}
}
