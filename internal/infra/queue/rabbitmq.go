package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

// RabbitJobQueue реализует очередь задач через AMQP.
type RabbitJobQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	publishMu sync.Mutex
	consumeMu sync.Mutex
	// deliveries создаётся при первом Receive.
	deliveries <-chan amqp.Delivery
}

var _ domain.JobQueue = (*RabbitJobQueue)(nil)

// NewRabbitJobQueue подключается к брокеру и объявляет durable-очередь.
func NewRabbitJobQueue(amqpURL, queue string) (*RabbitJobQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	// Воркер обрабатывает одну задачу за раз.
	if err := ch.Qos(1, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &RabbitJobQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitJobQueue) Enqueue(ctx context.Context, job domain.AnalysisJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	q.publishMu.Lock()
	defer q.publishMu.Unlock()
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.RequestedAt,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive ждёт следующую доставку. ack(false) возвращает сообщение брокеру.
func (q *RabbitJobQueue) Receive(ctx context.Context) (domain.AnalysisJob, domain.AckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.AnalysisJob{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.AnalysisJob{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			return domain.AnalysisJob{}, nil, errors.New("rabbitmq: delivery channel closed")
		}
		job, err := decodeJob(d.Body)
		if err != nil {
			_ = d.Nack(false, false)
			return domain.AnalysisJob{}, func(bool) error { return nil }, err
		}
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			return d.Nack(false, true)
		}
		return job, ack, nil
	}
}

func (q *RabbitJobQueue) consume() (<-chan amqp.Delivery, error) {
	q.consumeMu.Lock()
	defer q.consumeMu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}

// Close закрывает канал и соединение.
func (q *RabbitJobQueue) Close() error {
	_ = q.ch.Close()
	return q.conn.Close()
}
