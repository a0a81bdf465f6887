// Package events 领域事件发布（RabbitMQ topic exchange）
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// 路由键
const (
	VideoPublished     = "video.published"
	VideoStatusChanged = "video.status_changed"
	ReportResolved     = "report.resolved"
)

// Publisher 事件发布接口，发布失败由调用方记录，不影响主流程
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// Envelope 事件消息体
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// AMQPPublisher 基于 amqp091 的发布者
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	mu       sync.Mutex
}

// NewAMQPPublisher 连接 RabbitMQ 并声明 topic exchange
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := Marshal(routingKey, payload, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Marshal 编码事件消息体
func Marshal(routingKey string, payload interface{}, at time.Time) ([]byte, error) {
	body, err := json.Marshal(Envelope{Type: routingKey, OccurredAt: at.UTC(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}
	return body, nil
}

// NopPublisher 未配置 MQ 时使用，仅记录调试日志
type NopPublisher struct {
	Logger *zap.Logger
}

func (p NopPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	if p.Logger != nil {
		p.Logger.Debug("event skipped, mq not configured", zap.String("routing_key", routingKey))
	}
	return nil
}

func (p NopPublisher) Close() error { return nil }

// New 根据 URL 选择实现
func New(url, exchange string, log *zap.Logger) (Publisher, error) {
	if url == "" {
		return NopPublisher{Logger: log}, nil
	}
	return NewAMQPPublisher(url, exchange)
}
