package mq

import (
	"encoding/json"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/streadway/amqp"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/game-service/pkg/config"
)

// Producer publishes room results to a durable queue. amqp channels are not
// safe for concurrent publishing, hence the mutex.
type Producer struct {
	conn    *amqp.Connection
	mu      deadlock.Mutex
	channel *amqp.Channel
	queue   string
}

func NewProducer(cfg config.MQConfig) (*Producer, error) {
	conn, err := amqp.Dial(cfg.Url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// 声明队列
	_, err = ch.QueueDeclare(
		cfg.QueueName,
		true, false, false, false, nil,
	)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Producer{conn: conn, channel: ch, queue: cfg.QueueName}, nil
}

func (p *Producer) PublishRoomResult(result pb.RoomResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Publish(
		"",
		p.queue,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *Producer) Close() error {
	p.channel.Close()
	return p.conn.Close()
}
