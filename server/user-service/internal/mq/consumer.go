package mq

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/model"
	"github.com/alainledesmablanco-dev/interestelar2/server/user-service/pkg/config"
)

// HistoryWriter stores the rows derived from one room result.
type HistoryWriter interface {
	AddHistory(rows []model.MatchHistory) error
}

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	store   HistoryWriter
	log     *logrus.Entry
}

func NewConsumer(cfg config.MQConfig, store HistoryWriter, log *logrus.Entry) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.Url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	_, err = ch.QueueDeclare(
		cfg.QueueName,
		true, false, false, false, nil,
	)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, channel: ch, queue: cfg.QueueName, store: store, log: log}, nil
}

// Run consumes room results until ctx is done or the broker closes the
// delivery channel.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false, // auto-ack
		false, false, false, nil,
	)
	if err != nil {
		return err
	}

	c.log.Infof("MQ Consumer started, waiting for messages on queue: %s", c.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			c.handle(msg)
		}
	}
}

func (c *Consumer) handle(msg amqp.Delivery) {
	var result pb.RoomResult
	if err := json.Unmarshal(msg.Body, &result); err != nil {
		c.log.WithError(err).Warn("Failed to unmarshal message")
		msg.Nack(false, false)
		return
	}

	if err := c.store.AddHistory(HistoryRows(result)); err != nil {
		c.log.WithError(err).WithField("match", result.MatchID).Error("Failed to save room result")
		msg.Nack(false, true) // requeue
		return
	}

	msg.Ack(false)
	c.log.WithFields(logrus.Fields{"match": result.MatchID, "room": result.RoomID, "players": len(result.Players)}).Info("room result saved")
}

// HistoryRows expands a room result into one history row per player. Rows
// are keyed on the match id; results without one fall back to the room code.
func HistoryRows(result pb.RoomResult) []model.MatchHistory {
	matchID := result.MatchID
	if matchID == "" {
		matchID = result.RoomID
	}
	rows := make([]model.MatchHistory, 0, len(result.Players))
	for _, p := range result.Players {
		rows = append(rows, model.MatchHistory{
			PlayerID:  p.PlayerID,
			MatchID:   matchID,
			RoomCode:  result.RoomID,
			Name:      p.Name,
			Reason:    result.Reason,
			Ticks:     result.Ticks,
			HitsDealt: p.HitsDealt,
			HitsTaken: p.HitsTaken,
			Respawns:  p.Respawns,
			StartedAt: result.StartedAt,
			EndedAt:   result.EndedAt,
		})
	}
	return rows
}

func (c *Consumer) Close() error {
	c.channel.Close()
	return c.conn.Close()
}
