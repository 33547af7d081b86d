package core

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

// Conn is a room member as seen by the simulation: something frames can be
// published to. Send must not block.
type Conn interface {
	ID() string
	Send(t string, payload any) error
}

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

const (
	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
	wsPingPeriod    = 30 * time.Second
	wsSendBuffer    = 64
)

// WebSocketConn owns the write side of one socket. All writes go through a
// single pump goroutine (gorilla connections allow one concurrent writer);
// Send only enqueues and drops the frame when the queue is full, which is
// safe because snapshots supersede each other.
type WebSocketConn struct {
	id    string
	Conn  *websocket.Conn
	codec pb.Codec
	log   *logrus.Entry

	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func NewWebSocketConn(id string, ws *websocket.Conn, codec pb.Codec, log *logrus.Entry) *WebSocketConn {
	return &WebSocketConn{
		id:     id,
		Conn:   ws,
		codec:  codec,
		log:    log,
		out:    make(chan []byte, wsSendBuffer),
		closed: make(chan struct{}),
	}
}

func (c *WebSocketConn) ID() string { return c.id }

func (c *WebSocketConn) Send(t string, payload any) error {
	return c.enqueue(t, 0, payload)
}

// Reply answers a client request carrying id.
func (c *WebSocketConn) Reply(id uint64, ack pb.Ack) error {
	return c.enqueue(pb.MsgAck, id, ack)
}

func (c *WebSocketConn) enqueue(t string, id uint64, payload any) error {
	data, err := c.codec.Encode(t, id, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	default:
		c.log.WithField("type", t).Debug("send buffer full, frame dropped")
		return ErrSendBufferFull
	}
}

// WritePump drains the send queue and keeps the socket alive with pings
// until Close is called or a write fails.
func (c *WebSocketConn) WritePump() {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()
	defer c.Conn.Close()

	msgType := websocket.TextMessage
	if c.codec.Binary() {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case data := <-c.out:
			c.Conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.Conn.WriteMessage(msgType, data); err != nil {
				c.log.WithError(err).Debug("write failed")
				c.Close()
				return
			}
		case <-pingTicker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				c.Close()
				return
			}
		case <-c.closed:
			c.Conn.SetWriteDeadline(time.Now().Add(time.Second))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *WebSocketConn) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *WebSocketConn) Done() <-chan struct{} {
	return c.closed
}
