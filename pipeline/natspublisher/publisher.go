// Package natspublisher delivers decoded positions to a NATS subject,
// one JSON message per position, off the decoder's goroutine.
package natspublisher

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/pipeline"
)

// Publisher batches positions onto an internal channel and ships them to
// NATS from a single background goroutine, so a slow or disconnected broker
// never stalls a protocol decoder.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger

	queue chan *model.Position
	done  chan struct{}
}

var _ pipeline.Publisher = (*Publisher)(nil)

// Connect dials natsURL and returns a Publisher that writes to subject.
// queueDepth bounds how many positions may be buffered before Publish
// starts dropping newly published positions rather than blocking the caller.
func Connect(natsURL, subject string, queueDepth int, logger *zap.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
		queue:   make(chan *model.Position, queueDepth),
		done:    make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Publish enqueues positions for delivery, dropping the position and
// logging at warn level if the internal queue is full.
func (p *Publisher) Publish(positions []*model.Position) {
	for _, pos := range positions {
		select {
		case p.queue <- pos:
		default:
			p.logger.Warn("publish queue full, dropping position",
				zap.Int64("deviceId", pos.DeviceID))
		}
	}
}

func (p *Publisher) run() {
	for {
		select {
		case pos := <-p.queue:
			p.publishOne(pos)
		case <-p.done:
			return
		}
	}
}

func (p *Publisher) publishOne(pos *model.Position) {
	body, err := json.Marshal(pos)
	if err != nil {
		p.logger.Error("marshal position failed", zap.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, body); err != nil {
		p.logger.Error("nats publish failed", zap.Error(err))
	}
}

// Stop flushes and closes the underlying NATS connection.
func (p *Publisher) Stop() {
	close(p.done)
	p.conn.Flush()
	p.conn.Close()
}
