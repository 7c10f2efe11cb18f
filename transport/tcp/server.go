// Package tcp runs the per-protocol TCP accept loop shared by every binary
// and line-oriented device protocol: one goroutine per connection, reading
// through a FrameDecoder and dispatching complete frames to a
// ProtocolDecoder.
package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/packetify/telematics-gateway/pipeline"
	"github.com/packetify/telematics-gateway/protocol"
)

// FrameDecoderFactory builds a fresh FrameDecoder per connection, since
// binary protocols like Huabao latch per-connection framing state that must
// never be shared across devices.
type FrameDecoderFactory func() protocol.FrameDecoder

// Server listens on one address for one protocol's connections.
type Server struct {
	name        string
	listener    net.Listener
	newFrame    FrameDecoderFactory
	decoder     protocol.ProtocolDecoder
	publisher   pipeline.Publisher
	logger      *zap.Logger
	idleTimeout time.Duration

	readBufferSize int

	frameRate  rate.Limit
	frameBurst int
}

// SetFrameRateLimit caps how many frames per second a single connection may
// push through the decoder; frames arriving over the limit are dropped with
// a warning instead of being decoded. Zero (the default) disables the cap.
func (s *Server) SetFrameRateLimit(framesPerSecond float64, burst int) {
	s.frameRate = rate.Limit(framesPerSecond)
	s.frameBurst = burst
}

func NewServer(name string, newFrame FrameDecoderFactory, decoder protocol.ProtocolDecoder, publisher pipeline.Publisher, logger *zap.Logger, idleTimeout time.Duration) *Server {
	return &Server{
		name:           name,
		newFrame:       newFrame,
		decoder:        decoder,
		publisher:      publisher,
		logger:         logger.With(zap.String("protocol", name)),
		idleTimeout:    idleTimeout,
		readBufferSize: 4096,
	}
}

// Start binds addr and begins accepting connections in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("listening", zap.String("addr", addr))
	go s.acceptLoop()
	return nil
}

// Addr returns the listener's bound address, useful when Start was given
// a ":0" port.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Stop closes the listener; in-flight connection goroutines exit on their
// next read error.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return
			}
			s.logger.Error("accept failed", zap.Error(err))
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	logger := s.logger.With(zap.String("remote", remote))
	logger.Debug("connection opened")

	frameDecoder := s.newFrame()
	buf := make([]byte, 0, s.readBufferSize)
	read := make([]byte, s.readBufferSize)
	loggedBadChecksum := false

	var limiter *rate.Limiter
	if s.frameRate > 0 {
		limiter = rate.NewLimiter(s.frameRate, s.frameBurst)
	}

	for {
		if s.idleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		n, err := conn.Read(read)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("connection closed", zap.Error(err))
			}
			return
		}
		buf = append(buf, read[:n]...)

		for {
			consumed, frame, err := frameDecoder.Decode(buf)
			if err != nil {
				if errors.Is(err, protocol.ErrNeedMoreData) {
					break
				}
				logger.Warn("malformed frame, dropping connection", zap.Error(err))
				return
			}
			buf = buf[consumed:]

			if limiter != nil && !limiter.Allow() {
				logger.Warn("frame rate limit exceeded, dropping frame")
				continue
			}

			meta := protocol.ConnMeta{Channel: s.name, RemoteAddress: remote, Writer: conn}
			if latching, ok := frameDecoder.(interface{ Alternative() bool }); ok {
				meta.Alternative = latching.Alternative()
			}

			result, err := s.decoder.Decode(context.Background(), meta, frame)
			if err != nil {
				switch {
				case errors.Is(err, protocol.ErrBadChecksum):
					if !loggedBadChecksum {
						logger.Warn("bad checksum, dropping message", zap.Error(err))
						loggedBadChecksum = true
					}
				case errors.Is(err, protocol.ErrUnknownMessage):
					logger.Debug("unknown message type", zap.Error(err))
				case errors.Is(err, protocol.ErrUnknownDevice):
					logger.Debug("unknown device, dropping message")
				default:
					logger.Warn("decode failed", zap.Error(err))
				}
				continue
			}

			if result.Response != nil {
				if _, err := conn.Write(result.Response); err != nil {
					logger.Warn("write ack failed", zap.Error(err))
					return
				}
			}
			if len(result.Positions) > 0 {
				s.publisher.Publish(result.Positions)
			}
		}
	}
}
