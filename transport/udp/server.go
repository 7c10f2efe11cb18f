// Package udp runs a UDP listener for protocols that report one complete
// logical message per datagram, with no byte-stream reassembly needed.
package udp

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/packetify/telematics-gateway/pipeline"
	"github.com/packetify/telematics-gateway/protocol"
)

// Server reads datagrams and hands each one straight to a ProtocolDecoder;
// there is no FrameDecoder stage because a datagram boundary already is the
// message boundary.
type Server struct {
	name      string
	conn      *net.UDPConn
	decoder   protocol.ProtocolDecoder
	publisher pipeline.Publisher
	logger    *zap.Logger

	readBufferSize int
	done           chan struct{}
}

func NewServer(name string, decoder protocol.ProtocolDecoder, publisher pipeline.Publisher, logger *zap.Logger) *Server {
	return &Server{
		name:           name,
		decoder:        decoder,
		publisher:      publisher,
		logger:         logger.With(zap.String("protocol", name)),
		readBufferSize: 4096,
		done:           make(chan struct{}),
	}
}

func (s *Server) Start(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn
	s.logger.Info("listening", zap.String("addr", addr))
	go s.readLoop()
	return nil
}

func (s *Server) Stop() {
	close(s.done)
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Server) readLoop() {
	buf := make([]byte, s.readBufferSize)
	for {
		n, remote, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.logger.Warn("read failed", zap.Error(err))
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		go s.handleDatagram(payload, remote)
	}
}

func (s *Server) handleDatagram(payload []byte, remote *net.UDPAddr) {
	meta := protocol.ConnMeta{Channel: s.name, RemoteAddress: remote.String()}
	result, err := s.decoder.Decode(context.Background(), meta, &protocol.Frame{Payload: payload})
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrUnknownDevice):
			s.logger.Debug("unknown device, dropping datagram")
		case errors.Is(err, protocol.ErrUnknownMessage):
			s.logger.Debug("unknown message type")
		default:
			s.logger.Warn("decode failed", zap.Error(err))
		}
		return
	}

	if result.Response != nil {
		if _, err := s.conn.WriteToUDP(result.Response, remote); err != nil {
			s.logger.Warn("write ack failed", zap.Error(err))
		}
	}
	if len(result.Positions) > 0 {
		s.publisher.Publish(result.Positions)
	}
}
