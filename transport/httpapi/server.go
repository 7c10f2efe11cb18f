// Package httpapi serves the OwnTracks HTTP endpoint: one POST per
// location report, replying with an empty 200 on success and 400 on a
// malformed or rejected body.
package httpapi

import (
	"errors"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/packetify/telematics-gateway/pipeline"
	"github.com/packetify/telematics-gateway/protocol"
)

// Server wraps a net/http.Server configured with a single handler that
// feeds request bodies to decoder.
type Server struct {
	name      string
	decoder   protocol.ProtocolDecoder
	publisher pipeline.Publisher
	logger    *zap.Logger
	http      *http.Server
	listener  net.Listener
}

// Addr returns the address the server is actually listening on, useful
// when Start was called with a port of 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func NewServer(name string, decoder protocol.ProtocolDecoder, publisher pipeline.Publisher, logger *zap.Logger) *Server {
	s := &Server{
		name:      name,
		decoder:   decoder,
		publisher: publisher,
		logger:    logger.With(zap.String("protocol", name)),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleReport)
	s.http = &http.Server{Handler: mux}
	return s
}

func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("listening", zap.String("addr", addr))
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Stop() {
	s.http.Close()
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	meta := protocol.ConnMeta{Channel: s.name, RemoteAddress: r.RemoteAddr}
	result, err := s.decoder.Decode(r.Context(), meta, &protocol.Frame{Payload: body})
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrUnknownDevice):
			s.logger.Debug("unknown device, rejecting report")
		default:
			s.logger.Warn("decode failed", zap.Error(err))
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if len(result.Positions) > 0 {
		s.publisher.Publish(result.Positions)
	}
	w.WriteHeader(http.StatusOK)
}
