// Package protocol defines the capability interfaces every device wire
// protocol implements: a frame decoder/encoder pair for the transport-level
// framing, and a protocol decoder/encoder pair for the message semantics.
package protocol

import (
	"context"
	"errors"

	"github.com/packetify/telematics-gateway/model"
)

// Sentinel decode errors. Frame- and protocol-level callers switch on these
// with errors.Is rather than inspecting message text.
var (
	ErrNeedMoreData     = errors.New("need more data")
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrBadChecksum      = errors.New("bad checksum")
	ErrUnknownMessage   = errors.New("unknown message type")
	ErrUnknownDevice    = errors.New("unknown device")
	ErrOutOfRange       = errors.New("coordinate out of range")
	ErrCommandUnsupported = errors.New("command unsupported")
)

// Frame is a transient, decoded-but-uninterpreted byte buffer handed from
// the frame decoder to the protocol decoder.
type Frame struct {
	Payload []byte
}

// ConnWriter is the minimal write surface of a live device connection. A
// ProtocolDecoder that resolves a session stashes it as a session attribute
// under AttrWriterKey so a later outbound command can reach the same
// socket without the transport layer exposing net.Conn to the core.
type ConnWriter interface {
	Write(p []byte) (int, error)
}

// AttrWriterKey is the session attribute key protocol decoders use to
// record the live ConnWriter for their resolved session.
const AttrWriterKey = "conn.writer"

// ConnMeta identifies the connection a frame arrived on, for session
// resolution. Alternative carries the per-connection framing mode latched
// by a binary protocol's FrameDecoder; text/JSON protocols ignore it.
// Writer is the socket the decoder should bind to its resolved session for
// later command delivery; it is nil for protocols that never receive
// commands (e.g. HTTP-delivered OwnTracks reports).
type ConnMeta struct {
	Channel       string
	RemoteAddress string
	Alternative   bool
	Writer        ConnWriter
}

// FrameDecoder carves a continuous byte stream into complete, unescaped
// messages. Decode consumes a prefix of buf and returns the number of bytes
// consumed along with the reassembled frame; callers retain buf[consumed:]
// for the next call. ErrNeedMoreData means no bytes were consumed yet.
type FrameDecoder interface {
	Decode(buf []byte) (consumed int, frame *Frame, err error)
}

// FrameEncoder is the inverse of FrameDecoder: it escapes an outbound
// message body into wire bytes, including delimiters.
type FrameEncoder interface {
	Encode(body []byte) ([]byte, error)
}

// DecodeResult is what a protocol decoder produces for one frame: zero or
// more normalized positions, plus any bytes that must be written back to the
// device before the caller does anything else with the position.
type DecodeResult struct {
	Positions []*model.Position
	Response  []byte
}

// ProtocolDecoder interprets one framed message arriving on the connection
// described by meta, resolving its own device session from an injected
// registry. ctx carries read/write timeouts the transport layer imposes;
// decoders themselves never block.
type ProtocolDecoder interface {
	Decode(ctx context.Context, meta ConnMeta, frame *Frame) (*DecodeResult, error)
}

// ProtocolEncoder serializes an abstract command into wire bytes ready for
// the frame encoder. uniqueID and deviceModel identify the target device so
// the encoder can pick protocol/model-specific wire variants.
type ProtocolEncoder interface {
	Encode(uniqueID, deviceModel string, cmd *model.Command) ([]byte, error)
}
