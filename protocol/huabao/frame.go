package huabao

import (
	"bytes"

	"github.com/packetify/telematics-gateway/protocol"
)

// delimiter modes. The byte-stuffing tables mirror the wire protocol: the
// standard mode uses 0x7E/0x7D, the alternative mode used by some OEM
// firmwares uses 0xE7/0xE6/0x3E instead.
const (
	delimStandard    byte = 0x7E
	escapeStandard   byte = 0x7D
	delimAlternative byte = 0xE7
	escape1Alt       byte = 0xE6
	escape2Alt       byte = 0x3E
	escaped2Alt      byte = 0x3D
)

// FrameDecoder extracts one complete message per Decode call from a
// connection's byte stream, unescaping its payload. The delimiter choice
// (standard 0x7E vs alternative 0xE7) is latched from the first byte of the
// first message this decoder instance ever sees, matching the wire
// behavior of the devices it talks to; a new FrameDecoder is created per
// connection so the latch never leaks across devices.
type FrameDecoder struct {
	alternative  bool
	modeLatched  bool
}

func NewFrameDecoder() *FrameDecoder { return &FrameDecoder{} }

// Alternative reports whether this connection latched the 0xE7 framing.
func (d *FrameDecoder) Alternative() bool { return d.alternative }

func (d *FrameDecoder) delimiter() byte {
	if d.alternative {
		return delimAlternative
	}
	return delimStandard
}

func (d *FrameDecoder) Decode(buf []byte) (int, *protocol.Frame, error) {
	if len(buf) < 2 {
		return 0, nil, protocol.ErrNeedMoreData
	}

	if buf[0] == '(' {
		end := bytes.IndexByte(buf, ')')
		if end < 0 {
			return 0, nil, protocol.ErrNeedMoreData
		}
		return end + 1, &protocol.Frame{Payload: buf[:end+1]}, nil
	}

	if !d.modeLatched {
		d.alternative = buf[0] == delimAlternative
		d.modeLatched = true
	}

	delim := d.delimiter()
	end := bytes.IndexByte(buf[1:], delim)
	if end < 0 {
		return 0, nil, protocol.ErrNeedMoreData
	}
	end++ // index relative to buf

	raw := buf[:end+1]
	unescaped := d.unescape(raw)
	return end + 1, &protocol.Frame{Payload: unescaped}, nil
}

// unescape returns a new slice with raw's interior escape sequences
// resolved, keeping the leading and trailing delimiter bytes as they are. A malformed escape pair
// (escape byte not followed by a recognized second byte) is passed through
// unchanged rather than treated as an error.
func (d *FrameDecoder) unescape(raw []byte) []byte {
	if len(raw) < 2 {
		return raw
	}
	out := make([]byte, 0, len(raw))
	out = append(out, raw[0])
	body := raw[1 : len(raw)-1]
	for i := 0; i < len(body); i++ {
		b := body[i]
		if !d.alternative {
			if b == escapeStandard && i+1 < len(body) {
				switch body[i+1] {
				case 0x02:
					out = append(out, delimStandard)
					i++
					continue
				case 0x01:
					out = append(out, escapeStandard)
					i++
					continue
				}
			}
			out = append(out, b)
			continue
		}
		switch b {
		case escape1Alt:
			if i+1 < len(body) {
				switch body[i+1] {
				case 0x02:
					out = append(out, delimAlternative)
					i++
					continue
				case 0x01:
					out = append(out, escape1Alt)
					i++
					continue
				}
			}
		case escape2Alt:
			if i+1 < len(body) {
				switch body[i+1] {
				case 0x02:
					out = append(out, escaped2Alt)
					i++
					continue
				case 0x01:
					out = append(out, escape2Alt)
					i++
					continue
				}
			}
		}
		out = append(out, b)
	}
	out = append(out, raw[len(raw)-1])
	return out
}

// FrameEncoder escapes an outbound message body into wire bytes. body must
// already include the leading and trailing delimiter bytes; they are
// exempted from escaping because they mark frame boundaries, not data.
type FrameEncoder struct {
	alternative bool
}

func NewFrameEncoder(alternative bool) *FrameEncoder {
	return &FrameEncoder{alternative: alternative}
}

func (e *FrameEncoder) Encode(body []byte) ([]byte, error) {
	if len(body) < 2 {
		return body, nil
	}
	out := make([]byte, 0, len(body)+4)
	out = append(out, body[0])
	for i := 1; i < len(body)-1; i++ {
		b := body[i]
		if !e.alternative {
			switch b {
			case delimStandard:
				out = append(out, escapeStandard, 0x02)
				continue
			case escapeStandard:
				out = append(out, escapeStandard, 0x01)
				continue
			}
			out = append(out, b)
			continue
		}
		switch b {
		case delimAlternative:
			out = append(out, escape1Alt, 0x02)
		case escape1Alt:
			out = append(out, escape1Alt, 0x01)
		case escaped2Alt:
			out = append(out, escape2Alt, 0x02)
		case escape2Alt:
			out = append(out, escape2Alt, 0x01)
		default:
			out = append(out, b)
		}
	}
	out = append(out, body[len(body)-1])
	return out, nil
}
