package huabao

import (
	"encoding/binary"
	"fmt"

	"github.com/packetify/telematics-gateway/protocol"
)

// envelope is a parsed message header: delimiter(1) | type(2 BE) |
// attribute(2 BE) | id(6 or 7) | index(1 or 2) | body | checksum(1) |
// delimiter(1).
type envelope struct {
	delimiter byte
	msgType   uint16
	attribute uint16
	id        []byte
	index     uint16
	shortIndex bool
	body      []byte
}

func idLength(alternative bool) int {
	if alternative {
		return 7
	}
	return 6
}

func indexLength(msgType uint16) int {
	if msgType == MsgLocationReport2 || msgType == MsgLocationReportBlind {
		return 1
	}
	return 2
}

// parseEnvelope splits a frame (as produced by FrameDecoder, delimiters
// included) into its fields and verifies the XOR checksum.
func parseEnvelope(frame []byte, alternative bool) (*envelope, error) {
	const minLen = 1 + 2 + 2 + 1
	if len(frame) < minLen {
		return nil, protocol.ErrMalformedFrame
	}
	delim := frame[0]
	if frame[len(frame)-1] != delim {
		return nil, protocol.ErrMalformedFrame
	}
	interior := frame[1 : len(frame)-1]
	if len(interior) < 2 {
		return nil, protocol.ErrMalformedFrame
	}

	checksum := interior[len(interior)-1]
	payload := interior[:len(interior)-1]

	if xorBytes(payload) != checksum {
		return nil, protocol.ErrBadChecksum
	}

	if len(payload) < 4 {
		return nil, protocol.ErrMalformedFrame
	}
	msgType := binary.BigEndian.Uint16(payload[0:2])
	attribute := binary.BigEndian.Uint16(payload[2:4])

	idLen := idLength(alternative)
	idxLen := indexLength(msgType)
	head := 4 + idLen + idxLen
	if len(payload) < head {
		return nil, protocol.ErrMalformedFrame
	}
	id := payload[4 : 4+idLen]
	idxBytes := payload[4+idLen : head]

	var index uint16
	shortIndex := idxLen == 1
	if shortIndex {
		index = uint16(idxBytes[0])
	} else {
		index = binary.BigEndian.Uint16(idxBytes)
	}

	return &envelope{
		delimiter:  delim,
		msgType:    msgType,
		attribute:  attribute,
		id:         id,
		index:      index,
		shortIndex: shortIndex,
		body:       payload[head:],
	}, nil
}

func xorBytes(b []byte) byte {
	var x byte
	for _, c := range b {
		x ^= c
	}
	return x
}

// formatMessage builds a response/command envelope: delimiter, type(2),
// bodyLength(2), id, index (0x01 if shortIndex else 0x00 0x00), body, xor
// checksum over everything after the leading delimiter, delimiter.
func formatMessage(delimiter byte, msgType uint16, id []byte, shortIndex bool, body []byte) []byte {
	out := make([]byte, 0, 1+2+2+len(id)+2+len(body)+2)
	out = append(out, delimiter)
	out = binary.BigEndian.AppendUint16(out, msgType)
	out = binary.BigEndian.AppendUint16(out, uint16(len(body)))
	out = append(out, id...)
	if shortIndex {
		out = append(out, 0x01)
	} else {
		out = append(out, 0x00, 0x00)
	}
	out = append(out, body...)
	checksum := xorBytes(out[1:])
	out = append(out, checksum)
	out = append(out, delimiter)
	return out
}

// EncodeMessage builds a full wire envelope for msgType, byte-stuffed by the
// FrameEncoder that matches delimiter so it is ready to write to a socket.
// It is exported so a test device driver can construct outbound reports
// with the same envelope layout the decoder uses for its acks.
func EncodeMessage(delimiter byte, msgType uint16, id []byte, shortIndex bool, body []byte) []byte {
	msg := formatMessage(delimiter, msgType, id, shortIndex, body)
	escaped, _ := NewFrameEncoder(delimiter == delimAlternative).Encode(msg)
	return escaped
}

func (e *envelope) String() string {
	return fmt.Sprintf("type=0x%04X attribute=0x%04X index=%d bodyLen=%d", e.msgType, e.attribute, e.index, len(e.body))
}
