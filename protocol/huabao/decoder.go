package huabao

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
)

// attrRawID is the hex-encoded envelope id byte field, kept separately from
// the session's decimal display uniqueID so the command encoder can
// reconstruct the exact wire bytes the device registered with.
const attrRawID = "huabao.rawId"

// Decoder dispatches a framed Huabao message to the right body parser and
// produces the Position(s) and ack bytes the transport must write back.
// The delimiter/alternative-framing choice is carried by the FrameDecoder
// that produced the frame; Decoder itself holds no per-connection state, so
// one Decoder instance can safely serve every connection.
type Decoder struct {
	name            string
	registry        *session.Registry
	ignoreFixTime   bool
	defaultTimezone *time.Location
}

func NewDecoder(name string, registry *session.Registry, ignoreFixTime bool, defaultTimezone *time.Location) *Decoder {
	return &Decoder{name: name, registry: registry, ignoreFixTime: ignoreFixTime, defaultTimezone: defaultTimezone}
}

var _ protocol.ProtocolDecoder = (*Decoder)(nil)

func (d *Decoder) Decode(ctx context.Context, meta protocol.ConnMeta, frame *protocol.Frame) (*protocol.DecodeResult, error) {
	env, err := parseEnvelope(frame.Payload, meta.Alternative)
	if err != nil {
		return nil, err
	}

	uniqueID := decodeID(env.id)
	sess, ok := d.registry.Get(meta.Channel, meta.RemoteAddress, uniqueID)
	if !ok {
		return nil, protocol.ErrUnknownDevice
	}
	if _, has := sess.Attribute(model.KeyTimezone); !has && d.defaultTimezone != nil {
		sess.SetAttribute(model.KeyTimezone, d.defaultTimezone)
	}
	if _, has := sess.Attribute(attrRawID); !has {
		sess.SetAttribute(attrRawID, hex.EncodeToString(env.id))
	}
	if meta.Writer != nil {
		sess.SetAttribute(protocol.AttrWriterKey, meta.Writer)
	}

	result := &protocol.DecodeResult{}

	switch env.msgType {
	case MsgTerminalRegister:
		result.Response = formatMessage(env.delimiter, MsgTerminalRegisterResponse, env.id, false,
			registerResponseBody(env.index, []byte(uniqueID)))

	case MsgTimeSyncRequest:
		// Preserves an observed quirk: devices expect the time-sync reply
		// on the register-response type code, not MsgTimeSyncResponse.
		result.Response = formatMessage(env.delimiter, MsgTerminalRegisterResponse, env.id, false,
			currentUTCBody())

	case MsgTerminalAuth, MsgHeartbeat, MsgHeartbeat2, MsgPhoto, MsgReportTextMessage:
		result.Response = formatMessage(env.delimiter, MsgGeneralResponse, env.id, false,
			generalResponseBody(env.index, env.msgType))

	case MsgLocationReport:
		pos := model.NewPosition(d.name)
		pos.DeviceID = sess.DeviceID
		if err := decodeLocation(pos, env.body, sess.Timezone(), sess.Model); err != nil {
			return nil, err
		}
		sess.UpdateLastKnown(pos)
		result.Positions = []*model.Position{pos}
		result.Response = formatMessage(env.delimiter, MsgGeneralResponse, env.id, false,
			generalResponseBody(env.index, env.msgType))

	case MsgLocationBatch, MsgLocationBatch2:
		positions, err := decodeLocationBatch(d.name, env.msgType, env.body, sess.Timezone(), sess.Model)
		if err != nil {
			return nil, err
		}
		for _, pos := range positions {
			pos.DeviceID = sess.DeviceID
		}
		if len(positions) > 0 {
			sess.UpdateLastKnown(positions[len(positions)-1])
		}
		result.Positions = positions
		result.Response = formatMessage(env.delimiter, MsgGeneralResponse, env.id, false,
			generalResponseBody(env.index, env.msgType))

	case MsgLocationReport2, MsgLocationReportBlind:
		pos := model.NewPosition(d.name)
		pos.DeviceID = sess.DeviceID
		if err := decodeLocation2(pos, env.body, sess.Timezone()); err != nil {
			return nil, err
		}
		sess.UpdateLastKnown(pos)
		result.Positions = []*model.Position{pos}
		if env.attribute&(1<<15) != 0 {
			result.Response = formatMessage(env.delimiter, MsgGeneralResponse2, env.id, true,
				generalResponse2Body(env.msgType))
		}

	case MsgTransparent:
		pos := model.NewPosition(d.name)
		pos.DeviceID = sess.DeviceID
		if err := decodeTransparent(pos, env.body, sess.Timezone()); err != nil {
			return nil, err
		}
		sess.UpdateLastKnown(pos)
		result.Positions = []*model.Position{pos}

	case MsgCommandResponse, MsgAcceleration, MsgTerminalGeneralResponse:
		// Acknowledged implicitly by the device; nothing to decode into a
		// Position and nothing to send back.

	default:
		return nil, protocol.ErrUnknownMessage
	}

	if d.ignoreFixTime {
		for _, pos := range result.Positions {
			pos.FixTime = pos.ServerTime
		}
	}

	return result, nil
}

func registerResponseBody(index uint16, id []byte) []byte {
	body := make([]byte, 0, 2+1+len(id))
	body = append(body, byte(index>>8), byte(index))
	body = append(body, 0x00)
	body = append(body, id...)
	return body
}

func generalResponseBody(index uint16, msgType uint16) []byte {
	body := make([]byte, 0, 5)
	body = append(body, byte(index>>8), byte(index))
	body = append(body, byte(msgType>>8), byte(msgType))
	body = append(body, 0x00)
	return body
}

func generalResponse2Body(msgType uint16) []byte {
	return []byte{byte(msgType >> 8), byte(msgType), 0x00}
}

func currentUTCBody() []byte {
	now := time.Now().UTC()
	return writeDate(now)
}
