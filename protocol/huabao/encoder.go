package huabao

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
)

// Encoder translates abstract commands into Huabao wire bytes. alternative
// selects MSG_OIL_CONTROL-based engine control over MSG_TERMINAL_CONTROL,
// matching the device's protocol.<name>.alternative configuration.
type Encoder struct {
	delimiter   byte
	alternative bool
}

func NewEncoder(alternative bool) *Encoder {
	delim := byte(delimStandard)
	if alternative {
		delim = delimAlternative
	}
	return &Encoder{delimiter: delim, alternative: alternative}
}

var _ protocol.ProtocolEncoder = (*Encoder)(nil)

func (e *Encoder) Encode(uniqueID, deviceModel string, cmd *model.Command) ([]byte, error) {
	id, err := encodeID(uniqueID)
	if err != nil {
		return nil, err
	}

	switch cmd.Type {
	case model.CommandRebootDevice:
		return e.parameterSetting(id, 0x23, []byte{0x03}), nil

	case model.CommandPositionPeriodic:
		freq := cmd.Uint(model.AttrFrequency)
		return e.parameterSetting(id, 0x06, uint32Bytes(freq)), nil

	case model.CommandAlarmArm, model.CommandAlarmDisarm:
		user := cmd.String(model.AttrUser)
		flag := byte(0x00)
		if cmd.Type == model.CommandAlarmArm {
			flag = 0x01
		}
		value := append([]byte{flag}, []byte(user)...)
		return e.parameterSetting(id, 0x24, value), nil

	case model.CommandEngineStop, model.CommandEngineResume:
		return e.engineControl(id, deviceModel, cmd.Type == model.CommandEngineStop)

	case model.CommandCustom:
		return e.custom(id, deviceModel, cmd)

	default:
		return nil, protocol.ErrCommandUnsupported
	}
}

func (e *Encoder) parameterSetting(id []byte, paramID byte, value []byte) []byte {
	body := make([]byte, 0, 1+1+1+len(value))
	body = append(body, 0x01, paramID, byte(len(value)))
	body = append(body, value...)
	return formatMessage(e.delimiter, MsgParameterSetting, id, false, body)
}

func (e *Encoder) engineControl(id []byte, deviceModel string, stop bool) ([]byte, error) {
	if e.alternative {
		flag := byte(0x00)
		if stop {
			flag = 0x01
		}
		body := append([]byte{flag}, writeDate(time.Now())...)
		return formatMessage(e.delimiter, MsgOilControl, id, false, body), nil
	}

	if deviceModel == ModelVL300 {
		if stop {
			return formatMessage(e.delimiter, MsgTerminalControl, id, false, []byte("#0;1")), nil
		}
		return formatMessage(e.delimiter, MsgTerminalControl, id, false, []byte("#0;0")), nil
	}

	code := byte(0xF0)
	if !stop {
		code = 0xF1
	}
	return formatMessage(e.delimiter, MsgTerminalControl, id, false, []byte{code}), nil
}

func (e *Encoder) custom(id []byte, deviceModel string, cmd *model.Command) ([]byte, error) {
	data := cmd.String(model.AttrData)
	switch deviceModel {
	case ModelAL300, ModelGL100, ModelVL300:
		body := make([]byte, 0, 2+len(data))
		body = append(body, 0xF0, 0x30)
		body = append(body, []byte(data)...)
		return formatMessage(e.delimiter, MsgConfigurationParameters, id, false, body), nil
	case ModelBSJ:
		return formatMessage(e.delimiter, MsgSendTextMessage, id, false, gbkEncode(data)), nil
	default:
		raw, err := hex.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("custom command data must be hex: %w", err)
		}
		return formatMessage(e.delimiter, MsgTransparent, id, false, raw), nil
	}
}

func uint32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// gbkEncode transliterates ASCII text into a GBK-compatible byte sequence.
// Devices in the BSJ family only render text commands sent as GBK; a full
// transcoder is out of scope, so non-ASCII runes are dropped rather than
// mojibake'd.
func gbkEncode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 128 {
			out = append(out, byte(r))
		}
	}
	return out
}
