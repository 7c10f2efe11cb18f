package huabao

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
	"gotest.tools/v3/assert"
)

type staticDirectory struct{}

func (staticDirectory) Lookup(uniqueID string) (session.DeviceRecord, bool) {
	return session.DeviceRecord{DeviceID: 7}, true
}

func buildEnvelope(t *testing.T, msgType uint16, id []byte, index uint16, shortIndex bool, body []byte) []byte {
	t.Helper()
	out := []byte{delimStandard}
	out = binary.BigEndian.AppendUint16(out, msgType)
	out = binary.BigEndian.AppendUint16(out, uint16(len(body)))
	out = append(out, id...)
	if shortIndex {
		out = append(out, byte(index))
	} else {
		out = binary.BigEndian.AppendUint16(out, index)
	}
	out = append(out, body...)
	checksum := xorBytes(out[1:])
	out = append(out, checksum)
	out = append(out, delimStandard)
	return out
}

func TestDecoderRegisterResponse(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	d := NewDecoder("huabao", reg, false, time.UTC)

	id := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}
	frame := buildEnvelope(t, MsgTerminalRegister, id, 1, false, nil)

	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "tcp", RemoteAddress: "a"}, &protocol.Frame{Payload: frame})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 0)

	env, err := parseEnvelope(result.Response, false)
	assert.NilError(t, err)
	assert.Equal(t, env.msgType, MsgTerminalRegisterResponse)
	assert.DeepEqual(t, env.body, append([]byte{0x00, 0x01, 0x00}, []byte(decodeID(id))...))
}

func TestDecoderLocationReport(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	d := NewDecoder("huabao", reg, false, time.UTC)

	id := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}

	status := uint32(0)
	status |= 1 << 0 // ignition
	status |= 1 << 1 // valid
	status |= 1 << 2 // latitude negative

	alarm := uint32(1<<5 | 1<<7)

	body := make([]byte, 0, 28)
	body = binary.BigEndian.AppendUint32(body, alarm)
	body = binary.BigEndian.AppendUint32(body, status)
	body = binary.BigEndian.AppendUint32(body, 22000000)
	body = binary.BigEndian.AppendUint32(body, 114000000)
	body = binary.BigEndian.AppendUint16(body, uint16(int16(50)))
	body = binary.BigEndian.AppendUint16(body, 100)
	body = binary.BigEndian.AppendUint16(body, 90)
	body = append(body, encodeBCD(24), encodeBCD(1), encodeBCD(15), encodeBCD(12), encodeBCD(0), encodeBCD(0))

	frame := buildEnvelope(t, MsgLocationReport, id, 1, false, body)

	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "tcp", RemoteAddress: "a"}, &protocol.Frame{Payload: frame})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 1)

	pos := result.Positions[0]
	assert.Equal(t, pos.LatitudeWgs84(), -22.0)
	assert.Equal(t, pos.LongitudeWgs84(), 114.0)
	assert.Equal(t, pos.Latitude, -22.0)
	assert.Equal(t, pos.Longitude, 114.0)
	assert.Equal(t, pos.Altitude, 50.0)
	assert.Equal(t, pos.Speed, knotsFromKph(10.0))
	assert.Equal(t, pos.Course, 90.0)
	assert.Equal(t, pos.Valid, true)
	assert.Equal(t, pos.Attributes[model.KeyIgnition], true)
	assert.Equal(t, pos.Attributes[model.KeyAlarm], "gpsAntennaCut,lowBattery")

	env, err := parseEnvelope(result.Response, false)
	assert.NilError(t, err)
	assert.Equal(t, env.msgType, MsgGeneralResponse)
}

func TestDecoderTimeSyncReusesRegisterResponseType(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	d := NewDecoder("huabao", reg, false, time.UTC)
	id := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}
	frame := buildEnvelope(t, MsgTimeSyncRequest, id, 1, false, nil)

	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "tcp", RemoteAddress: "a"}, &protocol.Frame{Payload: frame})
	assert.NilError(t, err)

	env, err := parseEnvelope(result.Response, false)
	assert.NilError(t, err)
	assert.Equal(t, env.msgType, MsgTerminalRegisterResponse)
}

func TestDecoderIgnoreFixTimeUsesServerTime(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	d := NewDecoder("huabao", reg, true, time.UTC)

	id := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}
	body := make([]byte, 28)
	body[7] = 1 << 1 // valid
	copy(body[22:28], []byte{encodeBCD(24), encodeBCD(1), encodeBCD(15), encodeBCD(12), encodeBCD(0), encodeBCD(0)})

	frame := buildEnvelope(t, MsgLocationReport, id, 1, false, body)
	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "tcp", RemoteAddress: "a"}, &protocol.Frame{Payload: frame})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 1)

	pos := result.Positions[0]
	assert.Equal(t, pos.FixTime, pos.ServerTime)
}

func TestDecoderBadChecksumDropped(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	d := NewDecoder("huabao", reg, false, time.UTC)
	id := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0x01}
	frame := buildEnvelope(t, MsgHeartbeat, id, 1, false, nil)
	frame[len(frame)-2] ^= 0xFF // corrupt checksum

	_, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "tcp", RemoteAddress: "a"}, &protocol.Frame{Payload: frame})
	assert.ErrorIs(t, err, protocol.ErrBadChecksum)
}

func TestEncoderEngineStopDefaultModel(t *testing.T) {
	e := NewEncoder(false)
	cmd := model.NewCommand(7, model.CommandEngineStop)
	out, err := e.Encode("012345678901", "", cmd)
	assert.NilError(t, err)

	want := []byte{0x7E, 0x85, 0x00, 0x00, 0x01, 0x01, 0x23, 0x45, 0x67, 0x89, 0x01, 0x00, 0x00, 0xF0}
	assert.DeepEqual(t, out[:len(want)], want)
	assert.Equal(t, out[len(out)-1], byte(0x7E))
}

func TestEncoderUnsupportedCommand(t *testing.T) {
	e := NewEncoder(false)
	_, err := e.Encode("012345678901", "", model.NewCommand(1, model.CommandType(99)))
	assert.ErrorIs(t, err, protocol.ErrCommandUnsupported)
}

func TestDecodeLocationBatchCount(t *testing.T) {
	loc := time.UTC
	single := make([]byte, 28)
	binary.BigEndian.PutUint32(single[4:8], 1<<1)
	pos := model.NewPosition("huabao")
	assert.NilError(t, decodeLocation(pos, single, loc, ""))

	body := make([]byte, 0)
	body = binary.BigEndian.AppendUint16(body, 2)
	body = append(body, 0x00)
	for i := 0; i < 2; i++ {
		body = binary.BigEndian.AppendUint16(body, uint16(len(single)))
		body = append(body, single...)
	}

	positions, err := decodeLocationBatch("huabao", MsgLocationBatch, body, loc, "")
	assert.NilError(t, err)
	assert.Equal(t, len(positions), 2)
}
