package owntracks

import (
	"context"
	"testing"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
	"gotest.tools/v3/assert"
)

type fakeDirectory struct{}

func (fakeDirectory) Lookup(uniqueID string) (session.DeviceRecord, bool) {
	return session.DeviceRecord{DeviceID: 11}, true
}

func TestDecodeLocationReport(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)

	payload := []byte(`{"_type":"location","tid":"abc123","lat":22.0,"lon":114.0,"tst":1700000000,"vel":36,"batt":80,"t":"9","adda-00":512,"temp_c-00":21.5}`)
	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "http", RemoteAddress: "a"}, &protocol.Frame{Payload: payload})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 1)

	pos := result.Positions[0]
	assert.Equal(t, pos.Valid, true)
	assert.Equal(t, pos.LatitudeWgs84(), 22.0)
	assert.Equal(t, pos.LongitudeWgs84(), 114.0)
	assert.Equal(t, pos.Attributes[model.KeyBatteryLevel], 80.0)
	assert.Equal(t, pos.Attributes[model.KeyAlarm], model.AlarmLowBattery)
	assert.Equal(t, pos.Attributes[model.KeyADCN(1)], 512.0)
	assert.Equal(t, pos.Attributes[model.KeyTempN(1)], 21.5)
}

func TestDecodeIgnitionEvent(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)

	payload := []byte(`{"_type":"location","tid":"abc123","lat":22.0,"lon":114.0,"tst":1700000000,"t":"i"}`)
	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "http", RemoteAddress: "a"}, &protocol.Frame{Payload: payload})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 1)

	pos := result.Positions[0]
	assert.Equal(t, pos.Attributes[model.KeyIgnition], true)
	_, hasAlarm := pos.Attributes[model.KeyAlarm]
	assert.Equal(t, hasAlarm, false)
}

func TestDecodeHardAccelerationEvent(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)

	payload := []byte(`{"_type":"location","tid":"abc123","lat":22.0,"lon":114.0,"tst":1700000000,"t":"h","rty":1}`)
	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "http", RemoteAddress: "a"}, &protocol.Frame{Payload: payload})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 1)
	assert.Equal(t, result.Positions[0].Attributes[model.KeyAlarm], model.AlarmHardAcceleration)
}

func TestDecodeNonLocationReportIgnored(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)

	payload := []byte(`{"_type":"lwt","tid":"abc123"}`)
	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "http", RemoteAddress: "a"}, &protocol.Frame{Payload: payload})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 0)
}

func TestDecodeLocationMissingCoordinates(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)

	payload := []byte(`{"_type":"location","tid":"abc123","tst":1700000000}`)
	_, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "http", RemoteAddress: "a"}, &protocol.Frame{Payload: payload})
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}
