package tr900

import (
	"context"
	"testing"

	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
	"gotest.tools/v3/assert"
)

type fakeDirectory struct{}

func (fakeDirectory) Lookup(uniqueID string) (session.DeviceRecord, bool) {
	return session.DeviceRecord{DeviceID: 5}, true
}

func TestDecodeLine(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)

	line := "TR900,123456,60,1,240115,120000,E,11400.000,N,2200.000,0,12.5,90,20,1,500-80,0,3,1"
	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "tcp", RemoteAddress: "a"}, &protocol.Frame{Payload: []byte(line)})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 1)

	pos := result.Positions[0]
	assert.Equal(t, pos.Valid, true)
	assert.Equal(t, pos.Speed, 12.5)
	assert.Equal(t, pos.Course, 90.0)
}

func TestDecodeLineMalformed(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)
	_, err := d.Decode(context.Background(), protocol.ConnMeta{}, &protocol.Frame{Payload: []byte("garbage")})
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}
