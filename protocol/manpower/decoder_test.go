package manpower

import (
	"context"
	"testing"

	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
	"gotest.tools/v3/assert"
)

type fakeDirectory struct{}

func (fakeDirectory) Lookup(uniqueID string) (session.DeviceRecord, bool) {
	return session.DeviceRecord{DeviceID: 9}, true
}

func TestDecodeReportLine(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)

	line := "simei:123456789012345,1,240115,120000,A,2200.000,N,11400.000,E,5.0"
	result, err := d.Decode(context.Background(), protocol.ConnMeta{Channel: "tcp", RemoteAddress: "a"}, &protocol.Frame{Payload: []byte(line)})
	assert.NilError(t, err)
	assert.Equal(t, len(result.Positions), 1)

	pos := result.Positions[0]
	assert.Equal(t, pos.Valid, true)
	assert.Equal(t, pos.LatitudeWgs84(), 22.0)
	assert.Equal(t, pos.LongitudeWgs84(), 114.0)
	assert.Equal(t, pos.Speed, 5.0)
}

func TestDecodeReportLineMalformed(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	d := NewDecoder(reg)
	_, err := d.Decode(context.Background(), protocol.ConnMeta{}, &protocol.Frame{Payload: []byte("garbage")})
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}
