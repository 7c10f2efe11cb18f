package huabao

import (
	"encoding/hex"
	"testing"

	"github.com/packetify/telematics-gateway/protocol"
	"gotest.tools/v3/assert"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	assert.NilError(t, err)
	return b
}

func TestFrameDecoderUnescapeStandard(t *testing.T) {
	raw := []byte{0x7E, 0x02, 0x00, 0x00, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05, 0x7D, 0x01, 0x06, 0x7D, 0x02, 0x07, 0x7E}
	d := NewFrameDecoder()
	consumed, frame, err := d.Decode(raw)
	assert.NilError(t, err)
	assert.Equal(t, consumed, len(raw))
	want := []byte{0x7E, 0x02, 0x00, 0x00, 0x05, 0x01, 0x02, 0x03, 0x04, 0x05, 0x7D, 0x06, 0x7E, 0x07, 0x7E}
	assert.DeepEqual(t, frame.Payload, want)
}

func TestFrameDecoderNeedMoreData(t *testing.T) {
	d := NewFrameDecoder()
	_, _, err := d.Decode([]byte{0x7E, 0x01, 0x02})
	assert.ErrorIs(t, err, protocol.ErrNeedMoreData)
}

func TestFrameDecoderTextMessage(t *testing.T) {
	d := NewFrameDecoder()
	raw := []byte("(hello)")
	consumed, frame, err := d.Decode(raw)
	assert.NilError(t, err)
	assert.Equal(t, consumed, len(raw))
	assert.DeepEqual(t, frame.Payload, raw)
}

func TestFrameDecoderLatchesAlternativeMode(t *testing.T) {
	d := NewFrameDecoder()
	raw := []byte{0xE7, 0x01, 0x02, 0xE7}
	_, _, err := d.Decode(raw)
	assert.NilError(t, err)
	assert.Assert(t, d.Alternative())
}

func TestFrameEncodeDecodeRoundTrip(t *testing.T) {
	body := []byte{0x7E, 0x01, 0x7E, 0x02, 0x7D, 0x03, 0x7E}
	e := NewFrameEncoder(false)
	encoded, err := e.Encode(body)
	assert.NilError(t, err)

	d := NewFrameDecoder()
	_, frame, err := d.Decode(encoded)
	assert.NilError(t, err)
	assert.DeepEqual(t, frame.Payload, body)
}
