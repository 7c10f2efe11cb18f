package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/protocol/huabao"
	"github.com/packetify/telematics-gateway/session"
	"gotest.tools/v3/assert"
)

type staticDirectory struct{}

func (staticDirectory) Lookup(uniqueID string) (session.DeviceRecord, bool) {
	return session.DeviceRecord{DeviceID: 7}, true
}

type bufferWriter struct {
	bytes.Buffer
}

func (w *bufferWriter) Write(b []byte) (int, error) {
	return w.Buffer.Write(b)
}

func TestSendCommandWritesEncodedFrame(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	sess, ok := reg.Get("tcp", "a", "012345678901")
	assert.Assert(t, ok)

	writer := &bufferWriter{}
	sess.SetAttribute(protocol.AttrWriterKey, writer)

	d := NewDispatcher(reg)
	d.Register("huabao", Codec{
		Protocol: huabao.NewEncoder(false),
		Frame:    huabao.NewFrameEncoder(false),
	})

	cmd := model.NewCommand(sess.DeviceID, model.CommandEngineStop)
	err := d.SendCommand(context.Background(), "huabao", cmd)
	assert.NilError(t, err)
	assert.Assert(t, writer.Len() > 0)
	assert.Equal(t, writer.Bytes()[0], byte(0x7E))
}

func TestSendCommandUnknownDevice(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	d := NewDispatcher(reg)
	d.Register("huabao", Codec{Protocol: huabao.NewEncoder(false), Frame: huabao.NewFrameEncoder(false)})

	err := d.SendCommand(context.Background(), "huabao", model.NewCommand(999, model.CommandEngineStop))
	assert.ErrorContains(t, err, "no active session")
}

func TestSendCommandNoWriter(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	sess, ok := reg.Get("tcp", "a", "012345678901")
	assert.Assert(t, ok)

	d := NewDispatcher(reg)
	d.Register("huabao", Codec{Protocol: huabao.NewEncoder(false), Frame: huabao.NewFrameEncoder(false)})

	err := d.SendCommand(context.Background(), "huabao", model.NewCommand(sess.DeviceID, model.CommandEngineStop))
	assert.ErrorContains(t, err, "no live connection")
}

var _ protocol.ProtocolEncoder = huabao.NewEncoder(false)
