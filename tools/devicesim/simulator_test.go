package devicesim

import (
	"log"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"gotest.tools/v3/assert"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/protocol/huabao"
	"github.com/packetify/telematics-gateway/session"
	"github.com/packetify/telematics-gateway/transport/tcp"
)

type staticDirectory struct{}

func (staticDirectory) Lookup(uniqueID string) (session.DeviceRecord, bool) {
	return session.DeviceRecord{DeviceID: 9}, true
}

type capturingPublisher struct {
	positions chan *model.Position
}

func (c *capturingPublisher) Publish(positions []*model.Position) {
	for _, p := range positions {
		c.positions <- p
	}
}

func TestTrackerDeviceRegistersAndReportsLocation(t *testing.T) {
	reg := session.NewRegistry(staticDirectory{}, true, 0)
	decoder := huabao.NewDecoder("huabao", reg, false, time.UTC)
	pub := &capturingPublisher{positions: make(chan *model.Position, 1)}

	srv := tcp.NewServer("huabao", func() protocol.FrameDecoder { return huabao.NewFrameDecoder() },
		decoder, pub, zaptest.NewLogger(t), 0)
	assert.NilError(t, srv.Start("127.0.0.1:0"))
	defer srv.Stop()

	device, err := NewTrackerDevice(srv.Addr(), "012345abcdef", log.Default())
	assert.NilError(t, err)
	assert.NilError(t, device.Connect())
	defer device.Stop()

	go device.SendRandomReports(10 * time.Millisecond)

	select {
	case pos := <-pub.positions:
		assert.Equal(t, pos.DeviceID, int64(9))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for simulated location report")
	}
}
