package udp

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"gotest.tools/v3/assert"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol/tr900"
	"github.com/packetify/telematics-gateway/session"
)

type fakeDirectory struct{}

func (fakeDirectory) Lookup(uniqueID string) (session.DeviceRecord, bool) {
	return session.DeviceRecord{DeviceID: 2}, true
}

type capturingPublisher struct {
	positions chan *model.Position
}

func (c *capturingPublisher) Publish(positions []*model.Position) {
	for _, p := range positions {
		c.positions <- p
	}
}

func TestServerDecodesDatagram(t *testing.T) {
	reg := session.NewRegistry(fakeDirectory{}, true, 0)
	decoder := tr900.NewDecoder(reg)
	pub := &capturingPublisher{positions: make(chan *model.Position, 1)}

	s := NewServer("tr900", decoder, pub, zaptest.NewLogger(t))
	assert.NilError(t, s.Start("127.0.0.1:0"))
	defer s.Stop()

	addr := s.conn.LocalAddr().String()
	clientConn, err := net.Dial("udp", addr)
	assert.NilError(t, err)
	defer clientConn.Close()

	line := "TR900,123456,60,1,240115,120000,E,11400.000,N,2200.000,0,12.5,90,20,1,500-80,0,3,1"
	_, err = clientConn.Write([]byte(line))
	assert.NilError(t, err)

	select {
	case pos := <-pub.positions:
		assert.Equal(t, pos.Speed, 12.5)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decoded position")
	}
}
