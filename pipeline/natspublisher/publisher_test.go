package natspublisher

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gotest.tools/v3/assert"

	"github.com/packetify/telematics-gateway/model"
)

func randomPort() int {
	return rand.Intn(65535-20000) + 20000
}

func runTestServer(t *testing.T) (*natsserver.Server, string) {
	t.Helper()
	port := randomPort()
	opts := natstest.DefaultTestOptions
	opts.Port = port
	srv := natstest.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv, fmt.Sprintf("nats://127.0.0.1:%d", port)
}

func TestPublisherDeliversPosition(t *testing.T) {
	_, url := runTestServer(t)

	sub, err := nats.Connect(url)
	assert.NilError(t, err)
	defer sub.Close()

	received := make(chan *nats.Msg, 1)
	_, err = sub.Subscribe("positions.huabao", func(m *nats.Msg) {
		received <- m
	})
	assert.NilError(t, err)

	pub, err := Connect(url, "positions.huabao", 16, zap.NewNop())
	assert.NilError(t, err)
	defer pub.Stop()

	pos := model.NewPosition("huabao")
	pos.DeviceID = 42
	pub.Publish([]*model.Position{pos})

	select {
	case msg := <-received:
		assert.Assert(t, len(msg.Data) > 0)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestPublisherDropsOnFullQueue(t *testing.T) {
	_, url := runTestServer(t)

	pub, err := Connect(url, "positions.overflow", 1, zap.NewNop())
	assert.NilError(t, err)
	defer pub.Stop()

	for i := 0; i < 10; i++ {
		pub.Publish([]*model.Position{model.NewPosition("huabao")})
	}
}
