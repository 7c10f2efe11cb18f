package clickhouse

import (
	"context"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
	"gotest.tools/v3/assert"

	"github.com/packetify/telematics-gateway/mocks/mock_clickhouse"
	"github.com/packetify/telematics-gateway/model"
)

func connectTest(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("GATEWAY_CLICKHOUSE")
	if url == "" {
		t.Skip("GATEWAY_CLICKHOUSE not set, skipping ClickHouse integration test")
	}
	store, err := Connect(url)
	assert.NilError(t, err)
	return store
}

func TestSinkPublishSavesPositions(t *testing.T) {
	store := connectTest(t)
	sink := NewSink(store, zap.NewNop())

	pos := model.NewPosition("huabao")
	pos.DeviceID = 7
	pos.Valid = true
	pos.Latitude = 22.0
	pos.Longitude = 114.0
	pos.Set(model.KeyIgnition, true)

	sink.Publish([]*model.Position{pos})
}

func TestSinkPublishSkipsEmptyBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mock_clickhouse.NewMockConn(ctrl)
	// No GetConn expectation: an empty batch must never touch the connection.

	sink := NewSink(conn, zap.NewNop())
	sink.Publish(nil)
}

func TestSaveRawFrame(t *testing.T) {
	store := connectTest(t)
	err := store.SaveRawFrame(context.Background(), "huabao", "012345678901", []byte{0x7E, 0x01, 0x7E})
	assert.NilError(t, err)
}
