package clickhouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/pipeline"
)

type positionColumns struct {
	DeviceID   int64
	Protocol   string
	FixTime    time.Time
	ServerTime time.Time
	Valid      bool
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Speed      float64
	Course     float64
	Accuracy   float64
	Attributes map[string]string
}

const insertPositionQuery = `
	INSERT INTO positions
	    (device_id, protocol, fix_time, server_time, valid, latitude, longitude, altitude, speed, course, accuracy, attributes)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?);
`

// Sink adapts Store into a pipeline.Publisher: every Publish call batches
// its positions into a single ClickHouse insert. Errors are logged, not
// returned, matching the downstream pipeline's fire-and-forget contract.
type Sink struct {
	conn   Conn
	logger *zap.Logger
}

var _ pipeline.Publisher = (*Sink)(nil)

func NewSink(conn Conn, logger *zap.Logger) *Sink {
	return &Sink{conn: conn, logger: logger}
}

func (s *Sink) Publish(positions []*model.Position) {
	if len(positions) == 0 {
		return
	}
	if err := s.savePositions(context.Background(), positions); err != nil {
		s.logger.Error("save positions failed", zap.Error(err))
	}
}

func (s *Sink) savePositions(ctx context.Context, positions []*model.Position) error {
	batch, err := s.conn.GetConn().PrepareBatch(ctx, insertPositionQuery)
	if err != nil {
		return err
	}
	for _, pos := range positions {
		attrs := make(map[string]string, len(pos.Attributes))
		for k, v := range pos.Attributes {
			attrs[k] = toString(v)
		}
		err := batch.AppendStruct(&positionColumns{
			DeviceID:   pos.DeviceID,
			Protocol:   pos.Protocol,
			FixTime:    pos.FixTime,
			ServerTime: pos.ServerTime,
			Valid:      pos.Valid,
			Latitude:   pos.Latitude,
			Longitude:  pos.Longitude,
			Altitude:   pos.Altitude,
			Speed:      pos.Speed,
			Course:     pos.Course,
			Accuracy:   pos.Accuracy,
			Attributes: attrs,
		})
		if err != nil {
			return err
		}
	}
	return batch.Send()
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
