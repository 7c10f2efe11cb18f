// Package manpower decodes the ManPower personal-tracker ASCII report line.
package manpower

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
)

var pattern = regexp.MustCompile(
	`simei:(\d+).*?` +
		`,(\d+),` + // status
		`(\d{2})(\d{2})(\d{2})` + // date yyMMdd
		`(\d{2})(\d{2})(\d{2}),` + // time HHmmss
		`([AV]),` + // validity
		`(\d{2})(\d+\.\d+),([NS]),` + // latitude
		`(\d{3})(\d+\.\d+),([EW]),` + // longitude
		`(\d+\.?\d*)`, // speed
)

type Decoder struct {
	registry *session.Registry
}

func NewDecoder(registry *session.Registry) *Decoder {
	return &Decoder{registry: registry}
}

var _ protocol.ProtocolDecoder = (*Decoder)(nil)

func (d *Decoder) Decode(ctx context.Context, meta protocol.ConnMeta, frame *protocol.Frame) (*protocol.DecodeResult, error) {
	m := pattern.FindStringSubmatch(string(frame.Payload))
	if m == nil {
		return nil, protocol.ErrMalformedFrame
	}

	uniqueID := m[1]
	sess, ok := d.registry.Get(meta.Channel, meta.RemoteAddress, uniqueID)
	if !ok {
		return nil, protocol.ErrUnknownDevice
	}

	pos := model.NewPosition("manpower")
	pos.DeviceID = sess.DeviceID

	pos.Set(model.KeyStatus, protocol.ParseNumber[int](m[2]))

	fixTime, err := time.Parse("060102150405", m[3]+m[4]+m[5]+m[6]+m[7]+m[8])
	if err != nil {
		return nil, fmt.Errorf("manpower: bad date/time: %w", err)
	}
	pos.FixTime = fixTime
	pos.DeviceTime = fixTime
	pos.Valid = m[9] == "A"

	lat := protocol.ParseNumber[float64](m[10]) + protocol.ParseNumber[float64](m[11])/60
	if m[12] == "S" {
		lat = -lat
	}

	lon := protocol.ParseNumber[float64](m[13]) + protocol.ParseNumber[float64](m[14])/60
	if m[15] == "W" {
		lon = -lon
	}

	if err := pos.SetLatitudeWgs84(lat); err != nil {
		return nil, err
	}
	if err := pos.SetLongitudeWgs84(lon); err != nil {
		return nil, err
	}

	pos.Speed = protocol.ParseNumber[float64](m[16])

	sess.UpdateLastKnown(pos)
	return &protocol.DecodeResult{Positions: []*model.Position{pos}}, nil
}
