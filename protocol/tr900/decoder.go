// Package tr900 decodes the TR900 family's comma-delimited ASCII
// report line into a normalized position.
package tr900

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
)

// pattern mirrors the field order: id, period, fix, date, time, lon
// hemisphere+degrees+minutes, lat hemisphere+degrees+minutes, command,
// speed, course, gsm signal, event, adc+battery, impulses, input, status.
var pattern = regexp.MustCompile(
	`^[^,]*,` +
		`(\d+),` + // id
		`[^,]*,` + // period
		`([01]),` + // fix
		`(\d{2})(\d{2})(\d{2}),` + // date yyMMdd
		`(\d{2})(\d{2})(\d{2}),` + // time HHmmss
		`([EW]),(\d{3})(\d+\.\d+),` + // longitude hemisphere, deg+min
		`([NS]),(\d{2})(\d+\.\d+),` + // latitude hemisphere, deg+min
		`[^,]*,` + // command
		`(\d+\.?\d*),` + // speed
		`(\d+\.?\d*),` + // course
		`(\d+),` + // gsm
		`(\d+),` + // event
		`(\d+)-(\d+),` + // adc1-battery
		`[^,]*,` + // impulses
		`(\d+),` + // input
		`(\d+)$`, // status
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

	pos := model.NewPosition("tr900")
	pos.DeviceID = sess.DeviceID
	pos.Valid = m[2] == "1"

	fixTime, err := time.Parse("060102150405", m[3]+m[4]+m[5]+m[6]+m[7]+m[8])
	if err != nil {
		return nil, fmt.Errorf("tr900: bad date/time: %w", err)
	}
	pos.FixTime = fixTime
	pos.DeviceTime = fixTime

	lon := protocol.ParseNumber[float64](m[10]) + protocol.ParseNumber[float64](m[11])/60
	if m[9] == "W" {
		lon = -lon
	}

	lat := protocol.ParseNumber[float64](m[13]) + protocol.ParseNumber[float64](m[14])/60
	if m[12] == "S" {
		lat = -lat
	}

	if err := pos.SetLatitudeWgs84(lat); err != nil {
		return nil, err
	}
	if err := pos.SetLongitudeWgs84(lon); err != nil {
		return nil, err
	}

	pos.Speed = protocol.ParseNumber[float64](m[15])
	pos.Course = protocol.ParseNumber[float64](m[16])

	pos.Set(model.KeyRSSI, protocol.ParseNumber[int](m[17]))
	pos.Set(model.KeyEvent, protocol.ParseNumber[int](m[18]))
	pos.Set(model.KeyADCN(1), protocol.ParseNumber[int](m[19]))
	pos.Set(model.KeyBatteryLevel, protocol.ParseNumber[int](m[20]))
	pos.Set(model.KeyInput, protocol.ParseNumber[int](m[21]))
	pos.Set(model.KeyStatus, protocol.ParseNumber[int](m[22]))

	sess.UpdateLastKnown(pos)
	return &protocol.DecodeResult{Positions: []*model.Position{pos}}, nil
}
