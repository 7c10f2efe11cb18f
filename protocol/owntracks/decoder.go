// Package owntracks decodes OwnTracks JSON location reports delivered over
// HTTP.
package owntracks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
)

type report struct {
	Type  string  `json:"_type"`
	TID   string  `json:"tid"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Tst   *int64  `json:"tst"`
	Sent  *int64  `json:"sent"`
	Vel   *float64 `json:"vel"`
	Alt   *float64 `json:"alt"`
	Cog   *float64 `json:"cog"`
	Acc   *float64 `json:"acc"`
	Batt  *float64 `json:"batt"`
	UExt  *float64 `json:"uext"`
	UBatt *float64 `json:"ubatt"`
	VIN   *int64   `json:"vin"`
	Name  string   `json:"name"`
	RPM   *int64   `json:"rpm"`
	Ign   *bool    `json:"ign"`
	Motion *bool   `json:"motion"`
	Odometer *float64 `json:"odometer"`
	HMC   *float64 `json:"hmc"`
	T     string   `json:"t"`
	RTY   *int     `json:"rty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and retains the remainder in Extra
// so the adda-NN/temp_c-NN index-suffixed keys can be recovered without a
// struct field per possible index.
func (r *report) UnmarshalJSON(data []byte) error {
	type alias report
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = report(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Extra = raw
	return nil
}

type Decoder struct {
	registry *session.Registry
}

func NewDecoder(registry *session.Registry) *Decoder {
	return &Decoder{registry: registry}
}

var _ protocol.ProtocolDecoder = (*Decoder)(nil)

func (d *Decoder) Decode(ctx context.Context, meta protocol.ConnMeta, frame *protocol.Frame) (*protocol.DecodeResult, error) {
	var r report
	if err := json.Unmarshal(frame.Payload, &r); err != nil {
		return nil, fmt.Errorf("owntracks: %w: %w", protocol.ErrMalformedFrame, err)
	}
	if r.Type != "location" {
		return &protocol.DecodeResult{}, nil
	}
	if r.TID == "" {
		return nil, protocol.ErrUnknownDevice
	}
	if r.Lat == nil || r.Lon == nil || r.Tst == nil {
		return nil, protocol.ErrMalformedFrame
	}

	sess, ok := d.registry.Get(meta.Channel, meta.RemoteAddress, r.TID)
	if !ok {
		return nil, protocol.ErrUnknownDevice
	}

	pos := model.NewPosition("owntracks")
	pos.DeviceID = sess.DeviceID
	pos.Valid = true
	pos.FixTime = time.Unix(*r.Tst, 0).UTC()
	pos.DeviceTime = pos.FixTime
	if r.Sent != nil {
		pos.ServerTime = time.Unix(*r.Sent, 0).UTC()
	}

	if err := pos.SetLatitudeWgs84(*r.Lat); err != nil {
		return nil, err
	}
	if err := pos.SetLongitudeWgs84(*r.Lon); err != nil {
		return nil, err
	}

	if r.Vel != nil {
		pos.Speed = knotsFromKph(*r.Vel)
	}
	if r.Alt != nil {
		pos.Altitude = *r.Alt
	}
	if r.Cog != nil {
		pos.Course = *r.Cog
	}
	if r.Acc != nil {
		pos.Accuracy = *r.Acc
	}
	if r.Batt != nil {
		pos.Set(model.KeyBatteryLevel, *r.Batt)
	}
	if r.UExt != nil {
		pos.Set(model.KeyPower, *r.UExt)
	}
	if r.UBatt != nil {
		pos.Set(model.KeyBattery, *r.UBatt)
	}
	if r.VIN != nil {
		pos.Set(model.KeyVIN, *r.VIN)
	}
	if r.Name != "" {
		pos.Set("name", r.Name)
	}
	if r.RPM != nil {
		pos.Set(model.KeyRPM, *r.RPM)
	}
	if r.Ign != nil {
		pos.Set(model.KeyIgnition, *r.Ign)
	}
	if r.Motion != nil {
		pos.Set(model.KeyMotion, *r.Motion)
	}
	if r.Odometer != nil {
		pos.Set(model.KeyOdometer, *r.Odometer)
	}
	if r.HMC != nil {
		pos.Set(model.KeyCoolantTemp, *r.HMC)
	}

	decodeIndexedExtras(pos, r.Extra)

	if r.T != "" {
		rty := -1
		if r.RTY != nil {
			rty = *r.RTY
		}
		decodeEventAlarm(pos, r.T, rty)
		pos.Set(model.KeyEvent, r.T)
	}

	sess.UpdateLastKnown(pos)
	return &protocol.DecodeResult{Positions: []*model.Position{pos}}, nil
}

// knotsFromKph converts a velocity reported in kilometers per hour to knots,
// matching the unit every other decoder in this package normalizes to.
func knotsFromKph(kph float64) float64 {
	return kph * 0.539957
}

// decodeEventAlarm interprets the "t" event letter (and, for "h", the
// numeric "rty" report subtype) into either an alarm token or an ignition
// state change.
func decodeEventAlarm(pos *model.Position, t string, rty int) {
	switch t {
	case "9":
		pos.AddAlarm(model.AlarmLowBattery)
	case "1":
		pos.AddAlarm(model.AlarmPowerOn)
	case "i":
		pos.Set(model.KeyIgnition, true)
	case "I":
		pos.Set(model.KeyIgnition, false)
	case "E":
		pos.AddAlarm(model.AlarmPowerRestored)
	case "e":
		pos.AddAlarm(model.AlarmPowerCut)
	case "!":
		pos.AddAlarm(model.AlarmTow)
	case "s":
		pos.AddAlarm(model.AlarmOverspeed)
	case "h":
		switch rty {
		case 0, 3:
			pos.AddAlarm(model.AlarmHardBraking)
		case 1, 4:
			pos.AddAlarm(model.AlarmHardAcceleration)
		case 2, 5:
			pos.AddAlarm(model.AlarmHardCornering)
		}
	}
}
