package huabao

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/packetify/telematics-gateway/model"
)

// decodeTransparent interprets the 0x0900 body, whose first byte selects an
// OEM-specific sub-format carried over the same transparent-data channel.
func decodeTransparent(pos *model.Position, body []byte, loc *time.Location) error {
	if len(body) < 1 {
		return nil
	}
	subtype := body[0]
	rest := body[1:]
	switch subtype {
	case 0x40:
		decodeDriverID(pos, rest)
	case 0x41:
		decodeOBDRealtime(pos, rest)
	case 0xF0:
		decodeVehicleDataTLVs(pos, rest)
	case 0xFF:
		return decodeDirectPosition(pos, rest, loc)
	}
	return nil
}

// decodeDriverID parses GTSL pipe-delimited driver-id text: id|name|card.
func decodeDriverID(pos *model.Position, value []byte) {
	parts := strings.Split(string(value), "|")
	if len(parts) > 0 && parts[0] != "" {
		pos.Set(model.KeyDriverUniqueID, parts[0])
	}
	if len(parts) > 2 && parts[2] != "" {
		pos.Set(model.KeyCard, parts[2])
	}
}

// decodeOBDRealtime parses comma-delimited realtime OBD metrics:
// rpm,speed,coolantTemp,throttle,fuel.
func decodeOBDRealtime(pos *model.Position, value []byte) {
	fields := strings.Split(string(value), ",")
	setIfPresent := func(i int, key string) {
		if i < len(fields) && fields[i] != "" {
			pos.Set(key, fields[i])
		}
	}
	setIfPresent(0, model.KeyRPM)
	setIfPresent(1, model.KeyOBDSpeed)
	setIfPresent(2, model.KeyCoolantTemp)
	setIfPresent(3, model.KeyThrottle)
	setIfPresent(4, model.KeyFuel)
}

// decodeVehicleDataTLVs parses the 0xF0 vehicle-data TLV table, keyed by
// 0x01 (VIN), 0x02 (odometer), 0x03 (fuel), 0x0B (lock command), 0x15
// (driver id).
func decodeVehicleDataTLVs(pos *model.Position, body []byte) {
	i := 0
	for i+2 <= len(body) {
		id := body[i]
		length := int(body[i+1])
		start := i + 2
		end := start + length
		if end > len(body) {
			break
		}
		value := body[start:end]
		switch id {
		case 0x01:
			pos.Set(model.KeyVIN, string(value))
		case 0x02:
			if len(value) >= 4 {
				pos.Set(model.KeyOdometer, float64(binary.BigEndian.Uint32(value))*100)
			}
		case 0x03:
			if len(value) >= 2 {
				pos.Set(model.KeyFuel, float64(binary.BigEndian.Uint16(value))/10)
			}
		case 0x0B:
			pos.Set("lockCommand", string(value))
		case 0x15:
			pos.Set(model.KeyDriverUniqueID, string(value))
		}
		i = end
	}
}

// decodeDirectPosition parses the 0xFF direct binary fix:
// time(6 BCD) | lat(4) | lon(4) | altitude(2) | speed(2) | course(2).
func decodeDirectPosition(pos *model.Position, value []byte, loc *time.Location) error {
	if len(value) < 20 {
		return nil
	}
	fixTime, err := readDate(value[0:6], loc)
	if err != nil {
		return err
	}
	pos.FixTime = fixTime
	pos.DeviceTime = fixTime
	pos.Valid = true
	lat := float64(binary.BigEndian.Uint32(value[6:10])) * 1e-6
	lon := float64(binary.BigEndian.Uint32(value[10:14])) * 1e-6
	pos.Altitude = float64(int16(binary.BigEndian.Uint16(value[14:16])))
	pos.Speed = knotsFromKph(float64(binary.BigEndian.Uint16(value[16:18])) * 0.1)
	pos.Course = float64(binary.BigEndian.Uint16(value[18:20]))
	if err := pos.SetLatitudeWgs84(lat); err != nil {
		return err
	}
	return pos.SetLongitudeWgs84(lon)
}
