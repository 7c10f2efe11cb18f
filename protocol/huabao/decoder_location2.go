package huabao

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/packetify/telematics-gateway/model"
)

// decodeLocation2 interprets the 0x5501/0x5502 body: a Jt600-style fixed
// head (time/lat/lon/altitude/speed/course packed more tightly than 0x0200)
// followed by rssi/satellites/odometer, a battery byte, a cell tower, a
// product-specific status+alarm pair, then a short TLV tail.
func decodeLocation2(pos *model.Position, body []byte, loc *time.Location) error {
	if len(body) < 18 {
		return fmt.Errorf("short location2 body: %d bytes", len(body))
	}
	fixTime, err := readDate(body[0:6], loc)
	if err != nil {
		return err
	}
	lat := float64(binary.BigEndian.Uint32(body[6:10])) * 1e-6
	lon := float64(binary.BigEndian.Uint32(body[10:14])) * 1e-6
	altitude := int16(binary.BigEndian.Uint16(body[14:16]))
	speedCourse := binary.BigEndian.Uint16(body[16:18])
	speed := speedCourse >> 6
	course := speedCourse & 0x3F * 6

	pos.FixTime = fixTime
	pos.DeviceTime = fixTime
	pos.Valid = true
	pos.Altitude = float64(altitude)
	pos.Speed = knotsFromKph(float64(speed))
	pos.Course = float64(course)

	if err := pos.SetLatitudeWgs84(lat); err != nil {
		return err
	}
	if err := pos.SetLongitudeWgs84(lon); err != nil {
		return err
	}

	i := 18
	if i+2 > len(body) {
		return decodeLocation2TLVs(pos, body[i:])
	}
	pos.Set(model.KeyRSSI, int(body[i]))
	pos.Set(model.KeySatellites, int(body[i+1]))
	i += 2

	if i+4 <= len(body) {
		pos.Set(model.KeyOdometer, float64(binary.BigEndian.Uint32(body[i:i+4]))*1000)
		i += 4
	}

	if i+1 <= len(body) {
		battery := body[i]
		switch {
		case battery == 0xAA || battery == 0xAB:
			pos.Set(model.KeyCharge, true)
		case battery <= 100:
			pos.Set(model.KeyBatteryLevel, float64(battery))
		}
		i++
	}

	if i+6 <= len(body) {
		cid := int64(binary.BigEndian.Uint32(body[i : i+4]))
		lac := int(binary.BigEndian.Uint16(body[i+4 : i+6]))
		if cid != 0 && lac != 0 {
			pos.Network = (&model.Network{}).AddCellTower(model.CellTower{CID: cid, LAC: lac})
		}
		i += 6
	}

	if i+1 <= len(body) {
		product := body[i]
		i++
		if i+4 <= len(body) {
			status := binary.BigEndian.Uint16(body[i : i+2])
			alarm := binary.BigEndian.Uint16(body[i+2 : i+4])
			pos.Set(model.KeyStatus, status)
			decodeProductAlarm(pos, product, alarm)
			i += 4
		}
	}

	return decodeLocation2TLVs(pos, body[i:])
}

// decodeProductAlarm maps the 0x5501/0x5502 alarm word per the issuing
// product code; product 3 is the only one with a defined mapping.
func decodeProductAlarm(pos *model.Position, product byte, alarm uint16) {
	if product != 3 {
		return
	}
	if alarm&(1<<0) != 0 {
		pos.AddAlarm(model.AlarmOverspeed)
	}
	if alarm&(1<<1) != 0 {
		pos.AddAlarm(model.AlarmLowPower)
	}
	if alarm&(1<<2) != 0 {
		pos.AddAlarm(model.AlarmVibration)
	}
	if alarm&(1<<3) != 0 {
		pos.AddAlarm(model.AlarmLowBattery)
	}
	if alarm&(1<<4) != 0 {
		pos.AddAlarm(model.AlarmGeofenceEnter)
	}
	if alarm&(1<<5) != 0 {
		pos.AddAlarm(model.AlarmGeofenceExit)
	}
}

func decodeLocation2TLVs(pos *model.Position, body []byte) error {
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
		case 0x02:
			if len(value) >= 2 {
				pos.Altitude = float64(int16(binary.BigEndian.Uint16(value)))
			}
		case 0x0B:
			pos.Set("lockCommand", string(value))
		case 0x0C:
			if len(value) >= 6 {
				x := readSignedWord(binary.BigEndian.Uint16(value[0:2]))
				y := readSignedWord(binary.BigEndian.Uint16(value[2:4]))
				z := readSignedWord(binary.BigEndian.Uint16(value[4:6]))
				pos.Set("tilt", fmt.Sprintf("[%d,%d,%d]", x, y, z))
			}
		case 0xFC:
			if len(value) > 0 {
				pos.GeofenceIDs = append(pos.GeofenceIDs, int64(value[0]))
			}
		}
		i = end
	}
	return nil
}
