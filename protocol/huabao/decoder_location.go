package huabao

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/packetify/telematics-gateway/model"
)

const kphToKnots = 1 / 1.852

func knotsFromKph(kph float64) float64 { return kph * kphToKnots }

// decodeLocation interprets the 0x0200 body: a 28-byte fixed head followed
// by a TLV stream running to the end of body (the envelope parser has
// already removed the checksum and trailing delimiter).
func decodeLocation(pos *model.Position, body []byte, loc *time.Location, modelName string) error {
	if len(body) < 28 {
		return fmt.Errorf("short location body: %d bytes", len(body))
	}
	alarm := binary.BigEndian.Uint32(body[0:4])
	status := binary.BigEndian.Uint32(body[4:8])
	rawLat := binary.BigEndian.Uint32(body[8:12])
	rawLon := binary.BigEndian.Uint32(body[12:16])
	altitude := int16(binary.BigEndian.Uint16(body[16:18]))
	speed := binary.BigEndian.Uint16(body[18:20])
	course := binary.BigEndian.Uint16(body[20:22])

	fixTime, err := readDate(body[22:28], loc)
	if err != nil {
		return err
	}

	lat := float64(rawLat) * 1e-6
	lon := float64(rawLon) * 1e-6
	if status&(1<<2) != 0 {
		lat = -lat
	}
	if status&(1<<3) != 0 {
		lon = -lon
	}

	pos.Valid = status&(1<<1) != 0
	pos.Set(model.KeyIgnition, status&(1<<0) != 0)
	pos.Set(model.KeyBlocked, status&(1<<10) != 0)
	pos.Set(model.KeyCharge, status&(1<<26) != 0)
	pos.Set(model.KeyStatus, status)

	pos.FixTime = fixTime
	pos.DeviceTime = fixTime
	pos.Altitude = float64(altitude)
	pos.Speed = knotsFromKph(float64(speed) * 0.1)
	pos.Course = float64(course)

	decodeAlarm(pos, alarm, modelName)

	if err := pos.SetLatitudeWgs84(lat); err != nil {
		return err
	}
	if err := pos.SetLongitudeWgs84(lon); err != nil {
		return err
	}

	return decodeLocationTLVs(pos, body[28:])
}

// decodeLocationTLVs walks the id(1) len(1) value(len) stream, always
// advancing to id_offset + 2 + len regardless of how much of value it
// actually interpreted so unknown or partially-understood fields never
// desync the cursor.
func decodeLocationTLVs(pos *model.Position, body []byte) error {
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
		decodeLocationTLV(pos, id, value)
		i = end
	}
	return nil
}

func decodeLocationTLV(pos *model.Position, id byte, value []byte) {
	switch id {
	case 0x01:
		if len(value) >= 4 {
			pos.Set(model.KeyOdometer, float64(binary.BigEndian.Uint32(value))*100)
		}
	case 0x02:
		if len(value) >= 2 {
			v := binary.BigEndian.Uint16(value)
			if v&0x8000 != 0 {
				pos.Set(model.KeyFuelLevel, float64(v&0x7FFF))
			} else {
				pos.Set(model.KeyFuel, float64(v)/10)
			}
		}
	case 0x06:
		if len(value) >= 2 {
			pos.Set(model.KeyDeviceTemp, float64(int16(binary.BigEndian.Uint16(value))))
		}
	case 0x25:
		if len(value) >= 4 {
			pos.Set(model.KeyInput, binary.BigEndian.Uint32(value))
		}
	case 0x2B:
		if len(value) >= 2 {
			pos.Set(model.KeyADCN(1), float64(binary.BigEndian.Uint16(value))/100)
		}
	case 0xA7:
		if len(value) >= 2 {
			pos.Set(model.KeyADCN(2), float64(binary.BigEndian.Uint16(value))/100)
		}
	case 0x30:
		if len(value) >= 1 {
			pos.Set(model.KeyRSSI, int(value[0]))
		}
	case 0x31:
		if len(value) >= 1 {
			pos.Set(model.KeySatellites, int(value[0]))
		}
	case 0x51:
		decodeTemperatures(pos, value)
	case 0x56:
		if len(value) >= 2 {
			pos.Set(model.KeyBatteryLevel, float64(value[1])*10)
		}
	case 0x57:
		decodeAlarm57(pos, value)
	case 0x60:
		decodeEvent60(pos, value)
	case 0x61:
		if len(value) >= 2 {
			pos.Set(model.KeyPower, float64(binary.BigEndian.Uint16(value))*0.01)
		}
	case 0x63:
		decodeLockRecords(pos, value)
	case 0x68:
		if len(value) >= 2 {
			pos.Set(model.KeyBatteryLevel, float64(binary.BigEndian.Uint16(value))*0.01)
		}
	case 0x69:
		if len(value) >= 2 {
			pos.Set(model.KeyBattery, float64(binary.BigEndian.Uint16(value))*0.01)
		}
	case 0x77:
		decodeTireRecords(pos, value)
	case 0x80:
		decodeExtension(pos, value)
	case 0x82:
		if len(value) >= 2 {
			pos.Set(model.KeyPower, float64(binary.BigEndian.Uint16(value))/10)
		}
	case 0x91:
		decodeOBD91(pos, value)
	case 0x94:
		pos.Set(model.KeyVIN, string(value))
	case 0xEB:
		decodeNetworkTLV(pos, value)
	case 0xF3:
		decodeOBDExtensionF3(pos, value)
	case 0xF4:
		decodeWifiAccessPoints(pos, value)
	case 0xF6, 0xF7, 0xF8, 0xFB, 0xFC, 0xFE:
		decodeEnvironmentalTLV(pos, id, value)
	}
}

func decodeTemperatures(pos *model.Position, value []byte) {
	for i := 0; i+2 <= len(value) && i/2 < 8; i += 2 {
		v := binary.BigEndian.Uint16(value[i : i+2])
		if v == 0xFFFF {
			continue
		}
		pos.Set(model.KeyTempN(i/2+1), decodeCustomDouble(v, 10))
	}
}

func decodeAlarm57(pos *model.Position, value []byte) {
	if len(value) < 2 {
		return
	}
	bits := binary.BigEndian.Uint16(value[0:2])
	if bits&(1<<8) != 0 {
		pos.AddAlarm(model.AlarmHardAcceleration)
	}
	if bits&(1<<9) != 0 {
		pos.AddAlarm(model.AlarmHardBraking)
	}
	if bits&(1<<10) != 0 {
		pos.AddAlarm(model.AlarmHardCornering)
	}
	if len(value) < 2+2+4 {
		return
	}
	alarm2 := binary.BigEndian.Uint32(value[4:8])
	if alarm2&(1<<16) != 0 {
		pos.AddAlarm(model.AlarmDoor)
	}
}

func decodeEvent60(pos *model.Position, value []byte) {
	if len(value) < 2 {
		return
	}
	event := binary.BigEndian.Uint16(value[0:2])
	pos.Set(model.KeyEvent, event)
	if event >= 0x0061 && event <= 0x0066 && len(value) >= 2+6+8 {
		pos.Set(model.KeyDriverUniqueID, string(value[2+6:2+6+8]))
	}
}

func decodeLockRecords(pos *model.Position, value []byte) {
	const recordLen = 11
	for i := 0; i+recordLen <= len(value); i += recordLen {
		rec := value[i : i+recordLen]
		pos.Set(model.KeyCard, hex.EncodeToString(rec[0:6]))
		pos.Set(model.KeyBattery, float64(binary.BigEndian.Uint16(rec[6:8]))*0.001)
		if rec[8] == '1' {
			pos.AddAlarm(model.AlarmLock)
		}
	}
}

func decodeTireRecords(pos *model.Position, value []byte) {
	const recordLen = 1 + 3 + 2 + 1 + 1
	for i := 0; i+recordLen <= len(value); i += recordLen {
		rec := value[i : i+recordLen]
		idx := int(rec[0])
		pressureRaw := binary.BigEndian.Uint16(rec[4:6])
		pressure := float64(pressureRaw&0x3FF) / 40
		temp := int(rec[6]) - 50
		pos.Set(fmt.Sprintf("tirePressure%d", idx), pressure)
		pos.Set(fmt.Sprintf("tireTemp%d", idx), temp)
	}
}

func decodeOBD91(pos *model.Position, value []byte) {
	if len(value) < 2 {
		return
	}
	pos.Set(model.KeyBattery, float64(binary.BigEndian.Uint16(value[0:2]))*0.1)
	if len(value) >= 4 {
		pos.Set(model.KeyRPM, binary.BigEndian.Uint16(value[2:4]))
	}
	if len(value) >= 5 {
		pos.Set(model.KeyOBDSpeed, int(value[4]))
	}
	if len(value) >= 6 {
		pos.Set(model.KeyThrottle, float64(value[5])*100/255)
	}
	if len(value) >= 7 {
		pos.Set(model.KeyEngineLoad, float64(value[6])*100/255)
	}
	if len(value) >= 8 {
		pos.Set(model.KeyCoolantTemp, int(value[7])-40)
	}
	if len(value) >= 20 {
		pos.Set(model.KeyFuelConsumption, float64(binary.BigEndian.Uint16(value[10:12]))*0.01)
	}
	if len(value) >= 28 {
		pos.Set(model.KeyFuelUsed, float64(binary.BigEndian.Uint16(value[26:28]))*0.01)
	}
}

func decodeNetworkTLV(pos *model.Position, value []byte) {
	if len(value) < 2 {
		return
	}
	first := binary.BigEndian.Uint16(value[0:2])
	if first > 200 {
		if len(value) < 3 {
			return
		}
		mcc := int(first)
		mnc := int(value[2])
		net := &model.Network{}
		i := 3
		for i+5 <= len(value) {
			lac := int(binary.BigEndian.Uint16(value[i : i+2]))
			cid := int64(binary.BigEndian.Uint16(value[i+2 : i+4]))
			rssi := int(value[i+4])
			net.AddCellTower(model.CellTower{MCC: mcc, MNC: mnc, LAC: lac, CID: cid, Signal: rssi})
			i += 5
		}
		pos.Network = net
		return
	}
	decodeNetworkSubTLVs(pos, value)
}

// decodeNetworkSubTLVs handles the structured variant of 0xEB used when the
// first word is not a plausible MCC: nested type(2)/length(2) records for
// ICCID (0xCC), battery voltage (0x69) and the low-battery flag (0x02);
// every other subtype is parsed as WiFi CSV. Fuel-probe records are not
// decoded.
func decodeNetworkSubTLVs(pos *model.Position, value []byte) {
	i := 0
	for i+4 <= len(value) {
		subtype := binary.BigEndian.Uint16(value[i : i+2])
		sublen := int(binary.BigEndian.Uint16(value[i+2 : i+4]))
		start := i + 4
		end := start + sublen
		if end > len(value) {
			break
		}
		sub := value[start:end]
		switch subtype {
		case 0xCC:
			pos.Set(model.KeyICCID, string(sub))
		case 0x69:
			pos.Set(model.KeyBattery, asFloat(sub))
		case 0x02:
			if len(sub) > 0 && sub[0] == 1 {
				pos.AddAlarm(model.AlarmLowBattery)
			}
		default:
			decodeWifiCSV(pos, sub)
		}
		i = end
	}
}

func decodeWifiCSV(pos *model.Position, value []byte) {
	s := strings.TrimSpace(string(value))
	if s == "" {
		return
	}
	net := pos.Network
	if net == nil {
		net = &model.Network{}
	}
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(entry, ":")
		if len(parts) != 2 {
			continue
		}
		rssi, _ := strconv.Atoi(parts[1])
		net.AddWifiAccessPoint(model.WifiAccessPoint{BSSID: parts[0], RSSI: rssi})
	}
	pos.Network = net
}

func decodeOBDExtensionF3(pos *model.Position, value []byte) {
	i := 0
	for i+3 <= len(value) {
		subtype := binary.BigEndian.Uint16(value[i : i+2])
		sublen := int(value[i+2])
		start := i + 3
		end := start + sublen
		if end > len(value) {
			break
		}
		sub := value[start:end]
		switch subtype {
		case 0x01:
			pos.Set(model.KeyVIN, string(sub))
		case 0x02:
			pos.Set(model.KeyRPM, asFloat(sub))
		case 0x03:
			pos.Set(model.KeyFuel, asFloat(sub))
		case 0x04:
			pos.Set(model.KeyCoolantTemp, asFloat(sub))
		case 0x05:
			pos.Set(model.KeyOBDOdometer, asFloat(sub)*1000)
		}
		i = end
	}
}

func decodeWifiAccessPoints(pos *model.Position, value []byte) {
	net := pos.Network
	if net == nil {
		net = &model.Network{}
	}
	i := 0
	for i+7 <= len(value) {
		mac := value[i : i+6]
		rssi := int(int8(value[i+6]))
		net.AddWifiAccessPoint(model.WifiAccessPoint{BSSID: macString(mac), RSSI: rssi})
		i += 7
	}
	pos.Network = net
}

func macString(mac []byte) string {
	parts := make([]string, len(mac))
	for i, b := range mac {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

func decodeEnvironmentalTLV(pos *model.Position, id byte, value []byte) {
	switch id {
	case 0xF6:
		pos.Set(model.KeyHumidity, asFloat(value))
	case 0xF7:
		pos.Set(model.KeyDeviceTemp, asFloat(value))
	case 0xF8:
		pos.Set(model.KeyBatteryLevel, asFloat(value))
	case 0xFB:
		pos.AddAlarm(model.AlarmGeofence)
	case 0xFC:
		if len(value) > 0 {
			pos.GeofenceIDs = append(pos.GeofenceIDs, int64(value[0]))
		}
	case 0xFE:
		pos.Set("containerId", string(value))
	}
}

func asFloat(b []byte) float64 {
	switch len(b) {
	case 1:
		return float64(b[0])
	case 2:
		return float64(binary.BigEndian.Uint16(b))
	case 4:
		return float64(binary.BigEndian.Uint32(b))
	default:
		return math.NaN()
	}
}
