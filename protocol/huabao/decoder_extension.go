package huabao

import (
	"encoding/binary"
	"strings"

	"github.com/packetify/telematics-gateway/model"
)

// decodeExtension interprets the TLV stream nested inside the outer 0x80
// TLV: a reserved byte, then type(1) len(1) records using a distinct
// vocabulary from the outer table.
func decodeExtension(pos *model.Position, value []byte) {
	if len(value) < 1 {
		return
	}
	body := value[1:]
	i := 0
	for i+2 <= len(body) {
		t := body[i]
		length := int(body[i+1])
		start := i + 2
		end := start + length
		if end > len(body) {
			break
		}
		sub := body[start:end]
		decodeExtensionTLV(pos, t, sub)
		i = end
	}
}

func decodeExtensionTLV(pos *model.Position, t byte, sub []byte) {
	switch {
	case t == 0x01 && len(sub) >= 4:
		pos.Set(model.KeyOdometer, float64(binary.BigEndian.Uint32(sub))*100)
	case t == 0x02 && len(sub) >= 2:
		pos.Set(model.KeyFuel, float64(binary.BigEndian.Uint16(sub))*0.1)
	case t == 0x03 && len(sub) >= 2:
		pos.Set(model.KeyOBDSpeed, float64(binary.BigEndian.Uint16(sub))*0.1)
	case t == 0x56 && len(sub) >= 2:
		pos.Set(model.KeyBatteryLevel, float64(sub[1]))
	case t == 0x61 && len(sub) >= 2:
		pos.Set(model.KeyPower, float64(binary.BigEndian.Uint16(sub))*0.01)
	case t == 0x69 && len(sub) >= 2:
		pos.Set(model.KeyBattery, float64(binary.BigEndian.Uint16(sub))*0.01)
	case t >= 0x80 && t <= 0x8E:
		pos.Set(obdExtendedKey(t), asFloat(sub))
	case t == 0xA0:
		pos.Set(model.KeyDTCs, strings.ReplaceAll(string(sub), ",", " "))
	case t == 0xCC:
		pos.Set(model.KeyICCID, string(sub))
	}
}

func obdExtendedKey(t byte) string {
	names := map[byte]string{
		0x80: model.KeyRPM,
		0x81: model.KeyThrottle,
		0x82: model.KeyEngineLoad,
		0x83: model.KeyCoolantTemp,
		0x84: model.KeyFuelConsumption,
		0x85: model.KeyOBDOdometer,
		0x86: model.KeyOBDSpeed,
	}
	if name, ok := names[t]; ok {
		return name
	}
	return "obd" + itoaByte(t)
}

func itoaByte(b byte) string {
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}
