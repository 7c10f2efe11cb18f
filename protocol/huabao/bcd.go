package huabao

import (
	"fmt"
	"time"
)

// decodeBCD reads one BCD-encoded byte (two decimal digits) as a plain
// integer, e.g. 0x24 -> 24.
func decodeBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

func encodeBCD(v int) byte {
	return byte((v/10)<<4) | byte(v%10)
}

// readDate decodes the six-byte yy MM dd HH mm ss BCD timestamp used
// throughout the location-report family, interpreted in loc.
func readDate(b []byte, loc *time.Location) (time.Time, error) {
	if len(b) < 6 {
		return time.Time{}, fmt.Errorf("short date: %d bytes", len(b))
	}
	year := 2000 + decodeBCD(b[0])
	month := decodeBCD(b[1])
	day := decodeBCD(b[2])
	hour := decodeBCD(b[3])
	minute := decodeBCD(b[4])
	second := decodeBCD(b[5])
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), nil
}

func writeDate(t time.Time) []byte {
	return []byte{
		encodeBCD(t.Year() % 100),
		encodeBCD(int(t.Month())),
		encodeBCD(t.Day()),
		encodeBCD(t.Hour()),
		encodeBCD(t.Minute()),
		encodeBCD(t.Second()),
	}
}

// readSignedWord reinterprets a 16-bit sign-magnitude (not two's-complement)
// value used by a handful of TLVs (tilt, some temperature fields) where the
// top bit is the sign rather than part of a standard int16.
func readSignedWord(v uint16) int16 {
	if v&0x8000 != 0 {
		return -int16(v &^ 0x8000)
	}
	return int16(v)
}

// decodeCustomDouble turns a raw 16-bit magnitude+sign reading scaled by
// divisor into a float, honoring the same sign-in-top-bit convention as
// readSignedWord.
func decodeCustomDouble(v uint16, divisor float64) float64 {
	return float64(readSignedWord(v)) / divisor
}
