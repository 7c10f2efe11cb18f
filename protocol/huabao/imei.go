package huabao

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
)

// decodeID turns a 6- or 7-byte device identifier into its string form. The
// id bytes are hex-dumped first; if the resulting hex string is all decimal
// digits, that's a BCD-encoded id and is returned as-is. Otherwise it's
// treated as a binary identifier: the first two bytes and next four bytes
// are packed into a single 48-bit integer, rendered in decimal, and
// suffixed with a Luhn check digit the way these trackers derive their IMEI
// from a truncated binary id.
func decodeID(id []byte) string {
	serial := hex.EncodeToString(id)
	if allDigits(serial) {
		return serial
	}
	value := idValue(id)
	base := value.String()
	return base + luhnCheckDigit(base)
}

func idValue(id []byte) *big.Int {
	padded := make([]byte, 6)
	if len(id) >= 6 {
		copy(padded, id[:6])
	} else {
		copy(padded[6-len(id):], id)
	}
	high := binary.BigEndian.Uint16(padded[0:2])
	low := binary.BigEndian.Uint32(padded[2:6])
	value := new(big.Int).Lsh(big.NewInt(int64(high)), 32)
	value.Or(value, big.NewInt(int64(low)))
	return value
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// luhnCheckDigit computes the Luhn (mod 10) check digit appended to IMEIs.
func luhnCheckDigit(digits string) string {
	sum := 0
	parity := len(digits) % 2
	for i, c := range digits {
		d := int(c - '0')
		if i%2 != parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return fmt.Sprintf("%d", (10-sum%10)%10)
}

// encodeID recovers the wire id bytes the command encoder writes into the
// envelope. It expects the protocol-native identifier string: the hex
// encoding of the raw id field captured when the device first registered
// (Session stores this separately from its decimal display uniqueID, since
// the Luhn-suffixed decimal form is lossy and cannot be reversed).
func encodeID(rawIDHex string) ([]byte, error) {
	id, err := hex.DecodeString(rawIDHex)
	if err != nil {
		return nil, fmt.Errorf("invalid raw id %q: %w", rawIDHex, err)
	}
	return id, nil
}
