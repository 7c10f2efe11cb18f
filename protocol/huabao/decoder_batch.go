package huabao

import (
	"encoding/binary"
	"time"

	"github.com/packetify/telematics-gateway/model"
)

// decodeLocationBatch splits a 0x0704/0x0210 body into its constituent
// location reports and recurses decodeLocation on each. For 0x0704, a
// non-zero locationType marks every produced Position as an archive replay
// rather than a live report.
func decodeLocationBatch(protocolName string, msgType uint16, body []byte, loc *time.Location, modelName string) ([]*model.Position, error) {
	var positions []*model.Position

	if msgType == MsgLocationBatch {
		if len(body) < 3 {
			return nil, nil
		}
		count := int(binary.BigEndian.Uint16(body[0:2]))
		locationType := body[2]
		i := 3
		for n := 0; n < count && i+2 <= len(body); n++ {
			length := int(binary.BigEndian.Uint16(body[i : i+2]))
			start := i + 2
			end := start + length
			if end > len(body) {
				break
			}
			pos := model.NewPosition(protocolName)
			if err := decodeLocation(pos, body[start:end], loc, modelName); err == nil {
				if locationType != 0 {
					pos.Set(model.KeyArchive, true)
				}
				positions = append(positions, pos)
			}
			i = end
		}
		return positions, nil
	}

	// 0x0210: repeated single-byte-length records, no leading count/type.
	i := 0
	for i+1 <= len(body) {
		length := int(body[i])
		start := i + 1
		end := start + length
		if end > len(body) {
			break
		}
		pos := model.NewPosition(protocolName)
		if err := decodeLocation(pos, body[start:end], loc, modelName); err == nil {
			positions = append(positions, pos)
		}
		i = end
	}
	return positions, nil
}
