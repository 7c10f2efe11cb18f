package owntracks

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/packetify/telematics-gateway/model"
)

// decodeIndexedExtras picks out the adda-NN (analog/digital input) and
// temp_c-NN (per-probe temperature) keys that OwnTracks extensions add
// alongside the core location fields; the index suffix varies per device so
// these can't be modeled as fixed struct fields. The wire suffix is
// zero-based, but the reserved adcN/tempN attribute keys are one-based, so
// wire index N lands on reserved key N+1.
func decodeIndexedExtras(pos *model.Position, extra map[string]json.RawMessage) {
	for key, raw := range extra {
		switch {
		case strings.HasPrefix(key, "adda-"):
			n, err := strconv.Atoi(strings.TrimPrefix(key, "adda-"))
			if err != nil {
				continue
			}
			var v float64
			if json.Unmarshal(raw, &v) == nil {
				pos.Set(model.KeyADCN(n+1), v)
			}

		case strings.HasPrefix(key, "temp_c-"):
			n, err := strconv.Atoi(strings.TrimPrefix(key, "temp_c-"))
			if err != nil {
				continue
			}
			var v float64
			if json.Unmarshal(raw, &v) == nil {
				pos.Set(model.KeyTempN(n+1), v)
			}
		}
	}
}
