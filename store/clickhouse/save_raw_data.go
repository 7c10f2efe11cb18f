package clickhouse

import "context"

const insertRawFrameQuery = `
	INSERT INTO raw_frames (received_at, protocol, unique_id, payload)
	VALUES (now(), ?, ?, ?);
`

// SaveRawFrame persists an undecoded frame alongside the protocol and
// device uniqueId it arrived under, for replay when a decoder bug surfaces
// after the fact.
func (s *Store) SaveRawFrame(ctx context.Context, protocolName, uniqueID string, payload []byte) error {
	batch, err := s.conn.PrepareBatch(ctx, insertRawFrameQuery)
	if err != nil {
		return err
	}
	if err := batch.Append(protocolName, uniqueID, payload); err != nil {
		return err
	}
	return batch.Send()
}
