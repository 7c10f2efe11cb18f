package devicesim

import (
	"bufio"
	"fmt"

	"github.com/packetify/telematics-gateway/protocol/huabao"
)

const delimiter = 0x7E

// register sends a terminal-register message and blocks for the server's
// ack, the same handshake a real device performs before its first report.
func (td *TrackerDevice) register() error {
	body := []byte{
		0x01, 0x23, // province id
		0x04, 0x56, // city id
		'S', 'I', 'M', '0', '0', '1', // manufacturer id, padded
		'D', 'E', 'V', 'I', 'C', 'E', 'S', 'I', 'M', // device model
		'0', // color
	}
	msg := huabao.EncodeMessage(delimiter, huabao.MsgTerminalRegister, td.id, false, body)
	if _, err := td.conn.Write(msg); err != nil {
		return fmt.Errorf("write register: %w", err)
	}

	reader := bufio.NewReader(td.conn)
	ack, err := readFrame(reader)
	if err != nil {
		return fmt.Errorf("read register ack: %w", err)
	}
	td.log.Printf("registered, server replied %d bytes", len(ack))
	return nil
}

// readFrame consumes one delimiter-bounded frame from r.
func readFrame(r *bufio.Reader) ([]byte, error) {
	first, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if first != delimiter {
		return nil, fmt.Errorf("expected leading delimiter, got 0x%02X", first)
	}
	frame := []byte{first}
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		frame = append(frame, b)
		if b == delimiter && len(frame) > 1 {
			return frame, nil
		}
	}
}
