// Package command routes abstract outbound commands to the connection
// currently bound to their target device, using the protocol encoder and
// frame encoder registered for that device's protocol.
package command

import (
	"context"
	"fmt"

	"github.com/packetify/telematics-gateway/model"
	"github.com/packetify/telematics-gateway/protocol"
	"github.com/packetify/telematics-gateway/session"
)

// Codec bundles the protocol and frame encoders needed to turn an abstract
// Command into bytes ready for the wire, for one protocol.
type Codec struct {
	Protocol protocol.ProtocolEncoder
	Frame    protocol.FrameEncoder
}

// Dispatcher resolves a device's bound session and protocol, encodes the
// command, and writes it to that session's live connection.
type Dispatcher struct {
	registry *session.Registry
	codecs   map[string]Codec
}

func NewDispatcher(registry *session.Registry) *Dispatcher {
	return &Dispatcher{registry: registry, codecs: make(map[string]Codec)}
}

// Register associates a protocol name (as carried in Position.Protocol and
// passed to SendCommand) with the codec used to encode commands for it.
func (d *Dispatcher) Register(protocolName string, codec Codec) {
	d.codecs[protocolName] = codec
}

// SendCommand routes cmd to the connection currently bound to its target
// device. It returns as soon as the write completes (or fails); there is no
// asynchronous delivery confirmation from the device itself.
func (d *Dispatcher) SendCommand(ctx context.Context, protocolName string, cmd *model.Command) error {
	sess, ok := d.registry.ByDeviceID(cmd.DeviceID)
	if !ok {
		return fmt.Errorf("command: device %d has no active session", cmd.DeviceID)
	}

	codec, ok := d.codecs[protocolName]
	if !ok {
		return fmt.Errorf("command: no codec registered for protocol %q", protocolName)
	}

	rawIDHex, _ := sess.Attribute("huabao.rawId")
	uniqueID, _ := rawIDHex.(string)
	if uniqueID == "" {
		uniqueID = sess.UniqueID
	}

	body, err := codec.Protocol.Encode(uniqueID, sess.Model, cmd)
	if err != nil {
		return fmt.Errorf("command: encode: %w", err)
	}

	frame, err := codec.Frame.Encode(body)
	if err != nil {
		return fmt.Errorf("command: frame: %w", err)
	}

	writerAny, ok := sess.Attribute(protocol.AttrWriterKey)
	if !ok {
		return fmt.Errorf("command: device %d has no live connection", cmd.DeviceID)
	}
	writer, ok := writerAny.(protocol.ConnWriter)
	if !ok {
		return fmt.Errorf("command: device %d writer attribute has the wrong type", cmd.DeviceID)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if _, err := writer.Write(frame); err != nil {
		return fmt.Errorf("command: write: %w", err)
	}
	return nil
}
