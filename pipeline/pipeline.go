// Package pipeline defines the downstream consumer interface that decoded
// positions are handed off to. The core never blocks on delivery: every
// implementation is expected to buffer and ship asynchronously.
package pipeline

import "github.com/packetify/telematics-gateway/model"

// Publisher accepts decoded positions for delivery to whatever sits beyond
// the gateway. Publish must not block the caller on network I/O; an
// implementation that needs to talk to a broker should queue internally.
type Publisher interface {
	Publish(positions []*model.Position)
}

// Discard is a Publisher that drops everything, useful for protocol
// decoders under test that don't care about delivery.
type Discard struct{}

func (Discard) Publish([]*model.Position) {}
