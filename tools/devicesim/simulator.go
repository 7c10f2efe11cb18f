// Package devicesim drives a fake Huabao tracker against a running
// gateway, for manual end-to-end testing without real hardware.
package devicesim

import (
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"time"
)

// TrackerDevice dials a Huabao TCP listener, registers under idHex (the
// hex-encoded 6-byte device id), and sends randomized location reports on
// an interval until stopped.
type TrackerDevice struct {
	serverAddr string
	id         []byte
	conn       net.Conn
	log        *log.Logger
	stop       chan struct{}
}

func NewTrackerDevice(serverAddr, idHex string, logger *log.Logger) (*TrackerDevice, error) {
	id, err := decodeIDHex(idHex)
	if err != nil {
		return nil, err
	}
	return &TrackerDevice{
		serverAddr: serverAddr,
		id:         id,
		log:        logger,
		stop:       make(chan struct{}),
	}, nil
}

func (td *TrackerDevice) Connect() error {
	conn, err := net.Dial("tcp", td.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to dial server: %w", err)
	}
	td.conn = conn
	return nil
}

func (td *TrackerDevice) Stop() {
	close(td.stop)
	if td.conn != nil {
		td.conn.Close()
	}
}

// SendRandomReports registers once, then loops sending a random location
// report every interval, logging the server's ack.
func (td *TrackerDevice) SendRandomReports(interval time.Duration) {
	if err := td.register(); err != nil {
		td.log.Printf("registration failed: %v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-td.stop:
			return
		case <-ticker.C:
			if err := td.sendRandomLocation(); err != nil {
				td.log.Printf("send location failed: %v", err)
				return
			}
		}
	}
}

func decodeIDHex(idHex string) ([]byte, error) {
	id, err := hex.DecodeString(idHex)
	if err != nil {
		return nil, fmt.Errorf("id must be hex-encoded: %w", err)
	}
	if len(id) != 6 {
		return nil, fmt.Errorf("id must decode to 6 bytes, got %d", len(id))
	}
	return id, nil
}
