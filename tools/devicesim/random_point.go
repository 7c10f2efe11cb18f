package devicesim

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/packetify/telematics-gateway/protocol/huabao"
)

// baseLat/baseLon anchor the random walk; devices simulated for manual
// testing don't need a realistic route, just plausible, moving fixes.
const (
	baseLat = 39.9042
	baseLon = 116.4074
)

const statusValidFix = 1 << 1

func (td *TrackerDevice) sendRandomLocation() error {
	body := encodeLocationBody(randomFix())
	msg := huabao.EncodeMessage(delimiter, huabao.MsgLocationReport, td.id, false, body)
	if _, err := td.conn.Write(msg); err != nil {
		return fmt.Errorf("write location report: %w", err)
	}

	reader := bufio.NewReader(td.conn)
	ack, err := readFrame(reader)
	if err != nil {
		return fmt.Errorf("read location ack: %w", err)
	}
	td.log.Printf("sent location report, server replied %d bytes", len(ack))
	return nil
}

type fix struct {
	lat, lon float64
	altitude int16
	speedKph float64
	course   uint16
	fixTime  time.Time
}

func randomFix() fix {
	return fix{
		lat:      baseLat + (rand.Float64()-0.5)*0.1,
		lon:      baseLon + (rand.Float64()-0.5)*0.1,
		altitude: int16(rand.Intn(200)),
		speedKph: rand.Float64() * 100,
		course:   uint16(rand.Intn(360)),
		fixTime:  time.Now().UTC(),
	}
}

// encodeLocationBody builds the 28-byte fixed head of a 0x0200 report. It
// deliberately skips the TLV tail: the decoder treats an absent tail as an
// empty additional-info block.
func encodeLocationBody(f fix) []byte {
	body := make([]byte, 28)
	binary.BigEndian.PutUint32(body[0:4], 0)
	binary.BigEndian.PutUint32(body[4:8], statusValidFix)
	binary.BigEndian.PutUint32(body[8:12], uint32(f.lat*1e6))
	binary.BigEndian.PutUint32(body[12:16], uint32(f.lon*1e6))
	binary.BigEndian.PutUint16(body[16:18], uint16(f.altitude))
	binary.BigEndian.PutUint16(body[18:20], uint16(f.speedKph*10))
	binary.BigEndian.PutUint16(body[20:22], f.course)
	copy(body[22:28], encodeBCDDate(f.fixTime))
	return body
}

// encodeBCDDate packs yy MM dd HH mm ss as two-decimal-digits-per-byte,
// mirroring the wire layout the decoder expects for every location report.
func encodeBCDDate(t time.Time) []byte {
	bcd := func(v int) byte { return byte((v/10)<<4) | byte(v%10) }
	return []byte{
		bcd(t.Year() % 100),
		bcd(int(t.Month())),
		bcd(t.Day()),
		bcd(t.Hour()),
		bcd(t.Minute()),
		bcd(t.Second()),
	}
}
