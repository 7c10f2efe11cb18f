package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/packetify/telematics-gateway/geo"
)

// Position is the normalized record every protocol decoder produces.
type Position struct {
	Protocol   string
	DeviceID   int64
	ServerTime time.Time
	DeviceTime time.Time
	FixTime    time.Time
	Valid      bool
	Outdated   bool

	Latitude  float64
	Longitude float64

	Altitude float64
	Speed    float64
	Course   float64
	Accuracy float64

	Address string

	Network     *Network
	GeofenceIDs []int64

	Attributes map[string]any

	latitudeWgs84  float64
	longitudeWgs84 float64
	latSet         bool
	lonSet         bool
}

// NewPosition returns a Position with ServerTime defaulted to now and an
// initialized attribute map.
func NewPosition(protocol string) *Position {
	return &Position{
		Protocol:   protocol,
		ServerTime: time.Now(),
		Attributes: make(map[string]any),
	}
}

// SetLatitude range-checks and stores the post-transform latitude.
func (p *Position) SetLatitude(lat float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude out of range: %f", lat)
	}
	p.Latitude = lat
	return nil
}

// SetLongitude range-checks and stores the post-transform longitude.
func (p *Position) SetLongitude(lon float64) error {
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude out of range: %f", lon)
	}
	p.Longitude = lon
	return nil
}

// LatitudeWgs84 returns the raw, untransformed latitude last written.
func (p *Position) LatitudeWgs84() float64 { return p.latitudeWgs84 }

// LongitudeWgs84 returns the raw, untransformed longitude last written.
func (p *Position) LongitudeWgs84() float64 { return p.longitudeWgs84 }

// SetLatitudeWgs84 latches the WGS-84 latitude. When the longitude has
// already been latched in this decode pass, firing the coordinate transform
// and writing Latitude/Longitude; otherwise it just records the axis and
// waits for its pair. Both latches reset once the transform fires.
func (p *Position) SetLatitudeWgs84(lat float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude out of range: %f", lat)
	}
	p.latitudeWgs84 = lat
	p.latSet = true
	return p.fireTransformIfReady()
}

// SetLongitudeWgs84 is the longitude counterpart of SetLatitudeWgs84; see
// its doc for the pair-gating behavior.
func (p *Position) SetLongitudeWgs84(lon float64) error {
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude out of range: %f", lon)
	}
	p.longitudeWgs84 = lon
	p.lonSet = true
	return p.fireTransformIfReady()
}

func (p *Position) fireTransformIfReady() error {
	if !p.latSet || !p.lonSet {
		return nil
	}
	lat, lon := geo.WGS84ToGCJ02(p.latitudeWgs84, p.longitudeWgs84)
	if err := p.SetLatitude(lat); err != nil {
		return err
	}
	if err := p.SetLongitude(lon); err != nil {
		return err
	}
	p.latSet, p.lonSet = false, false
	return nil
}

// AddAlarm appends an alarm token to the comma-joined KeyAlarm attribute
// without deduplicating repeats.
func (p *Position) AddAlarm(token string) {
	existing, _ := p.Attributes[KeyAlarm].(string)
	if existing == "" {
		p.Attributes[KeyAlarm] = token
		return
	}
	p.Attributes[KeyAlarm] = existing + "," + token
}

// Set stores an attribute value under key.
func (p *Position) Set(key string, value any) {
	p.Attributes[key] = value
}

// String renders enough of the position for log lines.
func (p *Position) String() string {
	return p.Protocol + " device=" + strconv.FormatInt(p.DeviceID, 10) +
		" lat=" + strconv.FormatFloat(p.Latitude, 'f', 6, 64) +
		" lon=" + strconv.FormatFloat(p.Longitude, 'f', 6, 64)
}
