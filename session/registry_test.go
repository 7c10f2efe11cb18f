package session

import (
	"testing"
	"time"

	"github.com/packetify/telematics-gateway/model"
	"gotest.tools/v3/assert"
)

func newPositionForTest(lat, lon float64) *model.Position {
	p := model.NewPosition("test")
	p.Latitude = lat
	p.Longitude = lon
	return p
}

type fakeDirectory struct {
	records map[string]DeviceRecord
}

func (f *fakeDirectory) Lookup(uniqueID string) (DeviceRecord, bool) {
	rec, ok := f.records[uniqueID]
	return rec, ok
}

func TestRegistryGetKnownDevice(t *testing.T) {
	dir := &fakeDirectory{records: map[string]DeviceRecord{
		"123456789012345": {DeviceID: 42, Model: "AL300"},
	}}
	reg := NewRegistry(dir, false, 0)

	sess, ok := reg.Get("tcp", "1.2.3.4:5000", "123456789012345")
	assert.Assert(t, ok)
	assert.Equal(t, sess.DeviceID, int64(42))
	assert.Equal(t, sess.Model, "AL300")

	again, ok := reg.Get("tcp", "1.2.3.4:5000", "")
	assert.Assert(t, ok)
	assert.Equal(t, again, sess)
}

func TestRegistryUnknownDeviceNoAutoRegister(t *testing.T) {
	dir := &fakeDirectory{records: map[string]DeviceRecord{}}
	reg := NewRegistry(dir, false, 0)

	_, ok := reg.Get("tcp", "1.2.3.4:5000", "nobody")
	assert.Assert(t, !ok)
}

func TestRegistryAutoRegisterAssignsDeviceID(t *testing.T) {
	dir := &fakeDirectory{records: map[string]DeviceRecord{}}
	reg := NewRegistry(dir, true, 0)

	sess, ok := reg.Get("tcp", "1.2.3.4:5000", "new-device")
	assert.Assert(t, ok)
	assert.Assert(t, sess.DeviceID != 0)
}

func TestRegistryDefaultTimezone(t *testing.T) {
	dir := &fakeDirectory{records: map[string]DeviceRecord{"x": {DeviceID: 1}}}
	reg := NewRegistry(dir, false, 0)
	sess, _ := reg.Get("tcp", "addr", "x")
	name, offset := sess.Timezone().String(), 0
	_, offset = time.Now().In(sess.Timezone()).Zone()
	assert.Equal(t, name, DefaultTimezone)
	assert.Equal(t, offset, 8*60*60)
}

func TestRegistryExpireIdle(t *testing.T) {
	dir := &fakeDirectory{records: map[string]DeviceRecord{"x": {DeviceID: 1}}}
	reg := NewRegistry(dir, false, time.Millisecond)
	reg.Get("tcp", "addr", "x")

	reg.ExpireIdle(time.Now().Add(time.Hour))
	_, ok := reg.ByDeviceID(1)
	assert.Assert(t, !ok)
}

func TestSessionLastKnownLocation(t *testing.T) {
	dir := &fakeDirectory{records: map[string]DeviceRecord{"x": {DeviceID: 1}}}
	reg := NewRegistry(dir, false, 0)
	sess, _ := reg.Get("tcp", "addr", "x")

	last := newPositionForTest(10, 20)
	sess.UpdateLastKnown(last)

	heartbeat := newPositionForTest(0, 0)
	out := sess.LastKnownLocation(heartbeat, time.Now())
	assert.Equal(t, out.Latitude, 10.0)
	assert.Equal(t, out.Longitude, 20.0)
	assert.Assert(t, out.Outdated)
}
