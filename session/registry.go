package session

import (
	"sync"
	"time"
)

// DeviceRecord is what the out-of-scope device directory returns for a
// known unique id.
type DeviceRecord struct {
	DeviceID   int64
	Model      string
	Attributes map[string]any
}

// DeviceDirectory resolves a device-reported unique id (IMEI, TID, ...) to
// its internal identity. It is read-mostly; updates from the directory
// propagate eventually and the registry never blocks waiting on it.
type DeviceDirectory interface {
	Lookup(uniqueID string) (DeviceRecord, bool)
}

// Registry is the process-wide, concurrency-safe device-session table. It
// binds (channel, remoteAddress) tuples to a resolved Session so that
// subsequent messages on the same connection need not repeat their unique
// id, and it enforces a single Session per device across reconnects.
type Registry struct {
	directory    DeviceDirectory
	autoRegister bool
	idleTimeout  time.Duration

	mu        sync.Mutex
	byPeer    map[string]*Session
	byDevice  map[int64]*Session
	byUnique  map[string]*Session
	nextID    int64
}

func NewRegistry(directory DeviceDirectory, autoRegister bool, idleTimeout time.Duration) *Registry {
	return &Registry{
		directory:    directory,
		autoRegister: autoRegister,
		idleTimeout:  idleTimeout,
		byPeer:       make(map[string]*Session),
		byDevice:     make(map[int64]*Session),
		byUnique:     make(map[string]*Session),
	}
}

func peerKey(channel, remoteAddress string) string {
	return channel + "|" + remoteAddress
}

// Get resolves the Session for a (channel, remoteAddress) pair. When
// uniqueID is non-empty it is authoritative: the directory is consulted (or,
// failing that, a new device is minted if autoRegister is set), the
// resulting Session is rebound to this peer, and returned. An empty
// uniqueID falls back to whatever Session this peer was last bound to,
// returning ok=false if none exists yet.
func (r *Registry) Get(channel, remoteAddress, uniqueID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if uniqueID == "" {
		sess, ok := r.byPeer[peerKey(channel, remoteAddress)]
		return sess, ok
	}

	if sess, ok := r.byUnique[uniqueID]; ok {
		r.byPeer[peerKey(channel, remoteAddress)] = sess
		sess.touch()
		return sess, true
	}

	rec, known := r.directory.Lookup(uniqueID)
	switch {
	case known:
	case r.autoRegister:
		r.nextID--
		rec = DeviceRecord{DeviceID: r.nextID}
	default:
		return nil, false
	}

	sess := newSession(rec.DeviceID, uniqueID, rec.Model)
	for k, v := range rec.Attributes {
		sess.attributes[k] = v
	}
	r.byDevice[rec.DeviceID] = sess
	r.byUnique[uniqueID] = sess
	r.byPeer[peerKey(channel, remoteAddress)] = sess
	return sess, true
}

// Unbind removes the peer binding on connection close. The Session itself
// (and its last-known location) survives so a reconnect under the same
// uniqueID picks up where it left off.
func (r *Registry) Unbind(channel, remoteAddress string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byPeer, peerKey(channel, remoteAddress))
}

// ExpireIdle drops sessions that have not been touched within the
// registry's idle timeout, along with any peer bindings pointing at them.
func (r *Registry) ExpireIdle(now time.Time) {
	if r.idleTimeout <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.byDevice {
		if sess.idleSince(now) <= r.idleTimeout {
			continue
		}
		delete(r.byDevice, id)
		delete(r.byUnique, sess.UniqueID)
		for peer, bound := range r.byPeer {
			if bound == sess {
				delete(r.byPeer, peer)
			}
		}
	}
}

// ByDeviceID looks up a Session directly, for the command dispatcher.
func (r *Registry) ByDeviceID(deviceID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byDevice[deviceID]
	return sess, ok
}

// NoopDirectory never recognizes a uniqueId; useful when running the
// gateway without a real device directory, relying entirely on the
// registry's autoRegister fallback to mint device ids on first contact.
type NoopDirectory struct{}

func (NoopDirectory) Lookup(uniqueID string) (DeviceRecord, bool) {
	return DeviceRecord{}, false
}
