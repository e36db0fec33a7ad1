// Package peer tracks the connections the replication engine talks to:
// their transport handle, authentication state, and per-peer replication
// bookkeeping. It is intentionally opaque to the engine's replication
// logic beyond the lookups it exposes.
package peer

import (
	"sync"
	"sync/atomic"

	"tundra/syncstate"
)

// TransportHandle is whatever a concrete transport uses to address a
// connection. The engine and Directory never interpret it.
type TransportHandle any

// Peer is one connected participant: a transport handle, whether it has
// completed authentication, and its replication bookkeeping.
type Peer struct {
	id        uint32
	handle    TransportHandle
	authed    atomic.Bool
	SyncState *syncstate.PeerSyncState
}

func newPeer(id uint32, handle TransportHandle) *Peer {
	return &Peer{
		id:        id,
		handle:    handle,
		SyncState: syncstate.NewPeerSyncState(),
	}
}

// Id returns the peer's directory-assigned id.
func (p *Peer) Id() uint32 { return p.id }

// Handle returns the transport handle this peer was created with.
func (p *Peer) Handle() TransportHandle { return p.handle }

// Authenticated reports whether the peer has completed authentication.
func (p *Peer) Authenticated() bool { return p.authed.Load() }

// SetAuthenticated marks the peer authenticated. Once authenticated a
// server accepts messages from it; see the intake validation rule.
func (p *Peer) SetAuthenticated(v bool) { p.authed.Store(v) }

// Directory is the peer registry: opaque to the replication engine
// beyond peers()/peer_by_connection()/peer_by_id().
type Directory struct {
	mu       sync.RWMutex
	byId     map[uint32]*Peer
	byHandle map[TransportHandle]*Peer
	nextId   uint32
}

// NewDirectory constructs an empty peer directory.
func NewDirectory() *Directory {
	return &Directory{
		byId:     make(map[uint32]*Peer),
		byHandle: make(map[TransportHandle]*Peer),
	}
}

// AddPeer registers a newly connected transport handle and returns the
// Peer created for it.
func (d *Directory) AddPeer(handle TransportHandle) *Peer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextId++
	p := newPeer(d.nextId, handle)
	d.byId[p.id] = p
	d.byHandle[handle] = p
	return p
}

// AddPeerWithId registers a peer whose id is already assigned by the
// transport (e.g. a QUIC connection's stable numeric id) rather than by
// the directory's own counter. The id doubles as the connection handle.
// Calling it again for an id already present returns the existing Peer.
func (d *Directory) AddPeerWithId(id uint32) *Peer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.byId[id]; ok {
		return p
	}
	p := newPeer(id, id)
	d.byId[id] = p
	d.byHandle[id] = p
	if id >= d.nextId {
		d.nextId = id + 1
	}
	return p
}

// RemovePeer drops a peer from the directory, e.g. on disconnection.
func (d *Directory) RemovePeer(p *Peer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byId, p.id)
	delete(d.byHandle, p.handle)
}

// Peers returns a snapshot of every currently registered peer.
func (d *Directory) Peers() []*Peer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Peer, 0, len(d.byId))
	for _, p := range d.byId {
		out = append(out, p)
	}
	return out
}

// PeerByConnection looks up a peer by its transport handle.
func (d *Directory) PeerByConnection(handle TransportHandle) (*Peer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byHandle[handle]
	return p, ok
}

// PeerById looks up a peer by its directory-assigned id.
func (d *Directory) PeerById(id uint32) (*Peer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byId[id]
	return p, ok
}
