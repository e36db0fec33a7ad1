package tundra

import (
	"sync"
	"time"

	"tundra/axlog"
	"tundra/peer"
	"tundra/scene"
	"tundra/syncstate"
)

// MinUpdatePeriod is the floor NewSyncManager clamps updatePeriod to: at
// most 100 Hz.
const MinUpdatePeriod = 10 * time.Millisecond

// DefaultUpdatePeriod is used by NewSyncManager callers that don't have
// an opinion.
const DefaultUpdatePeriod = 40 * time.Millisecond

// SyncManager is the replication engine: it subscribes to a scene's
// change notifications, tracks per-peer dirty state, and drives a
// delta-encoded flush on a fixed tick.
//
// The engine is single-threaded by design: Tick, and everything it
// calls, must run on one goroutine (the host frame loop). The only
// concurrency-safe entry points are Deliver and the transport lifecycle
// callbacks registered by NewSyncManager, which merely enqueue work to
// be drained at the top of the next Tick.
type SyncManager struct {
	role      Role
	world     *scene.World
	directory *peer.Directory
	transport Transport
	log       axlog.Logger

	updatePeriod time.Duration
	accumulator  time.Duration

	serverPeerID  uint32
	hasServerPeer bool

	applyingFromPeer    uint32
	applyingFromPeerSet bool

	qmu   sync.Mutex
	queue []inboundEvent
}

type eventKind int

const (
	eventPeerConnected eventKind = iota
	eventPeerAuthenticated
	eventPeerDisconnected
	eventMessage
)

type inboundEvent struct {
	kind    eventKind
	peerID  uint32
	payload []byte
}

// NewSyncManager wires an engine to a scene and transport. It subscribes
// to the scene immediately and registers itself for every transport
// lifecycle callback.
func NewSyncManager(role Role, world *scene.World, directory *peer.Directory, transport Transport, log axlog.Logger, updatePeriod time.Duration) *SyncManager {
	if updatePeriod < MinUpdatePeriod {
		updatePeriod = MinUpdatePeriod
	}
	if log == nil {
		log = axlog.Noop()
	}
	m := &SyncManager{
		role:         role,
		world:        world,
		directory:    directory,
		transport:    transport,
		log:          log,
		updatePeriod: updatePeriod,
	}

	world.Subscribe(m.onSceneChange)

	transport.OnMessage(func(peerID uint32, payload []byte) {
		m.enqueue(inboundEvent{kind: eventMessage, peerID: peerID, payload: payload})
	})
	transport.OnPeerConnected(func(peerID uint32) {
		m.enqueue(inboundEvent{kind: eventPeerConnected, peerID: peerID})
	})
	transport.OnPeerAuthenticated(func(peerID uint32) {
		m.enqueue(inboundEvent{kind: eventPeerAuthenticated, peerID: peerID})
	})
	transport.OnPeerDisconnected(func(peerID uint32) {
		m.enqueue(inboundEvent{kind: eventPeerDisconnected, peerID: peerID})
	})

	return m
}

// Deliver hands a received payload to the engine. Safe to call from any
// goroutine; the message is queued and applied on the next Tick.
func (m *SyncManager) Deliver(peerID uint32, payload []byte) {
	m.enqueue(inboundEvent{kind: eventMessage, peerID: peerID, payload: payload})
}

func (m *SyncManager) enqueue(e inboundEvent) {
	m.qmu.Lock()
	m.queue = append(m.queue, e)
	m.qmu.Unlock()
}

func (m *SyncManager) drainQueue() []inboundEvent {
	m.qmu.Lock()
	drained := m.queue
	m.queue = nil
	m.qmu.Unlock()
	return drained
}

// Tick advances the engine by frame_dt: it applies every queued inbound
// event in arrival order, then accumulates frame_dt and runs at most one
// flush, regardless of how many update periods the accumulator crossed.
func (m *SyncManager) Tick(frameDt time.Duration) {
	for _, e := range m.drainQueue() {
		switch e.kind {
		case eventPeerConnected:
			m.handlePeerConnected(e.peerID)
		case eventPeerAuthenticated:
			m.handlePeerAuthenticated(e.peerID)
		case eventPeerDisconnected:
			m.handlePeerDisconnected(e.peerID)
		case eventMessage:
			m.processMessage(e.peerID, e.payload)
		}
	}

	m.accumulator += frameDt
	crossed := false
	for m.accumulator >= m.updatePeriod {
		m.accumulator -= m.updatePeriod
		crossed = true
	}
	if crossed {
		m.flushAll()
	}
}

func (m *SyncManager) handlePeerConnected(peerID uint32) {
	p := m.directory.AddPeerWithId(peerID)
	m.log.Info("peer connected", "peer", peerID)
	if m.role == RoleClient {
		m.serverPeerID = peerID
		m.hasServerPeer = true
		m.onboardPeer(p)
	}
}

func (m *SyncManager) handlePeerAuthenticated(peerID uint32) {
	p, ok := m.directory.PeerById(peerID)
	if !ok {
		return
	}
	p.SetAuthenticated(true)
	m.log.Info("peer authenticated", "peer", peerID)
	if m.role == RoleServer {
		m.onboardPeer(p)
	}
}

func (m *SyncManager) handlePeerDisconnected(peerID uint32) {
	p, ok := m.directory.PeerById(peerID)
	if !ok {
		return
	}
	p.SyncState.Clear()
	m.directory.RemovePeer(p)
	if m.role == RoleClient && peerID == m.serverPeerID {
		m.hasServerPeer = false
	}
	m.log.Info("peer disconnected", "peer", peerID)
}

// onboardPeer marks every replicable entity currently in the scene dirty
// for p, so the next flush sends the full scene as CreateEntity
// messages. Entities().sorted-ascending means the local-only bit (the
// high bit) sorts every local-only id after every replicable one, so the
// scan can stop at the first one it sees.
func (m *SyncManager) onboardPeer(p *peer.Peer) {
	var ids []scene.EntityId
	for _, e := range m.world.Entities() {
		if e.Id().IsLocalOnly() {
			break
		}
		ids = append(ids, e.Id())
	}
	p.SyncState.MarkAllDirty(ids)
}

func (m *SyncManager) roleOrigin() scene.ChangeOrigin {
	if m.role == RoleServer {
		return scene.OriginLocal
	}
	return scene.OriginNetwork
}

func (m *SyncManager) beginApplyingFrom(peerID uint32) {
	m.applyingFromPeer = peerID
	m.applyingFromPeerSet = true
}

func (m *SyncManager) endApplyingFrom() {
	m.applyingFromPeerSet = false
}

// peerForIntake returns the Peer whose PeerSyncState tracks what the
// message's originator already holds: on the server, the sender itself;
// on the client, the single server peer regardless of the wire peerID
// the transport reports (a client only ever has one counterparty).
func (m *SyncManager) peerForIntake(peerID uint32) *peer.Peer {
	if m.role == RoleClient {
		p, _ := m.directory.PeerById(m.serverPeerID)
		return p
	}
	p, _ := m.directory.PeerById(peerID)
	return p
}

// onSceneChange is the scene subscription: the sole entry point turning
// local mutations into per-peer dirty marks. Origins other than Local,
// and local-only entities, are echo-suppressed here per the design's
// single cycle-breaking rule.
func (m *SyncManager) onSceneChange(c scene.Change) {
	if c.EntityId.IsLocalOnly() {
		return
	}
	if c.Origin != scene.OriginLocal {
		return
	}

	switch c.Kind {
	case scene.EntityCreated:
		m.forEachTargetPeer(func(ps *syncstate.PeerSyncState) {
			ps.OnEntityChanged(c.EntityId)
		})
	case scene.EntityRemoved:
		m.forEachTargetPeer(func(ps *syncstate.PeerSyncState) {
			ps.OnEntityRemoved(c.EntityId)
		})
	case scene.ComponentAdded, scene.ComponentChanged:
		if c.ComponentKey == nil {
			return
		}
		comp, ok := m.componentFor(c.EntityId, *c.ComponentKey)
		if !ok || !scene.Replicates(comp) {
			return
		}
		m.forEachTargetPeer(func(ps *syncstate.PeerSyncState) {
			ps.OnComponentChanged(c.EntityId, *c.ComponentKey)
		})
	case scene.ComponentRemoved:
		if c.ComponentKey == nil {
			return
		}
		m.forEachTargetPeer(func(ps *syncstate.PeerSyncState) {
			ps.OnComponentRemoved(c.EntityId, *c.ComponentKey)
		})
	case scene.EntityIdChanged:
		// Never a wire-facing replication event on its own; the client
		// intake path relocates PeerSyncState bookkeeping directly.
	}
}

func (m *SyncManager) componentFor(id scene.EntityId, key scene.ComponentKey) (scene.Component, bool) {
	e, ok := m.world.GetEntity(id)
	if !ok {
		return nil, false
	}
	return e.Component(key)
}

// forEachTargetPeer invokes fn for every PeerSyncState eligible to
// receive replication traffic right now: every authenticated peer on the
// server (except the one whose message is currently being applied, the
// self-echo suppression rule), or the single server peer on the client.
func (m *SyncManager) forEachTargetPeer(fn func(*syncstate.PeerSyncState)) {
	if m.role == RoleClient {
		if !m.hasServerPeer {
			return
		}
		p, ok := m.directory.PeerById(m.serverPeerID)
		if !ok {
			return
		}
		fn(p.SyncState)
		return
	}

	for _, p := range m.directory.Peers() {
		if !p.Authenticated() {
			continue
		}
		if m.applyingFromPeerSet && p.Id() == m.applyingFromPeer {
			continue
		}
		fn(p.SyncState)
	}
}
