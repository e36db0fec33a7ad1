package syncstate

import (
	"sync"

	"tundra/scene"
)

// PeerSyncState is the replication bookkeeping the engine keeps for one
// peer: which entities are dirty or newly removed, in the order they
// became so, plus each entity's EntitySyncState (dirty/removed
// components and delta shadows).
//
// A nil EntitySyncState for a dirty id means the peer has never heard of
// that entity: the next flush must send a full CreateEntity rather than
// an incremental update.
type PeerSyncState struct {
	mu sync.Mutex

	dirtyOrder []scene.EntityId
	dirty      map[scene.EntityId]struct{}

	removedOrder []scene.EntityId
	removed      map[scene.EntityId]struct{}

	entities map[scene.EntityId]*EntitySyncState
}

// NewPeerSyncState constructs an empty per-peer replication record.
func NewPeerSyncState() *PeerSyncState {
	return &PeerSyncState{
		dirty:    make(map[scene.EntityId]struct{}),
		removed:  make(map[scene.EntityId]struct{}),
		entities: make(map[scene.EntityId]*EntitySyncState),
	}
}

func (p *PeerSyncState) markDirtyLocked(id scene.EntityId) {
	if _, ok := p.dirty[id]; ok {
		return
	}
	p.dirty[id] = struct{}{}
	p.dirtyOrder = append(p.dirtyOrder, id)
}

// OnEntityChanged adds id to the dirty set.
func (p *PeerSyncState) OnEntityChanged(id scene.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markDirtyLocked(id)
}

// OnComponentChanged ensures id is dirty and key is marked dirty on its
// EntitySyncState (when one already exists; a missing EntitySyncState
// means the whole entity will be sent fresh, which already covers this
// component).
func (p *PeerSyncState) OnComponentChanged(id scene.EntityId, key scene.ComponentKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markDirtyLocked(id)
	if es, ok := p.entities[id]; ok {
		es.MarkComponentDirty(key)
	}
}

// OnComponentRemoved marks key removed on id's EntitySyncState, if one
// exists.
func (p *PeerSyncState) OnComponentRemoved(id scene.EntityId, key scene.ComponentKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if es, ok := p.entities[id]; ok {
		es.MarkComponentRemoved(key)
		es.DropShadow(key)
	}
}

// OnEntityRemoved adds id to the removed set, drops it from the dirty
// set, and discards its EntitySyncState.
func (p *PeerSyncState) OnEntityRemoved(id scene.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.dirty[id]; ok {
		delete(p.dirty, id)
		p.dirtyOrder = removeId(p.dirtyOrder, id)
	}
	if _, ok := p.removed[id]; !ok {
		p.removed[id] = struct{}{}
		p.removedOrder = append(p.removedOrder, id)
	}
	delete(p.entities, id)
}

// AckDirtyEntity clears id's dirty mark after a successful send.
func (p *PeerSyncState) AckDirtyEntity(id scene.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.dirty[id]; !ok {
		return
	}
	delete(p.dirty, id)
	p.dirtyOrder = removeId(p.dirtyOrder, id)
}

// AckDirtyComponent clears key's dirty mark on id's EntitySyncState.
func (p *PeerSyncState) AckDirtyComponent(id scene.EntityId, key scene.ComponentKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if es, ok := p.entities[id]; ok {
		es.AckDirtyComponent(key)
	}
}

// AckRemovedEntity clears id's removed mark.
func (p *PeerSyncState) AckRemovedEntity(id scene.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.removed[id]; !ok {
		return
	}
	delete(p.removed, id)
	p.removedOrder = removeId(p.removedOrder, id)
}

// AckRemovedComponent clears key's removed mark on id's EntitySyncState.
func (p *PeerSyncState) AckRemovedComponent(id scene.EntityId, key scene.ComponentKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if es, ok := p.entities[id]; ok {
		es.AckRemovedComponent(key)
	}
}

// GetOrCreateEntity returns id's EntitySyncState, creating an empty one
// if this is the first time the peer has been told about id.
func (p *PeerSyncState) GetOrCreateEntity(id scene.EntityId) *EntitySyncState {
	p.mu.Lock()
	defer p.mu.Unlock()
	es, ok := p.entities[id]
	if !ok {
		es = newEntitySyncState(id)
		p.entities[id] = es
	}
	return es
}

// GetEntity looks up id's EntitySyncState without creating one.
func (p *PeerSyncState) GetEntity(id scene.EntityId) (*EntitySyncState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	es, ok := p.entities[id]
	return es, ok
}

// Forget discards every mark and the EntitySyncState for id without
// scheduling an outgoing RemoveEntity. Used when a removal for id
// arrived from this same peer, so echoing it back would be redundant.
func (p *PeerSyncState) Forget(id scene.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.dirty[id]; ok {
		delete(p.dirty, id)
		p.dirtyOrder = removeId(p.dirtyOrder, id)
	}
	if _, ok := p.removed[id]; ok {
		delete(p.removed, id)
		p.removedOrder = removeId(p.removedOrder, id)
	}
	delete(p.entities, id)
}

// Relocate moves all bookkeeping tracked under oldID to newID. Used on
// the client side after an EntityIdCollision reply renames a
// just-created entity, so future updates reference the server's id.
func (p *PeerSyncState) Relocate(oldID, newID scene.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if es, ok := p.entities[oldID]; ok {
		delete(p.entities, oldID)
		es.Id = newID
		p.entities[newID] = es
	}
	if _, ok := p.dirty[oldID]; ok {
		delete(p.dirty, oldID)
		p.dirty[newID] = struct{}{}
		for i, id := range p.dirtyOrder {
			if id == oldID {
				p.dirtyOrder[i] = newID
			}
		}
	}
	if _, ok := p.removed[oldID]; ok {
		delete(p.removed, oldID)
		p.removed[newID] = struct{}{}
		for i, id := range p.removedOrder {
			if id == oldID {
				p.removedOrder[i] = newID
			}
		}
	}
}

// DirtyEntitiesInOrder returns the ids currently marked dirty, in the
// order they were first marked.
func (p *PeerSyncState) DirtyEntitiesInOrder() []scene.EntityId {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]scene.EntityId, len(p.dirtyOrder))
	copy(out, p.dirtyOrder)
	return out
}

// RemovedEntitiesInOrder returns the ids currently marked removed, in
// the order they were first marked.
func (p *PeerSyncState) RemovedEntitiesInOrder() []scene.EntityId {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]scene.EntityId, len(p.removedOrder))
	copy(out, p.removedOrder)
	return out
}

// Clear resets the peer's replication state entirely, discarding all
// dirty/removed marks and every shadow. Used when a peer disconnects.
func (p *PeerSyncState) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirtyOrder = nil
	p.dirty = make(map[scene.EntityId]struct{})
	p.removedOrder = nil
	p.removed = make(map[scene.EntityId]struct{})
	p.entities = make(map[scene.EntityId]*EntitySyncState)
}

// MarkAllDirty marks every id in ids as dirty, in the order given. Used
// to onboard a newly authenticated peer with the full current scene.
func (p *PeerSyncState) MarkAllDirty(ids []scene.EntityId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.markDirtyLocked(id)
	}
}

// IsClean reports whether there is no pending dirty or removed work for
// this peer at all.
func (p *PeerSyncState) IsClean() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.dirty) != 0 || len(p.removed) != 0 {
		return false
	}
	for _, es := range p.entities {
		if !es.IsClean() {
			return false
		}
	}
	return true
}

func removeId(ids []scene.EntityId, target scene.EntityId) []scene.EntityId {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
