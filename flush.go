package tundra

import (
	"tundra/peer"
	"tundra/scene"
	"tundra/syncstate"
	"tundra/wire"
)

// flushAll runs one flush per eligible peer: server flushes every
// authenticated peer, client flushes the single server peer.
func (m *SyncManager) flushAll() {
	if m.role == RoleClient {
		if !m.hasServerPeer {
			return
		}
		if p, ok := m.directory.PeerById(m.serverPeerID); ok {
			m.flushPeer(p)
		}
		return
	}

	for _, p := range m.directory.Peers() {
		if !p.Authenticated() {
			continue
		}
		m.flushPeer(p)
	}
}

// flushPeer implements §4.5's Flush: dirty entities (in the order they
// became dirty) first, each as CreateEntity or a
// CreateComponents/UpdateComponents/RemoveComponents triplet, then
// removed entities.
func (m *SyncManager) flushPeer(p *peer.Peer) {
	ps := p.SyncState

	for _, id := range ps.DirtyEntitiesInOrder() {
		m.flushDirtyEntity(p, id)
	}
	for _, id := range ps.RemovedEntitiesInOrder() {
		m.sendRemoveEntity(p, id)
		ps.AckRemovedEntity(id)
	}
}

func (m *SyncManager) flushDirtyEntity(p *peer.Peer, id scene.EntityId) {
	ps := p.SyncState
	entity, ok := m.world.GetEntity(id)
	if !ok {
		// Entity vanished before this peer's dirty mark could be sent;
		// nothing to do beyond acknowledging it.
		ps.AckDirtyEntity(id)
		return
	}

	es, known := ps.GetEntity(id)
	if !known {
		m.sendCreateEntity(p, id, entity)
		ps.AckDirtyEntity(id)
		return
	}

	m.sendCreateAndUpdateComponents(p, id, entity, es)
	m.sendRemovedComponents(p, id, es)
	ps.AckDirtyEntity(id)
}

func (m *SyncManager) sendCreateEntity(p *peer.Peer, id scene.EntityId, entity *scene.Entity) {
	es := p.SyncState.GetOrCreateEntity(id)

	var bodies []wire.ComponentBody
	for _, comp := range entity.Components() {
		if !scene.Replicates(comp) {
			continue
		}
		data, err := encodeComponentFull(comp)
		if err != nil {
			m.log.Error("codec error encoding component", "entity", id, "type_hash", comp.TypeHash(), "err", err)
			continue
		}
		bodies = append(bodies, wire.ComponentBody{TypeHash: comp.TypeHash(), Name: comp.Name(), Data: data})
		es.SetShadow(scene.Key(comp), data)
	}

	m.send(p, &wire.CreateEntityMsg{EntityId: id, Components: bodies})
}

func (m *SyncManager) sendCreateAndUpdateComponents(p *peer.Peer, id scene.EntityId, entity *scene.Entity, es *syncstate.EntitySyncState) {
	var createBodies, updateBodies []wire.ComponentBody

	for _, key := range es.DirtyComponents() {
		comp, ok := entity.Component(key)
		if !ok || !scene.Replicates(comp) {
			es.AckDirtyComponent(key)
			continue
		}

		shadow, hasShadow := es.Shadow(key)
		if !hasShadow || shadow.Empty() {
			data, err := encodeComponentFull(comp)
			if err != nil {
				m.log.Error("codec error encoding component", "entity", id, "type_hash", key.TypeHash, "err", err)
				es.AckDirtyComponent(key)
				continue
			}
			createBodies = append(createBodies, wire.ComponentBody{TypeHash: key.TypeHash, Name: key.Name, Data: data})
			es.SetShadow(key, data)
		} else {
			delta, changed, err := encodeComponentDelta(comp, shadow.Bytes)
			if err != nil {
				m.log.Error("codec error encoding delta", "entity", id, "type_hash", key.TypeHash, "err", err)
				es.AckDirtyComponent(key)
				continue
			}
			if changed {
				updateBodies = append(updateBodies, wire.ComponentBody{TypeHash: key.TypeHash, Name: key.Name, Data: delta})
				if full, err := encodeComponentFull(comp); err == nil {
					es.SetShadow(key, full)
				}
			}
		}
		es.AckDirtyComponent(key)
	}

	if len(createBodies) > 0 {
		m.send(p, &wire.CreateComponentsMsg{EntityId: id, Components: createBodies})
	}
	if len(updateBodies) > 0 {
		m.send(p, &wire.UpdateComponentsMsg{EntityId: id, Components: updateBodies})
	}
}

func (m *SyncManager) sendRemovedComponents(p *peer.Peer, id scene.EntityId, es *syncstate.EntitySyncState) {
	removed := es.RemovedComponents()
	if len(removed) == 0 {
		return
	}

	keys := make([]wire.ComponentKeyOnly, 0, len(removed))
	for _, key := range removed {
		keys = append(keys, wire.ComponentKeyOnly{TypeHash: key.TypeHash, Name: key.Name})
		es.DropShadow(key)
		es.AckRemovedComponent(key)
	}

	m.send(p, &wire.RemoveComponentsMsg{EntityId: id, Components: keys})
}

func (m *SyncManager) sendRemoveEntity(p *peer.Peer, id scene.EntityId) {
	m.send(p, &wire.RemoveEntityMsg{EntityId: id})
}

func (m *SyncManager) send(p *peer.Peer, msg any) {
	buf, err := wire.Encode(msg)
	if err != nil {
		m.log.Error("codec error encoding message", "peer", p.Id(), "err", err)
		return
	}
	if err := m.transport.Send(p.Id(), buf); err != nil {
		m.log.Warn("transport error sending message", "peer", p.Id(), "err", err)
	}
}
