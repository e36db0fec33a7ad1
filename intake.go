package tundra

import (
	"tundra/scene"
	"tundra/wire"
)

// validate implements the intake acceptance rule: a local-only entity id
// is always rejected; a client trusts the server unconditionally; a
// server accepts only from a known, authenticated peer.
func (m *SyncManager) validate(peerID uint32, entityId scene.EntityId) error {
	if entityId.IsLocalOnly() {
		return newEngineError(KindProtocolViolation, ErrLocalOnlyEntityReferenced)
	}
	if entityId == 0 {
		return newEngineError(KindProtocolViolation, ErrZeroEntityId)
	}
	if m.role == RoleClient {
		return nil
	}
	p, ok := m.directory.PeerById(peerID)
	if !ok {
		return newEngineError(KindProtocolViolation, ErrUnknownPeer)
	}
	if !p.Authenticated() {
		return newEngineError(KindProtocolViolation, ErrUnauthenticatedPeer)
	}
	return nil
}

func (m *SyncManager) warnDiscard(peerID uint32, err error) {
	m.log.Warn("message discarded", "peer", peerID, "err", err)
}

// processMessage decodes one received payload and dispatches it by kind.
// An unrecognised leading kind byte is a ProtocolViolation; any other
// decode failure is a CodecError against the whole envelope. Either way
// the message is dropped, but nothing else is affected.
func (m *SyncManager) processMessage(peerID uint32, payload []byte) {
	kind, decoded, err := wire.Decode(payload)
	if err != nil {
		if len(payload) > 0 && kind.String() == "Unknown" {
			m.warnDiscard(peerID, newEngineError(KindProtocolViolation, ErrUnknownMessageKind))
			return
		}
		m.log.Error("codec error decoding message", "peer", peerID, "err", err)
		return
	}

	switch kind {
	case wire.KindCreateEntity:
		m.handleCreateEntity(peerID, decoded.(*wire.CreateEntityMsg))
	case wire.KindRemoveEntity:
		m.handleRemoveEntity(peerID, decoded.(*wire.RemoveEntityMsg))
	case wire.KindCreateComponents:
		msg := decoded.(*wire.CreateComponentsMsg)
		m.applyComponents(peerID, msg.EntityId, msg.Components, false)
	case wire.KindUpdateComponents:
		msg := decoded.(*wire.UpdateComponentsMsg)
		m.applyComponents(peerID, msg.EntityId, msg.Components, true)
	case wire.KindRemoveComponents:
		m.handleRemoveComponents(peerID, decoded.(*wire.RemoveComponentsMsg))
	case wire.KindEntityIdCollision:
		m.handleEntityIdCollision(peerID, decoded.(*wire.EntityIdCollisionMsg))
	default:
		m.warnDiscard(peerID, newEngineError(KindProtocolViolation, ErrUnknownMessageKind))
	}
}

func (m *SyncManager) handleCreateEntity(peerID uint32, msg *wire.CreateEntityMsg) {
	if err := m.validate(peerID, msg.EntityId); err != nil {
		m.warnDiscard(peerID, err)
		return
	}

	entityId := msg.EntityId
	if m.role == RoleServer {
		if _, exists := m.world.GetEntity(entityId); exists {
			newId, err := m.world.NextFreeId()
			if err != nil {
				m.log.Error("resource exhaustion allocating collision id", "peer", peerID, "err", err)
				return
			}
			collision := &wire.EntityIdCollisionMsg{OldEntityId: entityId, NewEntityId: newId}
			buf, err := wire.Encode(collision)
			if err == nil {
				if err := m.transport.Send(peerID, buf); err != nil {
					m.log.Warn("transport error sending collision reply", "peer", peerID, "err", err)
				}
			}
			entityId = newId
		}
	} else {
		if _, exists := m.world.GetEntity(entityId); exists {
			_ = m.world.RemoveEntity(entityId, scene.OriginNetwork)
			if target := m.peerForIntake(peerID); target != nil {
				target.SyncState.Forget(entityId)
			}
		}
	}

	origin := m.roleOrigin()

	m.beginApplyingFrom(peerID)
	defer m.endApplyingFrom()

	if _, err := m.world.CreateEntityWithId(entityId, origin); err != nil {
		m.log.Error("resource exhaustion creating entity", "peer", peerID, "entity", entityId, "err", err)
		return
	}

	target := m.peerForIntake(peerID)
	for _, cb := range msg.Components {
		comp, err := m.world.GetOrCreateComponent(entityId, cb.TypeHash, cb.Name, origin)
		if err != nil {
			m.log.Error("codec error materializing component", "entity", entityId, "type_hash", cb.TypeHash, "err", err)
			continue
		}
		if err := decodeComponentFull(comp, cb.Data); err != nil {
			m.log.Error("codec error decoding component", "entity", entityId, "type_hash", cb.TypeHash, "err", err)
			continue
		}
		_ = m.world.NotifyComponentChanged(entityId, scene.Key(comp), origin)
		if target != nil {
			target.SyncState.GetOrCreateEntity(entityId).SetShadow(scene.Key(comp), cb.Data)
		}
	}
}

// applyComponents backs both CreateComponents (full bodies) and
// UpdateComponents (delta bodies); the spec treats their intake
// identically apart from the decode strategy.
func (m *SyncManager) applyComponents(peerID uint32, entityId scene.EntityId, bodies []wire.ComponentBody, isDelta bool) {
	if err := m.validate(peerID, entityId); err != nil {
		m.warnDiscard(peerID, err)
		return
	}

	origin := m.roleOrigin()

	entity, ok := m.world.GetEntity(entityId)
	if !ok {
		var err error
		entity, err = m.world.CreateEntityWithId(entityId, origin)
		if err != nil {
			m.log.Error("resource exhaustion recovering entity", "peer", peerID, "entity", entityId, "err", err)
			return
		}
	}

	m.beginApplyingFrom(peerID)
	defer m.endApplyingFrom()

	target := m.peerForIntake(peerID)
	for _, cb := range bodies {
		comp, err := m.world.GetOrCreateComponent(entityId, cb.TypeHash, cb.Name, origin)
		if err != nil {
			m.log.Error("codec error materializing component", "entity", entityId, "type_hash", cb.TypeHash, "err", err)
			continue
		}
		if isDelta {
			err = decodeComponentDelta(comp, cb.Data)
		} else {
			err = decodeComponentFull(comp, cb.Data)
		}
		if err != nil {
			m.log.Error("codec error decoding component", "entity", entityId, "type_hash", cb.TypeHash, "err", err)
			continue
		}
		_ = m.world.NotifyComponentChanged(entityId, scene.Key(comp), origin)
		if target != nil {
			if full, err := encodeComponentFull(comp); err == nil {
				target.SyncState.GetOrCreateEntity(entityId).SetShadow(scene.Key(comp), full)
			}
		}
	}

	if origin == scene.OriginNetwork {
		entity.ResetOrigin()
	}
}

func (m *SyncManager) handleRemoveComponents(peerID uint32, msg *wire.RemoveComponentsMsg) {
	if err := m.validate(peerID, msg.EntityId); err != nil {
		m.warnDiscard(peerID, err)
		return
	}

	origin := m.roleOrigin()

	m.beginApplyingFrom(peerID)
	defer m.endApplyingFrom()

	target := m.peerForIntake(peerID)
	for _, k := range msg.Components {
		key := scene.ComponentKey{TypeHash: k.TypeHash, Name: k.Name}
		if err := m.world.RemoveComponent(msg.EntityId, key, origin); err != nil {
			m.log.Warn("remove component failed", "entity", msg.EntityId, "type_hash", k.TypeHash, "err", err)
			continue
		}
		if target != nil {
			if es, ok := target.SyncState.GetEntity(msg.EntityId); ok {
				es.DropShadow(key)
				es.AckDirtyComponent(key)
				es.AckRemovedComponent(key)
			}
		}
	}
}

func (m *SyncManager) handleRemoveEntity(peerID uint32, msg *wire.RemoveEntityMsg) {
	if err := m.validate(peerID, msg.EntityId); err != nil {
		m.warnDiscard(peerID, err)
		return
	}

	origin := m.roleOrigin()

	m.beginApplyingFrom(peerID)
	defer m.endApplyingFrom()

	if err := m.world.RemoveEntity(msg.EntityId, origin); err != nil {
		m.log.Warn("remove entity failed", "entity", msg.EntityId, "err", err)
	}
	if target := m.peerForIntake(peerID); target != nil {
		target.SyncState.Forget(msg.EntityId)
	}
}

func (m *SyncManager) handleEntityIdCollision(peerID uint32, msg *wire.EntityIdCollisionMsg) {
	if m.role == RoleServer {
		m.warnDiscard(peerID, newEngineError(KindProtocolViolation, ErrCollisionFromServer))
		return
	}

	if err := m.world.ChangeEntityId(msg.OldEntityId, msg.NewEntityId); err != nil {
		m.log.Warn("change entity id failed", "old", msg.OldEntityId, "new", msg.NewEntityId, "err", err)
		return
	}
	if target := m.peerForIntake(peerID); target != nil {
		target.SyncState.Relocate(msg.OldEntityId, msg.NewEntityId)
	}
}
