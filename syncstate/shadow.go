// Package syncstate tracks, per peer, which entities and components are
// dirty or removed and holds the delta baseline ("shadow") for every
// component that peer has been sent.
package syncstate

import "tundra/scene"

// ComponentShadow is the last full byte serialization sent to a peer for
// one component. An empty shadow means the component was never sent as
// full state, so the next send must be a CreateComponents rather than a
// delta.
type ComponentShadow struct {
	Bytes []byte
}

// Empty reports whether no full state has been captured yet.
func (s ComponentShadow) Empty() bool {
	return len(s.Bytes) == 0
}

// EntitySyncState is the per-peer, per-entity bookkeeping: which
// components are pending a send, which have been removed since the last
// flush, and the shadow baseline for every component the peer already
// knows about.
type EntitySyncState struct {
	Id scene.EntityId

	dirtyComponents   map[scene.ComponentKey]struct{}
	removedComponents map[scene.ComponentKey]struct{}
	shadows           map[scene.ComponentKey]ComponentShadow
}

func newEntitySyncState(id scene.EntityId) *EntitySyncState {
	return &EntitySyncState{
		Id:                id,
		dirtyComponents:   make(map[scene.ComponentKey]struct{}),
		removedComponents: make(map[scene.ComponentKey]struct{}),
		shadows:           make(map[scene.ComponentKey]ComponentShadow),
	}
}

// MarkComponentDirty records that a component changed and must be sent.
func (e *EntitySyncState) MarkComponentDirty(key scene.ComponentKey) {
	e.dirtyComponents[key] = struct{}{}
}

// MarkComponentRemoved moves a component into the removed set and drops
// any pending dirty mark for it.
func (e *EntitySyncState) MarkComponentRemoved(key scene.ComponentKey) {
	delete(e.dirtyComponents, key)
	e.removedComponents[key] = struct{}{}
}

// AckDirtyComponent clears a component's dirty mark after it has been
// sent.
func (e *EntitySyncState) AckDirtyComponent(key scene.ComponentKey) {
	delete(e.dirtyComponents, key)
}

// AckRemovedComponent clears a component's removed mark after the
// removal has been sent.
func (e *EntitySyncState) AckRemovedComponent(key scene.ComponentKey) {
	delete(e.removedComponents, key)
}

// DirtyComponents returns a snapshot of the currently dirty component
// keys.
func (e *EntitySyncState) DirtyComponents() []scene.ComponentKey {
	out := make([]scene.ComponentKey, 0, len(e.dirtyComponents))
	for k := range e.dirtyComponents {
		out = append(out, k)
	}
	return out
}

// RemovedComponents returns a snapshot of the currently removed
// component keys.
func (e *EntitySyncState) RemovedComponents() []scene.ComponentKey {
	out := make([]scene.ComponentKey, 0, len(e.removedComponents))
	for k := range e.removedComponents {
		out = append(out, k)
	}
	return out
}

// Shadow returns the current baseline for key, if any.
func (e *EntitySyncState) Shadow(key scene.ComponentKey) (ComponentShadow, bool) {
	s, ok := e.shadows[key]
	return s, ok
}

// SetShadow records the full bytes most recently sent for key. This is
// the peer's delta baseline going forward.
func (e *EntitySyncState) SetShadow(key scene.ComponentKey, fullBytes []byte) {
	cp := make([]byte, len(fullBytes))
	copy(cp, fullBytes)
	e.shadows[key] = ComponentShadow{Bytes: cp}
}

// DropShadow discards the baseline for key, e.g. after the component is
// removed.
func (e *EntitySyncState) DropShadow(key scene.ComponentKey) {
	delete(e.shadows, key)
}

// IsClean reports whether the entity has no pending dirty or removed
// component marks.
func (e *EntitySyncState) IsClean() bool {
	return len(e.dirtyComponents) == 0 && len(e.removedComponents) == 0
}
