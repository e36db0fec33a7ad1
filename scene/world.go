package scene

import (
	"sort"
	"sync"
)

// ComponentFactory constructs a fresh, zero-valued component for a given
// wire name once its type_hash has been registered.
type ComponentFactory func(name string) Component

// World is the entity-component graph the replication engine observes
// and mutates. Every mutation emits a Change notification to registered
// subscribers, synchronously, before the mutating method returns.
type World struct {
	mu sync.RWMutex

	entities map[EntityId]*Entity
	nextId   EntityId

	factories map[uint32]ComponentFactory

	subMu       sync.RWMutex
	subscribers []ChangeHandler
}

// NewWorld constructs an empty scene.
func NewWorld() *World {
	return &World{
		entities:  make(map[EntityId]*Entity),
		nextId:    1,
		factories: make(map[uint32]ComponentFactory),
	}
}

// RegisterComponentFactory associates a type_hash with a constructor so
// GetOrCreateComponent can materialize components arriving over the wire
// without the caller knowing the concrete Go type in advance.
func (w *World) RegisterComponentFactory(typeHash uint32, factory ComponentFactory) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.factories[typeHash] = factory
}

// Subscribe registers a handler invoked for every subsequent Change.
func (w *World) Subscribe(h ChangeHandler) {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	w.subscribers = append(w.subscribers, h)
}

func (w *World) notify(c Change) {
	w.subMu.RLock()
	handlers := make([]ChangeHandler, len(w.subscribers))
	copy(handlers, w.subscribers)
	w.subMu.RUnlock()
	for _, h := range handlers {
		h(c)
	}
}

// NextFreeId returns the next unused id in the replicable range. It never
// returns a local-only id.
func (w *World) NextFreeId() (EntityId, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextFreeIdLocked()
}

func (w *World) nextFreeIdLocked() (EntityId, error) {
	start := w.nextId
	for {
		if w.nextId.IsLocalOnly() || w.nextId == 0 {
			w.nextId = 1
			if start == 0 {
				start = 1
			}
		}
		id := w.nextId
		w.nextId++
		if _, exists := w.entities[id]; !exists {
			return id, nil
		}
		if w.nextId == start {
			return 0, ErrIdSpaceExhausted
		}
	}
}

// CreateEntity allocates a fresh replicable id and creates the entity.
func (w *World) CreateEntity(origin ChangeOrigin) (*Entity, error) {
	w.mu.Lock()
	id, err := w.nextFreeIdLocked()
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	e := newEntity(id)
	e.origin = origin
	w.entities[id] = e
	w.mu.Unlock()

	w.notify(Change{Kind: EntityCreated, EntityId: id, Origin: origin})
	return e, nil
}

// CreateEntityWithId adopts a specific id, failing with ErrEntityExists
// if it is already occupied. This is how the engine applies an incoming
// CreateEntity message.
func (w *World) CreateEntityWithId(id EntityId, origin ChangeOrigin) (*Entity, error) {
	w.mu.Lock()
	if _, exists := w.entities[id]; exists {
		w.mu.Unlock()
		return nil, ErrEntityExists
	}
	e := newEntity(id)
	e.origin = origin
	w.entities[id] = e
	w.mu.Unlock()

	w.notify(Change{Kind: EntityCreated, EntityId: id, Origin: origin})
	return e, nil
}

// RemoveEntity destroys an entity and notifies subscribers.
func (w *World) RemoveEntity(id EntityId, origin ChangeOrigin) error {
	w.mu.Lock()
	if _, exists := w.entities[id]; !exists {
		w.mu.Unlock()
		return ErrEntityNotFound
	}
	delete(w.entities, id)
	w.mu.Unlock()

	w.notify(Change{Kind: EntityRemoved, EntityId: id, Origin: origin})
	return nil
}

// GetEntity looks up an entity by id.
func (w *World) GetEntity(id EntityId) (*Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	return e, ok
}

// ChangeEntityId atomically relocates an entity from old to new and
// notifies subscribers. This is the mechanism a client uses to relocate a
// just-created entity after an EntityIdCollision reply from the server.
func (w *World) ChangeEntityId(old, new EntityId) error {
	w.mu.Lock()
	e, exists := w.entities[old]
	if !exists {
		w.mu.Unlock()
		return ErrEntityNotFound
	}
	if _, taken := w.entities[new]; taken {
		w.mu.Unlock()
		return ErrEntityExists
	}
	delete(w.entities, old)
	e.id = new
	w.entities[new] = e
	w.mu.Unlock()

	w.notify(Change{
		Kind:        EntityIdChanged,
		EntityId:    new,
		OldEntityId: old,
		NewEntityId: new,
	})
	return nil
}

// Entities returns every entity currently in the scene, in ascending id
// order. Since local-only ids carry the high bit they always sort after
// every replicable id, so callers that need "all replicable entities"
// can stop at the first local-only id.
func (w *World) Entities() []*Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// GetOrCreateComponent returns the entity's component for the given key,
// creating it via the registered factory if it does not yet exist.
// Creating a component notifies ComponentAdded with the given origin; an
// existing component is returned unchanged and does not notify.
func (w *World) GetOrCreateComponent(entityId EntityId, typeHash uint32, name string, origin ChangeOrigin) (Component, error) {
	w.mu.RLock()
	e, exists := w.entities[entityId]
	factory, hasFactory := w.factories[typeHash]
	w.mu.RUnlock()
	if !exists {
		return nil, ErrEntityNotFound
	}

	key := ComponentKey{TypeHash: typeHash, Name: name}
	if c, ok := e.Component(key); ok {
		return c, nil
	}
	if !hasFactory {
		return nil, ErrComponentNotFound
	}
	c := factory(name)
	e.put(c)
	e.setOrigin(origin)
	w.notify(Change{Kind: ComponentAdded, EntityId: entityId, ComponentKey: &key, Origin: origin})
	return c, nil
}

// NotifyComponentChanged tells the scene that a component's live state
// was mutated in place, so subscribers can react. The component must
// already be attached to the entity.
func (w *World) NotifyComponentChanged(entityId EntityId, key ComponentKey, origin ChangeOrigin) error {
	w.mu.RLock()
	e, exists := w.entities[entityId]
	w.mu.RUnlock()
	if !exists {
		return ErrEntityNotFound
	}
	if _, ok := e.Component(key); !ok {
		return ErrComponentNotFound
	}
	e.setOrigin(origin)
	w.notify(Change{Kind: ComponentChanged, EntityId: entityId, ComponentKey: &key, Origin: origin})
	return nil
}

// RemoveComponent detaches a component and notifies ComponentRemoved.
func (w *World) RemoveComponent(entityId EntityId, key ComponentKey, origin ChangeOrigin) error {
	w.mu.RLock()
	e, exists := w.entities[entityId]
	w.mu.RUnlock()
	if !exists {
		return ErrEntityNotFound
	}
	if _, ok := e.Component(key); !ok {
		return ErrComponentNotFound
	}
	e.delete(key)
	e.setOrigin(origin)
	w.notify(Change{Kind: ComponentRemoved, EntityId: entityId, ComponentKey: &key, Origin: origin})
	return nil
}
