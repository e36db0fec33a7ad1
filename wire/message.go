// Package wire implements the binary message envelope exchanged between
// replication peers: encode/decode for the six message kinds, on top of
// the little-endian primitives in tundra/codec.
package wire

import (
	"tundra/codec"
	"tundra/scene"
)

// Kind identifies a message on the wire. Numeric values are stable
// across client and server builds and must never be renumbered.
type Kind uint8

const (
	KindCreateEntity     Kind = 0xc1
	KindRemoveEntity     Kind = 0xc2
	KindCreateComponents Kind = 0xc3
	KindUpdateComponents Kind = 0xc4
	KindRemoveComponents Kind = 0xc5
	KindEntityIdCollision Kind = 0xc6
)

func (k Kind) String() string {
	switch k {
	case KindCreateEntity:
		return "CreateEntity"
	case KindRemoveEntity:
		return "RemoveEntity"
	case KindCreateComponents:
		return "CreateComponents"
	case KindUpdateComponents:
		return "UpdateComponents"
	case KindRemoveComponents:
		return "RemoveComponents"
	case KindEntityIdCollision:
		return "EntityIdCollision"
	default:
		return "Unknown"
	}
}

// ComponentBody is a single (type_hash, name, data) triplet as it appears
// in CreateEntity, CreateComponents, and UpdateComponents messages. An
// empty Data must be skipped on encode: it signals a delta that produced
// zero bytes and the component must not be present at all.
type ComponentBody struct {
	TypeHash uint32
	Name     string
	Data     []byte
}

// ComponentKeyOnly is a (type_hash, name) pair as it appears in
// RemoveComponents messages.
type ComponentKeyOnly struct {
	TypeHash uint32
	Name     string
}

// CreateEntityMsg carries an entity's full replicable state.
type CreateEntityMsg struct {
	EntityId   scene.EntityId
	Components []ComponentBody
}

// RemoveEntityMsg carries the id of an entity to destroy.
type RemoveEntityMsg struct {
	EntityId scene.EntityId
}

// CreateComponentsMsg carries full state for components not previously
// seen by the receiving peer.
type CreateComponentsMsg struct {
	EntityId   scene.EntityId
	Components []ComponentBody
}

// UpdateComponentsMsg carries delta-encoded component bodies.
type UpdateComponentsMsg struct {
	EntityId   scene.EntityId
	Components []ComponentBody
}

// RemoveComponentsMsg names components to detach from an entity.
type RemoveComponentsMsg struct {
	EntityId   scene.EntityId
	Components []ComponentKeyOnly
}

// EntityIdCollisionMsg tells the recipient that OldEntityId must be
// relocated to NewEntityId.
type EntityIdCollisionMsg struct {
	OldEntityId scene.EntityId
	NewEntityId scene.EntityId
}

func writeComponentBodies(w *codec.Serializer, comps []ComponentBody) error {
	n := 0
	for _, c := range comps {
		if len(c.Data) > 0 {
			n++
		}
	}
	if err := w.WriteU16(uint16(n)); err != nil {
		return err
	}
	for _, c := range comps {
		if len(c.Data) == 0 {
			continue
		}
		if err := w.WriteU32(c.TypeHash); err != nil {
			return err
		}
		if err := w.WriteString(c.Name); err != nil {
			return err
		}
		if err := w.WriteBlob(c.Data); err != nil {
			return err
		}
	}
	return nil
}

func readComponentBodies(r *codec.Deserializer) ([]ComponentBody, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	out := make([]ComponentBody, 0, n)
	for i := uint16(0); i < n; i++ {
		typeHash, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		data, err := r.ReadBlob()
		if err != nil {
			return nil, err
		}
		out = append(out, ComponentBody{TypeHash: typeHash, Name: name, Data: data})
	}
	return out, nil
}

// Encode serializes msg (one of the six *Msg types above) into a fresh
// buffer, prefixed by its Kind byte.
func Encode(msg any) ([]byte, error) {
	s := codec.NewSerializer(1500)
	switch m := msg.(type) {
	case *CreateEntityMsg:
		if err := s.WriteU8(uint8(KindCreateEntity)); err != nil {
			return nil, err
		}
		if err := s.WriteU32(uint32(m.EntityId)); err != nil {
			return nil, err
		}
		if err := writeComponentBodies(s, m.Components); err != nil {
			return nil, err
		}
	case *RemoveEntityMsg:
		if err := s.WriteU8(uint8(KindRemoveEntity)); err != nil {
			return nil, err
		}
		if err := s.WriteU32(uint32(m.EntityId)); err != nil {
			return nil, err
		}
	case *CreateComponentsMsg:
		if err := s.WriteU8(uint8(KindCreateComponents)); err != nil {
			return nil, err
		}
		if err := s.WriteU32(uint32(m.EntityId)); err != nil {
			return nil, err
		}
		if err := writeComponentBodies(s, m.Components); err != nil {
			return nil, err
		}
	case *UpdateComponentsMsg:
		if err := s.WriteU8(uint8(KindUpdateComponents)); err != nil {
			return nil, err
		}
		if err := s.WriteU32(uint32(m.EntityId)); err != nil {
			return nil, err
		}
		if err := writeComponentBodies(s, m.Components); err != nil {
			return nil, err
		}
	case *RemoveComponentsMsg:
		if err := s.WriteU8(uint8(KindRemoveComponents)); err != nil {
			return nil, err
		}
		if err := s.WriteU32(uint32(m.EntityId)); err != nil {
			return nil, err
		}
		if err := s.WriteU16(uint16(len(m.Components))); err != nil {
			return nil, err
		}
		for _, c := range m.Components {
			if err := s.WriteU32(c.TypeHash); err != nil {
				return nil, err
			}
			if err := s.WriteString(c.Name); err != nil {
				return nil, err
			}
		}
	case *EntityIdCollisionMsg:
		if err := s.WriteU8(uint8(KindEntityIdCollision)); err != nil {
			return nil, err
		}
		if err := s.WriteU32(uint32(m.OldEntityId)); err != nil {
			return nil, err
		}
		if err := s.WriteU32(uint32(m.NewEntityId)); err != nil {
			return nil, err
		}
	default:
		return nil, codec.ErrInvalidEncoding
	}
	return s.Bytes(), nil
}

// Decode reads a Kind byte from data and returns the corresponding *Msg
// value as an any, along with the Kind for dispatch convenience.
func Decode(data []byte) (Kind, any, error) {
	r := codec.NewDeserializer(data)
	kb, err := r.ReadU8()
	if err != nil {
		return 0, nil, err
	}
	kind := Kind(kb)
	switch kind {
	case KindCreateEntity:
		id, err := r.ReadU32()
		if err != nil {
			return kind, nil, err
		}
		comps, err := readComponentBodies(r)
		if err != nil {
			return kind, nil, err
		}
		return kind, &CreateEntityMsg{EntityId: scene.EntityId(id), Components: comps}, nil
	case KindRemoveEntity:
		id, err := r.ReadU32()
		if err != nil {
			return kind, nil, err
		}
		return kind, &RemoveEntityMsg{EntityId: scene.EntityId(id)}, nil
	case KindCreateComponents:
		id, err := r.ReadU32()
		if err != nil {
			return kind, nil, err
		}
		comps, err := readComponentBodies(r)
		if err != nil {
			return kind, nil, err
		}
		return kind, &CreateComponentsMsg{EntityId: scene.EntityId(id), Components: comps}, nil
	case KindUpdateComponents:
		id, err := r.ReadU32()
		if err != nil {
			return kind, nil, err
		}
		comps, err := readComponentBodies(r)
		if err != nil {
			return kind, nil, err
		}
		return kind, &UpdateComponentsMsg{EntityId: scene.EntityId(id), Components: comps}, nil
	case KindRemoveComponents:
		id, err := r.ReadU32()
		if err != nil {
			return kind, nil, err
		}
		n, err := r.ReadU16()
		if err != nil {
			return kind, nil, err
		}
		keys := make([]ComponentKeyOnly, 0, n)
		for i := uint16(0); i < n; i++ {
			typeHash, err := r.ReadU32()
			if err != nil {
				return kind, nil, err
			}
			name, err := r.ReadString()
			if err != nil {
				return kind, nil, err
			}
			keys = append(keys, ComponentKeyOnly{TypeHash: typeHash, Name: name})
		}
		return kind, &RemoveComponentsMsg{EntityId: scene.EntityId(id), Components: keys}, nil
	case KindEntityIdCollision:
		oldId, err := r.ReadU32()
		if err != nil {
			return kind, nil, err
		}
		newId, err := r.ReadU32()
		if err != nil {
			return kind, nil, err
		}
		return kind, &EntityIdCollisionMsg{OldEntityId: scene.EntityId(oldId), NewEntityId: scene.EntityId(newId)}, nil
	default:
		return kind, nil, codec.ErrInvalidEncoding
	}
}
