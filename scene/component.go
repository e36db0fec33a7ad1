package scene

import "tundra/codec"

// ComponentKey is the canonical wire identity of a component: the pair
// (type_hash, name). Two components on different entities with the same
// key are considered the same kind of data.
type ComponentKey struct {
	TypeHash uint32
	Name     string
}

// FullWriter serializes a component's complete state.
type FullWriter interface {
	WriteFull(w *codec.Serializer) error
}

// FullReader deserializes a component's complete state.
type FullReader interface {
	ReadFull(r *codec.Deserializer) error
}

// DeltaWriter serializes only the attributes that changed relative to the
// component's own live state compared against a previously-sent buffer.
// It reports whether anything was written so the caller can omit the
// component entirely when nothing changed.
type DeltaWriter interface {
	WriteDelta(w *codec.DeltaSerializer) (changed bool, err error)
}

// DeltaReader applies a delta body produced by WriteDelta.
type DeltaReader interface {
	ReadDelta(r *codec.DeltaDeserializer) error
}

// Component is the capability set every replicated datum must implement.
// Components differ in type but share this fixed interface; the
// (TypeHash, Name) pair is what distinguishes one component's identity
// from another on the wire, not the Go type.
type Component interface {
	FullWriter
	FullReader
	DeltaWriter
	DeltaReader

	TypeHash() uint32
	Name() string

	// Serializable reports whether this component can be turned into
	// bytes at all.
	Serializable() bool
	// NetworkSyncEnabled reports whether this component should
	// participate in replication. Both Serializable and
	// NetworkSyncEnabled must be true for a component to replicate.
	NetworkSyncEnabled() bool
}

// Replicates reports whether c is eligible for replication: serializable,
// network-sync enabled, and attached to a replicable (non local-only)
// entity is checked by the caller separately.
func Replicates(c Component) bool {
	return c != nil && c.Serializable() && c.NetworkSyncEnabled()
}

// Key returns the canonical wire identity of c.
func Key(c Component) ComponentKey {
	return ComponentKey{TypeHash: c.TypeHash(), Name: c.Name()}
}
