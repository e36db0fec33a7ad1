package scene

// EntityId identifies an entity in a scene. The high bit marks the id as
// local-only: such an entity is never advertised to a peer and never
// accepted from the network.
type EntityId uint32

// LocalOnlyBit marks an EntityId as local-only when set.
const LocalOnlyBit EntityId = 0x80000000

// IsLocalOnly reports whether id carries the local-only bit.
func (id EntityId) IsLocalOnly() bool {
	return id&LocalOnlyBit != 0
}

// IsReplicable reports whether id may be advertised to peers.
func (id EntityId) IsReplicable() bool {
	return !id.IsLocalOnly()
}
