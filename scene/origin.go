package scene

// ChangeOrigin tags every mutation notification emitted by a World. There
// is no default origin: every mutation entry point requires one, since the
// origin is the only thing that stops the replication engine's own writes
// from echoing back into itself.
type ChangeOrigin int

const (
	// OriginLocal marks a mutation caused by a user, script, or world
	// action running on this instance. Only Local mutations of
	// replicable entities are eligible for replication.
	OriginLocal ChangeOrigin = iota
	// OriginNetwork marks a mutation applied while decoding a message
	// received from a peer.
	OriginNetwork
	// OriginLocalOnly marks a user/script action against a local-only
	// entity; never replicated regardless of the entity id.
	OriginLocalOnly
	// OriginDisconnected marks an internal mutation, such as cleanup
	// after a peer drops, that must never replicate.
	OriginDisconnected
)

func (o ChangeOrigin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginNetwork:
		return "network"
	case OriginLocalOnly:
		return "local-only"
	case OriginDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
