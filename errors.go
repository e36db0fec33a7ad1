// Package tundra implements the replication engine that keeps a
// server's and its clients' scenes in sync over a message transport:
// change-notification intake from the local scene, per-peer dirty
// tracking, delta-encoded flush, and inbound message application.
package tundra

import "errors"

// ErrKind classifies why the engine rejected or dropped something. None
// of these ever escape a message handler as a panic; they are always
// returned or logged, and the engine keeps running.
type ErrKind int

const (
	// KindCodecError covers BufferOverflow, ShortRead, and
	// InvalidEncoding while decoding one component. The offending
	// component is skipped; the rest of the message still applies.
	KindCodecError ErrKind = iota
	// KindProtocolViolation covers an unknown message id, a reference to
	// a local-only entity, an unauthenticated peer on the server, an
	// EntityIdCollision received by a server, or entity id zero. The
	// whole message is discarded; the peer is not dropped.
	KindProtocolViolation
	// KindResourceExhaustion covers the scene refusing to create an
	// entity (id space exhausted).
	KindResourceExhaustion
	// KindTransportError is surfaced by the transport; the engine only
	// reacts to disconnection.
	KindTransportError
)

func (k ErrKind) String() string {
	switch k {
	case KindCodecError:
		return "codec_error"
	case KindProtocolViolation:
		return "protocol_violation"
	case KindResourceExhaustion:
		return "resource_exhaustion"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// EngineError wraps an underlying cause with the ErrKind the intake
// pipeline uses to decide whether to log, skip a component, or discard a
// whole message.
type EngineError struct {
	Kind ErrKind
	Err  error
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *EngineError) Unwrap() error { return e.Err }

func newEngineError(kind ErrKind, err error) *EngineError {
	return &EngineError{Kind: kind, Err: err}
}

var (
	// ErrUnknownMessageKind is a ProtocolViolation cause: the message's
	// leading byte does not match any known Kind.
	ErrUnknownMessageKind = errors.New("tundra: unknown message kind")
	// ErrLocalOnlyEntityReferenced is a ProtocolViolation cause: an
	// incoming message named an entity id with the local-only bit set.
	ErrLocalOnlyEntityReferenced = errors.New("tundra: message referenced a local-only entity id")
	// ErrUnauthenticatedPeer is a ProtocolViolation cause: a server
	// received a message from a peer that has not authenticated.
	ErrUnauthenticatedPeer = errors.New("tundra: message from unauthenticated peer")
	// ErrCollisionFromServer is a ProtocolViolation cause: a server
	// received an EntityIdCollision message, which only a client may
	// legally receive.
	ErrCollisionFromServer = errors.New("tundra: server received EntityIdCollision")
	// ErrZeroEntityId is a ProtocolViolation cause: entity id 0 is never
	// valid on the wire.
	ErrZeroEntityId = errors.New("tundra: message referenced entity id 0")
	// ErrUnknownPeer is a ProtocolViolation cause: a message arrived
	// tagged with a peer the directory does not know about.
	ErrUnknownPeer = errors.New("tundra: message from unknown peer")
)
