package tundra

// Transport is the engine's view of a connection multiplexer: it sends
// framed payloads to a peer by id and calls back into the engine on
// message arrival and connection lifecycle events. Callbacks may be
// invoked from any goroutine: the ones NewSyncManager registers only
// enqueue the event, which the engine applies on its own goroutine at the
// top of the next Tick.
type Transport interface {
	// Send enqueues payload for delivery to peerID. Non-blocking;
	// ordering per peer is guaranteed by the transport.
	Send(peerID uint32, payload []byte) error

	OnMessage(func(peerID uint32, payload []byte))
	OnPeerConnected(func(peerID uint32))
	OnPeerAuthenticated(func(peerID uint32))
	OnPeerDisconnected(func(peerID uint32))

	Close() error
}
