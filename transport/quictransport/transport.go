package quictransport

import (
	"context"
	"crypto/tls"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"

	"tundra/axlog"
)

// ErrTransportClosed is returned by Send once Close has run.
var ErrTransportClosed = errors.New("quictransport: transport is closed")

// ErrUnknownPeer is returned by Send when peerID names no live client.
var ErrUnknownPeer = errors.New("quictransport: unknown peer")

// Authenticator decides whether an accepted connection may proceed, given
// its remote address. A nil Authenticator authenticates every connection
// immediately on accept.
type Authenticator func(remoteAddr string) bool

type operationType int

const (
	opRegister operationType = iota
	opUnregister
)

type operation struct {
	typ      operationType
	client   *client
	peerID   uint32
	response chan struct{}
}

// QuicTransport is a tundra.Transport backed by a QUIC listener. It runs
// a single actor goroutine that performs every write to the client map;
// other goroutines (accept loop, disconnect loop) request registration
// and removal over the operations channel. Send and Close read the map
// directly under clientMu.
type QuicTransport struct {
	address    string
	tlsConfig  *tls.Config
	quicConfig *quic.Config
	auth       Authenticator
	log        axlog.Logger

	listener *quic.Listener

	operations chan operation

	disconnectChan chan uint32

	clientsByPeerID map[uint32]*client
	clientMu        sync.RWMutex

	nextPeerID   uint32
	dialedPeerID uint32

	onMessage        func(peerID uint32, payload []byte)
	onPeerConnected  func(peerID uint32)
	onPeerAuth       func(peerID uint32)
	onPeerDisconnect func(peerID uint32)

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// New constructs a transport listening on address once Start is called.
// auth may be nil to authenticate every accepted connection immediately.
func New(address string, tlsConf *tls.Config, quicConf *quic.Config, auth Authenticator, log axlog.Logger) *QuicTransport {
	if log == nil {
		log = axlog.Noop()
	}
	return &QuicTransport{
		address:         address,
		tlsConfig:       tlsConf,
		quicConfig:      quicConf,
		auth:            auth,
		log:             log,
		operations:      make(chan operation, 128),
		disconnectChan:  make(chan uint32, 128),
		clientsByPeerID: make(map[uint32]*client),
	}
}

// Start binds the listener and begins accepting connections.
func (t *QuicTransport) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	t.ctx = ctx
	t.cancel = cancel

	listener, err := quic.ListenAddr(t.address, t.tlsConfig, t.quicConfig)
	if err != nil {
		cancel()
		return err
	}
	t.listener = listener

	go t.run()
	go t.acceptLoop()
	go t.disconnectLoop()
	return nil
}

func (t *QuicTransport) run() {
	for {
		select {
		case <-t.ctx.Done():
			return
		case op := <-t.operations:
			t.handleOperation(op)
		}
	}
}

func (t *QuicTransport) handleOperation(op operation) {
	switch op.typ {
	case opRegister:
		t.clientMu.Lock()
		t.clientsByPeerID[op.client.peerID] = op.client
		t.clientMu.Unlock()
	case opUnregister:
		t.clientMu.Lock()
		delete(t.clientsByPeerID, op.peerID)
		t.clientMu.Unlock()
	}
	if op.response != nil {
		close(op.response)
	}
}

// registerClient hands a newly accepted or dialed connection to the actor
// goroutine and waits for it to be recorded before returning, so a
// caller's very next Send to that peer id cannot race the registration.
func (t *QuicTransport) registerClient(c *client) {
	done := make(chan struct{})
	t.operations <- operation{typ: opRegister, client: c, response: done}
	<-done
}

func (t *QuicTransport) disconnectLoop() {
	for {
		select {
		case <-t.ctx.Done():
			return
		case peerID := <-t.disconnectChan:
			t.operations <- operation{typ: opUnregister, peerID: peerID}
			if t.onPeerDisconnect != nil {
				t.onPeerDisconnect(peerID)
			}
		}
	}
}

func (t *QuicTransport) acceptLoop() {
	for {
		conn, err := t.listener.Accept(t.ctx)
		if err != nil {
			select {
			case <-t.ctx.Done():
				return
			default:
				t.log.Error("quictransport accept failed", "err", err)
				continue
			}
		}
		go t.handleConn(conn)
	}
}

func (t *QuicTransport) handleConn(conn quic.Connection) {
	remote := conn.RemoteAddr().String()
	internalID := uuid.New().String()
	peerID := atomic.AddUint32(&t.nextPeerID, 1)

	c := newClient(internalID, peerID, conn)
	t.registerClient(c)

	go c.readPump(t, t.ctx)
	go c.writePump(t, t.ctx)

	if t.onPeerConnected != nil {
		t.onPeerConnected(peerID)
	}

	if t.auth == nil || t.auth(remote) {
		if t.onPeerAuth != nil {
			t.onPeerAuth(peerID)
		}
		return
	}

	conn.CloseWithError(quic.ApplicationErrorCode(0x000a), "authentication rejected")
}

func (t *QuicTransport) deliver(peerID uint32, payload []byte) {
	if t.onMessage != nil {
		t.onMessage(peerID, payload)
	}
}

func (t *QuicTransport) logError(op string, peerID uint32, err error) {
	t.log.Error("quictransport "+op+" failed", "peer", peerID, "err", err)
}

// Send enqueues payload for delivery to peerID over a fresh reliable
// stream. Non-blocking: it hands off to the client's writePump.
func (t *QuicTransport) Send(peerID uint32, payload []byte) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	t.clientMu.RLock()
	c, ok := t.clientsByPeerID[peerID]
	t.clientMu.RUnlock()
	if !ok {
		return ErrUnknownPeer
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errors.New("quictransport: send queue full for peer")
	}
}

func (t *QuicTransport) OnMessage(f func(peerID uint32, payload []byte)) { t.onMessage = f }
func (t *QuicTransport) OnPeerConnected(f func(peerID uint32))          { t.onPeerConnected = f }
func (t *QuicTransport) OnPeerAuthenticated(f func(peerID uint32))      { t.onPeerAuth = f }
func (t *QuicTransport) OnPeerDisconnected(f func(peerID uint32))       { t.onPeerDisconnect = f }

// Close shuts the listener and every open connection down.
func (t *QuicTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.clientMu.RLock()
	for _, c := range t.clientsByPeerID {
		c.conn.CloseWithError(quic.ApplicationErrorCode(0), "transport closed")
	}
	t.clientMu.RUnlock()
	if t.listener != nil {
		return t.listener.Close()
	}
	return nil
}

// Dial connects out to a server address and wraps the single resulting
// connection as this transport's one peer. It does not fire
// OnPeerConnected/OnPeerAuthenticated yet — a caller must register those
// callbacks (as NewSyncManager does) and then call NotifyReady, so the
// engine never misses its own onboarding event to a callback registered
// too late.
func Dial(ctx context.Context, address string, tlsConf *tls.Config, quicConf *quic.Config, log axlog.Logger) (*QuicTransport, error) {
	if log == nil {
		log = axlog.Noop()
	}
	ctx, cancel := context.WithCancel(ctx)

	conn, err := quic.DialAddr(ctx, address, tlsConf, quicConf)
	if err != nil {
		cancel()
		return nil, err
	}

	t := &QuicTransport{
		address:         address,
		tlsConfig:       tlsConf,
		quicConfig:      quicConf,
		log:             log,
		operations:      make(chan operation, 128),
		disconnectChan:  make(chan uint32, 128),
		clientsByPeerID: make(map[uint32]*client),
		ctx:             ctx,
		cancel:          cancel,
	}

	go t.run()
	go t.disconnectLoop()

	peerID := atomic.AddUint32(&t.nextPeerID, 1)
	c := newClient(uuid.New().String(), peerID, conn)
	t.registerClient(c)
	t.dialedPeerID = peerID

	go c.readPump(t, ctx)
	go c.writePump(t, ctx)

	return t, nil
}

// NotifyReady fires OnPeerConnected then OnPeerAuthenticated for the
// connection established by Dial: a client trusts the server
// unconditionally, so there is no separate transport-level handshake to
// wait on beyond the QUIC handshake Dial already completed.
func (t *QuicTransport) NotifyReady() {
	if t.onPeerConnected != nil {
		t.onPeerConnected(t.dialedPeerID)
	}
	if t.onPeerAuth != nil {
		t.onPeerAuth(t.dialedPeerID)
	}
}
