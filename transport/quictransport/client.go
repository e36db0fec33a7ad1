// Package quictransport implements tundra.Transport over QUIC, using
// github.com/quic-go/quic-go for the wire and github.com/google/uuid to
// mint a stable internal correlation id for every connection (independent
// of the sequential uint32 id the replication engine addresses peers by).
package quictransport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
)

var bufferPool = &sync.Pool{
	New: func() any {
		buf := make([]byte, 4096)
		return &buf
	},
}

// client is one accepted QUIC connection: its internal uuid correlation
// id, its externally-addressed uint32 peer id, the connection itself, and
// an outgoing send queue drained by writePump.
type client struct {
	internalID string
	peerID     uint32
	conn       quic.Connection

	send   chan []byte
	closed atomic.Bool
}

func newClient(internalID string, peerID uint32, conn quic.Connection) *client {
	return &client{
		internalID: internalID,
		peerID:     peerID,
		conn:       conn,
		send:       make(chan []byte, 256),
	}
}

func (c *client) close(t *QuicTransport) {
	if c.closed.CompareAndSwap(false, true) {
		select {
		case t.disconnectChan <- c.peerID:
		case <-time.After(time.Second):
		}
	}
}

// readPump accepts one reliable stream per message, matching the engine's
// framing model: every Send is a whole, independently-decodable payload.
func (c *client) readPump(t *QuicTransport, ctx context.Context) {
	defer c.close(t)

	for {
		stream, err := c.conn.AcceptStream(ctx)
		if err != nil {
			return
		}

		bufp := bufferPool.Get().(*[]byte)
		buf := *bufp
		n, err := stream.Read(buf)
		stream.Close()
		if err != nil && n == 0 {
			bufferPool.Put(bufp)
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		bufferPool.Put(bufp)

		t.deliver(c.peerID, payload)
	}
}

func (c *client) writePump(t *QuicTransport, ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			stream, err := c.conn.OpenStreamSync(ctx)
			if err != nil {
				t.logError("open stream", c.peerID, err)
				continue
			}
			if _, err := stream.Write(payload); err != nil {
				t.logError("write stream", c.peerID, err)
			}
			stream.Close()
		}
	}
}
