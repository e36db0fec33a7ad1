package quictransport

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestRoundTrip drives one real loopback QUIC connection end to end: a
// server transport accepts and authenticates a client, the client sends
// a payload, and the server's OnMessage callback observes it.
func TestRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tlsConf, err := SelfSignedTLSConfig("quictransport-test")
	if err != nil {
		t.Fatal(err)
	}

	server := New("127.0.0.1:0", tlsConf, nil, nil, nil)

	var mu sync.Mutex
	var received []byte
	gotMsg := make(chan struct{}, 1)
	server.OnMessage(func(peerID uint32, payload []byte) {
		mu.Lock()
		received = payload
		mu.Unlock()
		gotMsg <- struct{}{}
	})

	if err := server.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer server.Close()

	addr := server.listener.Addr().String()

	client, err := Dial(ctx, addr, InsecureClientTLSConfig("quictransport-test"), nil, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	client.NotifyReady()

	if err := client.Send(client.dialedPeerID, []byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case <-gotMsg:
	case <-ctx.Done():
		t.Fatal("timed out waiting for server to receive message")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(received) != "hello" {
		t.Fatalf("received = %q", received)
	}
}

// TestSendUnknownPeer confirms Send fails cleanly for a peer id the
// transport has never registered, rather than blocking or panicking.
func TestSendUnknownPeer(t *testing.T) {
	server := New("127.0.0.1:0", nil, nil, nil, nil)
	if err := server.Send(999, []byte("x")); err != ErrUnknownPeer {
		t.Fatalf("expected ErrUnknownPeer, got %v", err)
	}
}

// TestSendAfterClose confirms Send fails once the transport is closed.
func TestSendAfterClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tlsConf, err := SelfSignedTLSConfig("quictransport-test")
	if err != nil {
		t.Fatal(err)
	}
	server := New("127.0.0.1:0", tlsConf, nil, nil, nil)
	if err := server.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	server.Close()

	if err := server.Send(1, []byte("x")); err != ErrTransportClosed {
		t.Fatalf("expected ErrTransportClosed, got %v", err)
	}
}
