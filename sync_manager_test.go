package tundra

import (
	"testing"
	"time"

	"tundra/components"
	"tundra/peer"
	"tundra/scene"
	"tundra/wire"
)

// fakeTransport is a synchronous, in-process Transport used to drive two
// engines against each other without any real networking. Two instances
// are wired together as partners; Send on one immediately invokes the
// other's registered OnMessage callback.
type fakeTransport struct {
	remoteID uint32
	partner  *fakeTransport

	onMsg  func(peerID uint32, payload []byte)
	onConn func(peerID uint32)
	onAuth func(peerID uint32)
	onDisc func(peerID uint32)

	sent [][]byte
}

func newFakeTransportPair(serverSideRemoteID, clientSideRemoteID uint32) (serverSide, clientSide *fakeTransport) {
	serverSide = &fakeTransport{remoteID: serverSideRemoteID}
	clientSide = &fakeTransport{remoteID: clientSideRemoteID}
	serverSide.partner = clientSide
	clientSide.partner = serverSide
	return
}

func (t *fakeTransport) Send(peerID uint32, payload []byte) error {
	t.sent = append(t.sent, payload)
	if t.partner != nil && t.partner.onMsg != nil {
		t.partner.onMsg(t.partner.remoteID, payload)
	}
	return nil
}

func (t *fakeTransport) OnMessage(f func(uint32, []byte))   { t.onMsg = f }
func (t *fakeTransport) OnPeerConnected(f func(uint32))     { t.onConn = f }
func (t *fakeTransport) OnPeerAuthenticated(f func(uint32)) { t.onAuth = f }
func (t *fakeTransport) OnPeerDisconnected(f func(uint32))  { t.onDisc = f }
func (t *fakeTransport) Close() error                       { return nil }

func (t *fakeTransport) connect() {
	if t.onConn != nil {
		t.onConn(t.remoteID)
	}
}

func (t *fakeTransport) authenticate() {
	if t.onAuth != nil {
		t.onAuth(t.remoteID)
	}
}

func (t *fakeTransport) disconnect() {
	if t.onDisc != nil {
		t.onDisc(t.remoteID)
	}
}

type harness struct {
	serverWorld *scene.World
	clientWorld *scene.World
	server      *SyncManager
	client      *SyncManager
	serverT     *fakeTransport
	clientT     *fakeTransport
}

func registerComponents(w *scene.World) {
	w.RegisterComponentFactory(components.TransformTypeHash, func(name string) scene.Component {
		return components.NewTransform(name)
	})
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	serverWorld := scene.NewWorld()
	clientWorld := scene.NewWorld()
	registerComponents(serverWorld)
	registerComponents(clientWorld)

	serverT, clientT := newFakeTransportPair(7, 1)

	directoryServer := peer.NewDirectory()
	directoryClient := peer.NewDirectory()

	server := NewSyncManager(RoleServer, serverWorld, directoryServer, serverT, nil, MinUpdatePeriod)
	client := NewSyncManager(RoleClient, clientWorld, directoryClient, clientT, nil, MinUpdatePeriod)

	serverT.connect()
	clientT.connect()
	serverT.authenticate()

	// Drain the connect/authenticate events before the test body runs.
	server.Tick(0)
	client.Tick(0)

	return &harness{
		serverWorld: serverWorld,
		clientWorld: clientWorld,
		server:      server,
		client:      client,
		serverT:     serverT,
		clientT:     clientT,
	}
}

func (h *harness) tickBoth(d time.Duration) {
	h.server.Tick(d)
	h.client.Tick(d)
}

// S1: new entity replication.
func TestScenarioNewEntityReplication(t *testing.T) {
	h := newHarness(t)

	entity, err := h.serverWorld.CreateEntity(scene.OriginLocal)
	if err != nil {
		t.Fatal(err)
	}
	comp, err := h.serverWorld.GetOrCreateComponent(entity.Id(), components.TransformTypeHash, "T", scene.OriginLocal)
	if err != nil {
		t.Fatal(err)
	}
	tr := comp.(*components.Transform)
	tr.Position = [3]float64{1, 2, 3}
	if err := h.serverWorld.NotifyComponentChanged(entity.Id(), scene.Key(comp), scene.OriginLocal); err != nil {
		t.Fatal(err)
	}

	h.tickBoth(MinUpdatePeriod)

	clientEntity, ok := h.clientWorld.GetEntity(entity.Id())
	if !ok {
		t.Fatal("expected client to have received the entity")
	}
	clientComp, ok := clientEntity.Component(scene.Key(comp))
	if !ok {
		t.Fatal("expected client entity to have the component")
	}
	if clientComp.(*components.Transform).Position != tr.Position {
		t.Fatalf("position mismatch: %v", clientComp.(*components.Transform).Position)
	}
}

// S2: delta update, and no traffic when nothing changed.
func TestScenarioDeltaUpdate(t *testing.T) {
	h := newHarness(t)

	entity, _ := h.serverWorld.CreateEntity(scene.OriginLocal)
	comp, _ := h.serverWorld.GetOrCreateComponent(entity.Id(), components.TransformTypeHash, "T", scene.OriginLocal)
	tr := comp.(*components.Transform)
	tr.Position = [3]float64{1, 1, 1}
	h.serverWorld.NotifyComponentChanged(entity.Id(), scene.Key(comp), scene.OriginLocal)
	h.tickBoth(MinUpdatePeriod)

	tr.Position = [3]float64{2, 2, 2}
	h.serverWorld.NotifyComponentChanged(entity.Id(), scene.Key(comp), scene.OriginLocal)

	sentBefore := len(h.serverT.sent)
	h.tickBoth(MinUpdatePeriod)
	if len(h.serverT.sent) != sentBefore+1 {
		t.Fatalf("expected exactly one update message, got %d new", len(h.serverT.sent)-sentBefore)
	}

	clientEntity, _ := h.clientWorld.GetEntity(entity.Id())
	clientComp, _ := clientEntity.Component(scene.Key(comp))
	if clientComp.(*components.Transform).Position != [3]float64{2, 2, 2} {
		t.Fatalf("position mismatch: %v", clientComp.(*components.Transform).Position)
	}

	// No-op mutation: setting the same value must produce no traffic.
	tr.Position = [3]float64{2, 2, 2}
	h.serverWorld.NotifyComponentChanged(entity.Id(), scene.Key(comp), scene.OriginLocal)

	sentBefore = len(h.serverT.sent)
	h.tickBoth(MinUpdatePeriod)
	if len(h.serverT.sent) != sentBefore {
		t.Fatalf("expected no outgoing bytes for an unchanged component, sent %d", len(h.serverT.sent)-sentBefore)
	}
}

// S4: removal.
func TestScenarioRemoval(t *testing.T) {
	h := newHarness(t)

	entity, _ := h.serverWorld.CreateEntity(scene.OriginLocal)
	h.serverWorld.GetOrCreateComponent(entity.Id(), components.TransformTypeHash, "T", scene.OriginLocal)
	h.tickBoth(MinUpdatePeriod)

	if _, ok := h.clientWorld.GetEntity(entity.Id()); !ok {
		t.Fatal("expected client to have the entity before removal")
	}

	if err := h.serverWorld.RemoveEntity(entity.Id(), scene.OriginLocal); err != nil {
		t.Fatal(err)
	}
	h.tickBoth(MinUpdatePeriod)

	if _, ok := h.clientWorld.GetEntity(entity.Id()); ok {
		t.Fatal("expected client entity removed")
	}
}

// S5: local-only isolation.
func TestScenarioLocalOnlyIsolation(t *testing.T) {
	h := newHarness(t)

	localId := scene.LocalOnlyBit | 5
	entity, err := h.serverWorld.CreateEntityWithId(localId, scene.OriginLocalOnly)
	if err != nil {
		t.Fatal(err)
	}
	h.serverWorld.GetOrCreateComponent(entity.Id(), components.TransformTypeHash, "T", scene.OriginLocalOnly)

	sentBefore := len(h.serverT.sent)
	for i := 0; i < 5; i++ {
		h.tickBoth(MinUpdatePeriod)
	}
	if len(h.serverT.sent) != sentBefore {
		t.Fatalf("expected no outgoing messages for a local-only entity, got %d", len(h.serverT.sent)-sentBefore)
	}
	if _, ok := h.clientWorld.GetEntity(localId); ok {
		t.Fatal("expected client scene unaffected")
	}
}

// S6: unauthenticated rejection.
func TestScenarioUnauthenticatedRejection(t *testing.T) {
	serverWorld := scene.NewWorld()
	registerComponents(serverWorld)
	serverT, otherT := newFakeTransportPair(7, 1)
	directory := peer.NewDirectory()
	server := NewSyncManager(RoleServer, serverWorld, directory, serverT, nil, MinUpdatePeriod)

	serverT.connect() // connected but never authenticated
	server.Tick(0)

	msg, err := wire.Encode(&wire.CreateEntityMsg{EntityId: 9})
	if err != nil {
		t.Fatal(err)
	}
	otherT.Send(1, msg) // delivered to server as peer 7's message

	server.Tick(MinUpdatePeriod)

	if _, ok := serverWorld.GetEntity(9); ok {
		t.Fatal("expected server scene unaffected by unauthenticated message")
	}
}

// S3, server -> client direction: the client already has a local guess
// at id 50; the server independently owns its own entity 50 and flushes
// it first. The client must drop its own copy and adopt the server's,
// and must not echo its now-discarded copy back as a spurious create.
func TestScenarioIdCollisionServerWins(t *testing.T) {
	h := newHarness(t)

	if _, err := h.clientWorld.CreateEntityWithId(50, scene.OriginLocal); err != nil {
		t.Fatal(err)
	}
	if _, err := h.serverWorld.CreateEntityWithId(50, scene.OriginLocal); err != nil {
		t.Fatal(err)
	}

	h.server.Tick(MinUpdatePeriod)
	sentBefore := len(h.clientT.sent)
	h.client.Tick(MinUpdatePeriod)

	if _, ok := h.clientWorld.GetEntity(50); !ok {
		t.Fatal("expected the client to adopt the server's entity 50")
	}
	if len(h.clientT.sent) != sentBefore {
		t.Fatalf("expected the client not to echo its discarded copy back, sent %d new messages", len(h.clientT.sent)-sentBefore)
	}
}

// S3, client -> server direction: the server already owns entity 50; the
// client independently creates its own entity 50 and sends it. The
// server must relocate the incoming create to a fresh id, and the
// client must relocate its own local copy to match once the collision
// reply arrives.
func TestScenarioIdCollisionClientToServer(t *testing.T) {
	h := newHarness(t)

	if _, err := h.serverWorld.CreateEntity(scene.OriginLocal); err != nil {
		t.Fatal(err)
	}
	if _, err := h.serverWorld.CreateEntityWithId(50, scene.OriginLocal); err != nil {
		t.Fatal(err)
	}
	if _, err := h.clientWorld.CreateEntityWithId(50, scene.OriginLocal); err != nil {
		t.Fatal(err)
	}

	h.client.Tick(MinUpdatePeriod)
	h.server.Tick(MinUpdatePeriod)
	h.client.Tick(MinUpdatePeriod)

	if _, ok := h.clientWorld.GetEntity(2); !ok {
		t.Fatal("expected the client's colliding entity to be relocated to the server-assigned id")
	}
	if _, ok := h.clientWorld.GetEntity(50); !ok {
		t.Fatal("expected the client to also adopt the server's own entity 50")
	}
	if _, ok := h.serverWorld.GetEntity(2); !ok {
		t.Fatal("expected the server to materialize the relocated entity under the new id")
	}
}

// Testable property 3: after a full flush, a peer's dirty and removed
// sets are empty, and so are its entities' component-level sets.
func TestPropertyFlushLeavesPeerClean(t *testing.T) {
	h := newHarness(t)

	entity, _ := h.serverWorld.CreateEntity(scene.OriginLocal)
	h.serverWorld.GetOrCreateComponent(entity.Id(), components.TransformTypeHash, "T", scene.OriginLocal)
	h.tickBoth(MinUpdatePeriod)

	serverPeer, ok := serverPeerFor(h)
	if !ok {
		t.Fatal("expected server to know its client peer")
	}
	if !serverPeer.SyncState.IsClean() {
		t.Fatal("expected server's peer state clean after a full flush")
	}
}

func serverPeerFor(h *harness) (*peer.Peer, bool) {
	for _, p := range h.server.directory.Peers() {
		return p, true
	}
	return nil, false
}

// Testable property 7: update_period below the floor is clamped to it.
func TestPropertyUpdatePeriodClamped(t *testing.T) {
	serverWorld := scene.NewWorld()
	registerComponents(serverWorld)
	serverT, _ := newFakeTransportPair(7, 1)
	directory := peer.NewDirectory()

	server := NewSyncManager(RoleServer, serverWorld, directory, serverT, nil, time.Millisecond)
	if server.updatePeriod != MinUpdatePeriod {
		t.Fatalf("expected update period clamped to %v, got %v", MinUpdatePeriod, server.updatePeriod)
	}
}

// Testable property 8: a frame_dt spanning N update periods triggers
// exactly one flush.
func TestPropertyOneFlushPerTick(t *testing.T) {
	h := newHarness(t)

	entity, _ := h.serverWorld.CreateEntity(scene.OriginLocal)
	h.serverWorld.GetOrCreateComponent(entity.Id(), components.TransformTypeHash, "T", scene.OriginLocal)

	sentBefore := len(h.serverT.sent)
	h.server.Tick(MinUpdatePeriod * 5)

	if len(h.serverT.sent) != sentBefore+1 {
		t.Fatalf("expected exactly one flush's worth of messages (1), got %d", len(h.serverT.sent)-sentBefore)
	}
}
