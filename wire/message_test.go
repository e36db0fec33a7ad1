package wire

import (
	"bytes"
	"testing"

	"tundra/scene"
)

func TestCreateEntityRoundTrip(t *testing.T) {
	msg := &CreateEntityMsg{
		EntityId: 100,
		Components: []ComponentBody{
			{TypeHash: 0xAB, Name: "T", Data: []byte{42}},
		},
	}
	buf, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	kind, decoded, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindCreateEntity {
		t.Fatalf("kind = %v", kind)
	}
	got := decoded.(*CreateEntityMsg)
	if got.EntityId != 100 {
		t.Fatalf("entity id = %d", got.EntityId)
	}
	if len(got.Components) != 1 || got.Components[0].TypeHash != 0xAB || got.Components[0].Name != "T" {
		t.Fatalf("components = %+v", got.Components)
	}
	if !bytes.Equal(got.Components[0].Data, []byte{42}) {
		t.Fatalf("data = %v", got.Components[0].Data)
	}
}

func TestCreateEntitySkipsEmptyComponentBody(t *testing.T) {
	msg := &CreateEntityMsg{
		EntityId: 1,
		Components: []ComponentBody{
			{TypeHash: 1, Name: "a", Data: []byte{9}},
			{TypeHash: 2, Name: "b", Data: nil},
		},
	}
	buf, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	_, decoded, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := decoded.(*CreateEntityMsg)
	if len(got.Components) != 1 {
		t.Fatalf("expected empty-bodied component to be skipped, got %+v", got.Components)
	}
}

func TestRemoveEntityRoundTrip(t *testing.T) {
	buf, err := Encode(&RemoveEntityMsg{EntityId: 7})
	if err != nil {
		t.Fatal(err)
	}
	kind, decoded, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindRemoveEntity || decoded.(*RemoveEntityMsg).EntityId != 7 {
		t.Fatalf("got %v %+v", kind, decoded)
	}
}

func TestUpdateComponentsRoundTrip(t *testing.T) {
	msg := &UpdateComponentsMsg{
		EntityId: 100,
		Components: []ComponentBody{
			{TypeHash: 0xAB, Name: "T", Data: []byte{43}},
		},
	}
	buf, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	kind, decoded, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindUpdateComponents {
		t.Fatalf("kind = %v", kind)
	}
	got := decoded.(*UpdateComponentsMsg)
	if !bytes.Equal(got.Components[0].Data, []byte{43}) {
		t.Fatalf("data = %v", got.Components[0].Data)
	}
}

func TestRemoveComponentsRoundTrip(t *testing.T) {
	msg := &RemoveComponentsMsg{
		EntityId:   7,
		Components: []ComponentKeyOnly{{TypeHash: 0xAB, Name: "T"}, {TypeHash: 0xCD, Name: "U"}},
	}
	buf, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	kind, decoded, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindRemoveComponents {
		t.Fatalf("kind = %v", kind)
	}
	got := decoded.(*RemoveComponentsMsg)
	if len(got.Components) != 2 || got.Components[1].Name != "U" {
		t.Fatalf("components = %+v", got.Components)
	}
}

func TestEntityIdCollisionRoundTrip(t *testing.T) {
	buf, err := Encode(&EntityIdCollisionMsg{OldEntityId: 50, NewEntityId: 51})
	if err != nil {
		t.Fatal(err)
	}
	kind, decoded, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindEntityIdCollision {
		t.Fatalf("kind = %v", kind)
	}
	got := decoded.(*EntityIdCollisionMsg)
	if got.OldEntityId != 50 || got.NewEntityId != 51 {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	if _, _, err := Decode([]byte{0xff}); err == nil {
		t.Fatal("expected error decoding unknown kind")
	}
}

func TestLocalOnlyEntityIdEncodesFaithfully(t *testing.T) {
	id := scene.EntityId(scene.LocalOnlyBit | 5)
	buf, err := Encode(&RemoveEntityMsg{EntityId: id})
	if err != nil {
		t.Fatal(err)
	}
	_, decoded, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.(*RemoveEntityMsg).EntityId != id {
		t.Fatalf("round trip mismatch: %v", decoded)
	}
}
