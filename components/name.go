package components

import "tundra/codec"

// NameTypeHash identifies Name on the wire.
const NameTypeHash uint32 = 0x1001

// Name is a single bounded display-name string attached to an entity.
type Name struct {
	name string

	Value       string
	networkSync bool
}

// NewName constructs a Name component with the given wire name.
func NewName(name string) *Name {
	return &Name{name: name, networkSync: true}
}

func (n *Name) TypeHash() uint32         { return NameTypeHash }
func (n *Name) Name() string             { return n.name }
func (n *Name) Serializable() bool       { return true }
func (n *Name) NetworkSyncEnabled() bool { return n.networkSync }
func (n *Name) SetNetworkSync(v bool)    { n.networkSync = v }

func (n *Name) WriteFull(w *codec.Serializer) error {
	return w.WriteString(n.Value)
}

func (n *Name) ReadFull(r *codec.Deserializer) error {
	v, err := r.ReadString()
	if err != nil {
		return err
	}
	n.Value = v
	return nil
}

// WriteDelta always ships the whole string when it changed; a string
// field has no smaller partial encoding.
func (n *Name) WriteDelta(w *codec.DeltaSerializer) (bool, error) {
	if w.HasBaseline() {
		prevValue, err := w.Prev.ReadString()
		if err != nil {
			return false, err
		}
		if prevValue == n.Value {
			return false, nil
		}
	}
	if err := w.WriteString(n.Value); err != nil {
		return false, err
	}
	return true, nil
}

func (n *Name) ReadDelta(r *codec.DeltaDeserializer) error {
	v, err := r.ReadString()
	if err != nil {
		return err
	}
	n.Value = v
	return nil
}
