// Package components provides concrete scene.Component implementations
// exercised by the replication engine: a spatial Transform, a display
// Name, and an open-ended DynamicAttributes bag.
package components

import (
	"tundra/codec"
)

// TransformTypeHash identifies Transform on the wire.
const TransformTypeHash uint32 = 0x1000

// transform field-group bits for the delta presence bitmask.
const (
	bitPosition = 1 << iota
	bitOrientation
	bitScale
)

// Transform is a position/orientation/scale component, grounded on a
// placeable scene node: position and scale in three axes, orientation as
// a quaternion.
type Transform struct {
	name string

	Position    [3]float64
	Orientation [4]float64
	Scale       [3]float64

	networkSync bool
}

// NewTransform constructs a Transform with the given wire name and unit
// scale/identity orientation.
func NewTransform(name string) *Transform {
	return &Transform{
		name:        name,
		Scale:       [3]float64{1, 1, 1},
		Orientation: [4]float64{0, 0, 0, 1},
		networkSync: true,
	}
}

func (t *Transform) TypeHash() uint32         { return TransformTypeHash }
func (t *Transform) Name() string             { return t.name }
func (t *Transform) Serializable() bool       { return true }
func (t *Transform) NetworkSyncEnabled() bool { return t.networkSync }
func (t *Transform) SetNetworkSync(v bool)    { t.networkSync = v }

func (t *Transform) WriteFull(w *codec.Serializer) error {
	for _, v := range t.Position {
		if err := w.WriteF64(v); err != nil {
			return err
		}
	}
	for _, v := range t.Orientation {
		if err := w.WriteF64(v); err != nil {
			return err
		}
	}
	for _, v := range t.Scale {
		if err := w.WriteF64(v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transform) ReadFull(r *codec.Deserializer) error {
	for i := range t.Position {
		v, err := r.ReadF64()
		if err != nil {
			return err
		}
		t.Position[i] = v
	}
	for i := range t.Orientation {
		v, err := r.ReadF64()
		if err != nil {
			return err
		}
		t.Orientation[i] = v
	}
	for i := range t.Scale {
		v, err := r.ReadF64()
		if err != nil {
			return err
		}
		t.Scale[i] = v
	}
	return nil
}

// WriteDelta encodes a presence bitmask followed by only the field
// groups that changed relative to the baseline. With no baseline every
// group is considered changed.
func (t *Transform) WriteDelta(w *codec.DeltaSerializer) (bool, error) {
	var prev *Transform
	if w.HasBaseline() {
		prev = &Transform{name: t.name}
		if err := prev.ReadFull(w.Prev); err != nil {
			return false, err
		}
	}

	var mask uint8
	if prev == nil || prev.Position != t.Position {
		mask |= bitPosition
	}
	if prev == nil || prev.Orientation != t.Orientation {
		mask |= bitOrientation
	}
	if prev == nil || prev.Scale != t.Scale {
		mask |= bitScale
	}
	if mask == 0 {
		return false, nil
	}

	if err := w.WriteU8(mask); err != nil {
		return false, err
	}
	if mask&bitPosition != 0 {
		for _, v := range t.Position {
			if err := w.WriteF64(v); err != nil {
				return false, err
			}
		}
	}
	if mask&bitOrientation != 0 {
		for _, v := range t.Orientation {
			if err := w.WriteF64(v); err != nil {
				return false, err
			}
		}
	}
	if mask&bitScale != 0 {
		for _, v := range t.Scale {
			if err := w.WriteF64(v); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

func (t *Transform) ReadDelta(r *codec.DeltaDeserializer) error {
	mask, err := r.ReadU8()
	if err != nil {
		return err
	}
	if mask&bitPosition != 0 {
		for i := range t.Position {
			v, err := r.ReadF64()
			if err != nil {
				return err
			}
			t.Position[i] = v
		}
	}
	if mask&bitOrientation != 0 {
		for i := range t.Orientation {
			v, err := r.ReadF64()
			if err != nil {
				return err
			}
			t.Orientation[i] = v
		}
	}
	if mask&bitScale != 0 {
		for i := range t.Scale {
			v, err := r.ReadF64()
			if err != nil {
				return err
			}
			t.Scale[i] = v
		}
	}
	return nil
}
