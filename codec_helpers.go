package tundra

import (
	"tundra/codec"
	"tundra/scene"
)

// componentBufferCapacity bounds a single component's serialized size.
// Generous enough for the concrete components package's largest type
// (Transform: 10 float64 fields) while still catching runaway writers.
const componentBufferCapacity = 4096

func encodeComponentFull(c scene.Component) ([]byte, error) {
	s := codec.NewSerializer(componentBufferCapacity)
	if err := c.WriteFull(s); err != nil {
		return nil, err
	}
	out := make([]byte, s.Len())
	copy(out, s.Bytes())
	return out, nil
}

func decodeComponentFull(c scene.Component, data []byte) error {
	return c.ReadFull(codec.NewDeserializer(data))
}

// encodeComponentDelta returns changed=false and a nil buffer when the
// component reports no difference from prevBytes; the caller must omit
// the component entirely from the outgoing message in that case.
func encodeComponentDelta(c scene.Component, prevBytes []byte) (data []byte, changed bool, err error) {
	ds := codec.NewDeltaSerializer(componentBufferCapacity, prevBytes)
	changed, err = c.WriteDelta(ds)
	if err != nil || !changed {
		return nil, changed, err
	}
	out := make([]byte, ds.Len())
	copy(out, ds.Bytes())
	return out, true, nil
}

func decodeComponentDelta(c scene.Component, data []byte) error {
	return c.ReadDelta(codec.NewDeltaDeserializer(data))
}
