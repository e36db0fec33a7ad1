package components

import "tundra/codec"

// DynamicAttributesTypeHash identifies DynamicAttributes on the wire.
const DynamicAttributesTypeHash uint32 = 0x1002

// DynamicAttributes is an open-ended, ordered bag of named float64
// attributes — the generic fallback for game-specific state that has no
// dedicated component type.
type DynamicAttributes struct {
	name string

	order       []string
	values      map[string]float64
	networkSync bool
}

// NewDynamicAttributes constructs an empty attribute bag with the given
// wire name.
func NewDynamicAttributes(name string) *DynamicAttributes {
	return &DynamicAttributes{
		name:        name,
		values:      make(map[string]float64),
		networkSync: true,
	}
}

func (d *DynamicAttributes) TypeHash() uint32         { return DynamicAttributesTypeHash }
func (d *DynamicAttributes) Name() string             { return d.name }
func (d *DynamicAttributes) Serializable() bool       { return true }
func (d *DynamicAttributes) NetworkSyncEnabled() bool { return d.networkSync }
func (d *DynamicAttributes) SetNetworkSync(v bool)    { d.networkSync = v }

// Set assigns an attribute's value, adding it to the ordering if new.
func (d *DynamicAttributes) Set(key string, value float64) {
	if _, exists := d.values[key]; !exists {
		d.order = append(d.order, key)
	}
	d.values[key] = value
}

// Get returns an attribute's value.
func (d *DynamicAttributes) Get(key string) (float64, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *DynamicAttributes) WriteFull(w *codec.Serializer) error {
	if err := w.WriteU16(uint16(len(d.order))); err != nil {
		return err
	}
	for _, key := range d.order {
		if err := w.WriteString(key); err != nil {
			return err
		}
		if err := w.WriteF64(d.values[key]); err != nil {
			return err
		}
	}
	return nil
}

func (d *DynamicAttributes) ReadFull(r *codec.Deserializer) error {
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	d.order = d.order[:0]
	d.values = make(map[string]float64, n)
	for i := uint16(0); i < n; i++ {
		key, err := r.ReadString()
		if err != nil {
			return err
		}
		v, err := r.ReadF64()
		if err != nil {
			return err
		}
		d.order = append(d.order, key)
		d.values[key] = v
	}
	return nil
}

// WriteDelta encodes only the attributes whose value changed since the
// baseline, each as (index u16, value f64), preceded by a count. A
// missing baseline attribute (index beyond what the baseline held, or
// new key) counts as changed.
func (d *DynamicAttributes) WriteDelta(w *codec.DeltaSerializer) (bool, error) {
	prevOrder, prevValues, err := readAttributeBaseline(w)
	if err != nil {
		return false, err
	}

	type change struct {
		index uint16
		value float64
	}
	var changes []change
	for i, key := range d.order {
		v := d.values[key]
		if i < len(prevOrder) && prevOrder[i] == key {
			if pv, ok := prevValues[key]; ok && pv == v {
				continue
			}
		}
		changes = append(changes, change{index: uint16(i), value: v})
	}
	if len(changes) == 0 {
		return false, nil
	}

	if err := w.WriteU16(uint16(len(changes))); err != nil {
		return false, err
	}
	for _, c := range changes {
		if err := w.WriteU16(c.index); err != nil {
			return false, err
		}
		if err := w.WriteF64(c.value); err != nil {
			return false, err
		}
	}
	return true, nil
}

func readAttributeBaseline(w *codec.DeltaSerializer) ([]string, map[string]float64, error) {
	if !w.HasBaseline() {
		return nil, nil, nil
	}
	baseline := &DynamicAttributes{values: make(map[string]float64)}
	if err := baseline.ReadFull(w.Prev); err != nil {
		return nil, nil, err
	}
	return baseline.order, baseline.values, nil
}

func (d *DynamicAttributes) ReadDelta(r *codec.DeltaDeserializer) error {
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	for i := uint16(0); i < n; i++ {
		index, err := r.ReadU16()
		if err != nil {
			return err
		}
		v, err := r.ReadF64()
		if err != nil {
			return err
		}
		if int(index) < len(d.order) {
			d.values[d.order[index]] = v
		}
	}
	return nil
}
