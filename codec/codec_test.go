package codec

import "testing"

func TestSerializerRoundTrip(t *testing.T) {
	s := NewSerializer(64)
	if err := s.WriteU8(7); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteU16(1234); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteU32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteU64(0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteF32(1.5); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteF64(-2.25); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteBool(true); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteString("hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteBlob([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	d := NewDeserializer(s.Bytes())

	if v, err := d.ReadU8(); err != nil || v != 7 {
		t.Fatalf("ReadU8 = %d, %v", v, err)
	}
	if v, err := d.ReadU16(); err != nil || v != 1234 {
		t.Fatalf("ReadU16 = %d, %v", v, err)
	}
	if v, err := d.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %x, %v", v, err)
	}
	if v, err := d.ReadU64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("ReadU64 = %x, %v", v, err)
	}
	if v, err := d.ReadF32(); err != nil || v != 1.5 {
		t.Fatalf("ReadF32 = %v, %v", v, err)
	}
	if v, err := d.ReadF64(); err != nil || v != -2.25 {
		t.Fatalf("ReadF64 = %v, %v", v, err)
	}
	if v, err := d.ReadBool(); err != nil || v != true {
		t.Fatalf("ReadBool = %v, %v", v, err)
	}
	if v, err := d.ReadString(); err != nil || v != "hello" {
		t.Fatalf("ReadString = %q, %v", v, err)
	}
	if v, err := d.ReadBlob(); err != nil || string(v) != "\x01\x02\x03" {
		t.Fatalf("ReadBlob = %v, %v", v, err)
	}
	if d.Remaining() != 0 {
		t.Fatalf("expected 0 remaining bytes, got %d", d.Remaining())
	}
}

func TestSerializerOverflow(t *testing.T) {
	s := NewSerializer(2)
	if err := s.WriteU16(1); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteU8(1); err != ErrBufferOverflow {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
}

func TestSerializerStringTooLong(t *testing.T) {
	s := NewSerializer(8)
	huge := make([]byte, MaxStringBytes+1)
	if err := s.WriteString(string(huge)); err != ErrInvalidEncoding {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestDeserializerShortRead(t *testing.T) {
	d := NewDeserializer([]byte{1, 2})
	if _, err := d.ReadU32(); err != ErrShortRead {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

func TestDeserializerInvalidUTF8(t *testing.T) {
	buf := []byte{2, 0, 0xff, 0xfe}
	d := NewDeserializer(buf)
	if _, err := d.ReadString(); err != ErrInvalidEncoding {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestDeltaSerializerNoBaseline(t *testing.T) {
	ds := NewDeltaSerializer(16, nil)
	if ds.HasBaseline() {
		t.Fatal("expected no baseline")
	}
}

func TestDeltaSerializerWithBaseline(t *testing.T) {
	prev := NewSerializer(8)
	if err := prev.WriteF64(1); err != nil {
		t.Fatal(err)
	}
	ds := NewDeltaSerializer(16, prev.Bytes())
	if !ds.HasBaseline() {
		t.Fatal("expected baseline")
	}
	v, err := ds.Prev.ReadF64()
	if err != nil || v != 1 {
		t.Fatalf("Prev.ReadF64 = %v, %v", v, err)
	}
}
