package bitfield

import "testing"

func TestSetTestRoundTrip(t *testing.T) {
	bf := New(20)
	bf.Set(0)
	bf.Set(19)
	bf.Set(7)

	if !bf.Test(0) || !bf.Test(19) || !bf.Test(7) {
		t.Fatal("expected set bits to read back true")
	}
	if bf.Test(1) || bf.Test(18) {
		t.Fatal("expected unset bits to read back false")
	}
	if bf.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", bf.Count())
	}
}

func TestNewFromBytesRejectsWrongLength(t *testing.T) {
	_, err := NewFromBytes(20, make([]byte, 2))
	if err == nil {
		t.Fatal("expected error for wrong-length bitfield")
	}
}

func TestNewFromBytesRejectsSpareBitsSet(t *testing.T) {
	// 10 pieces -> 2 bytes, 6 spare bits in the trailing byte.
	b := []byte{0xFF, 0xFF}
	_, err := NewFromBytes(10, b)
	if err == nil {
		t.Fatal("expected error for set spare bits")
	}
}

func TestAll(t *testing.T) {
	bf := New(3)
	if bf.All() {
		t.Fatal("empty bitfield should not be All()")
	}
	bf.Set(0)
	bf.Set(1)
	bf.Set(2)
	if !bf.All() {
		t.Fatal("fully set bitfield should be All()")
	}
}

func TestClear(t *testing.T) {
	bf := New(8)
	bf.Set(3)
	bf.Clear(3)
	if bf.Test(3) {
		t.Fatal("expected cleared bit to read back false")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	bf := New(17)
	bf.Set(0)
	bf.Set(16)
	bf2, err := NewFromBytes(17, bf.Bytes())
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	if !bf2.Test(0) || !bf2.Test(16) {
		t.Fatal("round-tripped bitfield lost set bits")
	}
}
