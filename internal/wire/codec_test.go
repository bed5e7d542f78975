package wire

import (
	"bytes"
	"testing"
)

func TestHaveRoundTrip(t *testing.T) {
	frame := EncodeHave(0x01020304)
	want := []byte{0x00, 0x00, 0x00, 0x05, byte(Have), 0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(frame, want) {
		t.Fatalf("EncodeHave = % x, want % x", frame, want)
	}

	length := Uint32(frame[0:4])
	if int(length) != len(frame)-4 {
		t.Fatalf("length prefix %d does not match body length %d", length, len(frame)-4)
	}
	body := frame[4:]
	if MessageType(body[0]) != Have {
		t.Fatalf("decoded type = %v, want HAVE", MessageType(body[0]))
	}
	idx, err := DecodeIndex(body[1:])
	if err != nil {
		t.Fatal(err)
	}
	if idx != 0x01020304 {
		t.Fatalf("decoded index = %x, want 0x01020304", idx)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	frame := EncodeRequest(1, 2, 3)
	body := frame[4:]
	if MessageType(body[0]) != Request {
		t.Fatalf("type = %v, want REQUEST", MessageType(body[0]))
	}
	p, err := DecodeIndexBeginLength(body[1:])
	if err != nil {
		t.Fatal(err)
	}
	if p != (RequestPayload{1, 2, 3}) {
		t.Fatalf("decoded = %+v, want {1 2 3}", p)
	}
}

func TestPieceRoundTrip(t *testing.T) {
	payload := []byte("hello world")
	frame := EncodePiece(5, 10, payload)
	body := frame[4:]
	idx, begin, data, err := DecodePiece(body[1:])
	if err != nil {
		t.Fatal(err)
	}
	if idx != 5 || begin != 10 || !bytes.Equal(data, payload) {
		t.Fatalf("decoded (%d,%d,%q), want (5,10,%q)", idx, begin, data, payload)
	}
}

func TestPortRoundTrip(t *testing.T) {
	frame := EncodePort(6881)
	body := frame[4:]
	p, err := DecodePort(body[1:])
	if err != nil {
		t.Fatal(err)
	}
	if p != 6881 {
		t.Fatalf("decoded port = %d, want 6881", p)
	}
}

func TestKeepAliveIsZeroLength(t *testing.T) {
	frame := KeepAlive()
	if !bytes.Equal(frame, []byte{0, 0, 0, 0}) {
		t.Fatalf("KeepAlive() = % x, want 00 00 00 00", frame)
	}
}

func TestLocalReservedFlags(t *testing.T) {
	r := LocalReserved(true)
	if r[7] != FlagDHT|FlagFast {
		t.Fatalf("reserved[7] = %x, want DHT|FAST", r[7])
	}
	r2 := LocalReserved(false)
	if r2[7] != FlagDHT {
		t.Fatalf("reserved[7] = %x, want DHT only", r2[7])
	}
}
