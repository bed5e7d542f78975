package mse

import (
	"bytes"
	"crypto/rc4"
	"testing"
)

func TestDiffieHellmanCommutes(t *testing.T) {
	a, err := PrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	b, err := PrivateKey()
	if err != nil {
		t.Fatal(err)
	}

	pubA := PublicKey(a)
	pubB := PublicKey(b)

	if len(pubA) != DHBytes || len(pubB) != DHBytes {
		t.Fatalf("public key length = %d/%d, want %d", len(pubA), len(pubB), DHBytes)
	}

	sharedFromA := SharedSecret(a, pubB)
	sharedFromB := SharedSecret(b, pubA)

	if !bytes.Equal(sharedFromA, sharedFromB) {
		t.Fatalf("shared secrets differ:\na: % x\nb: % x", sharedFromA, sharedFromB)
	}
	if len(sharedFromA) != DHBytes {
		t.Fatalf("shared secret length = %d, want %d", len(sharedFromA), DHBytes)
	}
}

func TestArc4CrossDirectionRoundTrip(t *testing.T) {
	s := bytes.Repeat([]byte{0x42}, DHBytes)
	skey := []byte("info-hash-placeholder-20b!!")

	initiatorEncrypt, err := NewStream(KeyA(s, skey))
	if err != nil {
		t.Fatal(err)
	}
	responderDecrypt, err := NewStream(KeyA(s, skey))
	if err != nil {
		t.Fatal(err)
	}

	plain := []byte("the quick brown fox jumps over the lazy dog")
	cipher := initiatorEncrypt.XORKeyStream(plain)
	recovered := responderDecrypt.XORKeyStream(cipher)

	if !bytes.Equal(recovered, plain) {
		t.Fatalf("recovered = %q, want %q", recovered, plain)
	}

	responderEncrypt, err := NewStream(KeyB(s, skey))
	if err != nil {
		t.Fatal(err)
	}
	initiatorDecrypt, err := NewStream(KeyB(s, skey))
	if err != nil {
		t.Fatal(err)
	}
	cipher2 := responderEncrypt.XORKeyStream(plain)
	recovered2 := initiatorDecrypt.XORKeyStream(cipher2)
	if !bytes.Equal(recovered2, plain) {
		t.Fatalf("recovered2 = %q, want %q", recovered2, plain)
	}
}

func TestReq2XorReq3Recovery(t *testing.T) {
	s := bytes.Repeat([]byte{0x7a}, DHBytes)
	skey := []byte("another-twenty-byte-hash")

	sent := Req2XorReq3(s, skey)
	req2 := XOR(sent, Req3(s))

	want := Sha1([]byte("req2"), skey)
	if !bytes.Equal(req2, want) {
		t.Fatalf("recovered req2 = % x, want % x", req2, want)
	}
}

func TestPadWithinBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		p, err := Pad()
		if err != nil {
			t.Fatal(err)
		}
		if len(p) >= PadMax {
			t.Fatalf("pad length %d >= PadMax %d", len(p), PadMax)
		}
	}
}

func TestNewStreamDiscardsWarmup(t *testing.T) {
	key := []byte("some-key")
	s1, err := NewStream(key)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewStream(key)
	if err != nil {
		t.Fatal(err)
	}
	out1 := s1.XORKeyStream(make([]byte, 16))
	out2 := s2.XORKeyStream(make([]byte, 16))
	if !bytes.Equal(out1, out2) {
		t.Fatalf("two streams keyed identically diverged after warm-up")
	}

	raw, err := rc4.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	keystream := make([]byte, ARC4WarmupBytes+16)
	raw.XORKeyStream(keystream, keystream)
	if !bytes.Equal(out1, keystream[ARC4WarmupBytes:]) {
		t.Fatalf("stream output does not start at keystream offset %d", ARC4WarmupBytes)
	}
}
