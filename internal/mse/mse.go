// Package mse implements the cryptographic primitives of Message Stream
// Encryption (MSE): the fixed Diffie-Hellman group, the SHA-1 keyed
// derivations used to agree on ARC4 keys, and an ARC4 keystream wrapper
// that discards the mandatory 1024-byte warm-up.
//
// This mirrors Connector.py's dh_prime/bytetonum/numtobyte and the
// sha('req...'+S) / ARC4.new(...) derivation sequence, translated
// directly onto Go's crypto/rc4, crypto/sha1 and math/big.
package mse

import (
	"crypto/rand"
	"crypto/rc4"
	"crypto/sha1"
	"math/big"
)

// DHBytes is the fixed width of a transmitted DH public value.
const DHBytes = 96

// PadMax bounds the random handshake padding: each side pads with
// [0, PadMax) bytes.
const PadMax = 200

// ARC4WarmupBytes is the number of leading keystream bytes discarded
// after keying an ARC4 direction, before any real use.
const ARC4WarmupBytes = 1024

// dhPrime is the 768-bit MSE safe prime, bit-exact with spec.md §6.
var dhPrime = mustPrime(
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC7" +
		"4020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F14" +
		"374FE1356D6D51C245E485B576625E7EC6F44C42E9A63A36210000000000090563")

func mustPrime(hexDigits string) *big.Int {
	n, ok := new(big.Int).SetString(hexDigits, 16)
	if !ok {
		panic("mse: invalid dh prime literal")
	}
	return n
}

var dhGenerator = big.NewInt(2)

// PrivateKey returns a random 160-bit DH private exponent.
func PrivateKey() (*big.Int, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// PublicKey computes g^priv mod P, encoded as exactly DHBytes big-endian
// bytes, zero-padded on the left.
func PublicKey(priv *big.Int) []byte {
	pub := new(big.Int).Exp(dhGenerator, priv, dhPrime)
	return numToBytes(pub)
}

// SharedSecret computes (peerPublic)^priv mod P from a DHBytes-length
// peer public value, encoded as exactly DHBytes bytes.
func SharedSecret(priv *big.Int, peerPublic []byte) []byte {
	pub := new(big.Int).SetBytes(peerPublic)
	s := new(big.Int).Exp(pub, priv, dhPrime)
	return numToBytes(s)
}

func numToBytes(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= DHBytes {
		return b[len(b)-DHBytes:]
	}
	out := make([]byte, DHBytes)
	copy(out[DHBytes-len(b):], b)
	return out
}

// Pad returns n random bytes, 0 <= n < PadMax.
func Pad() ([]byte, error) {
	nBig, err := rand.Int(rand.Reader, big.NewInt(PadMax))
	if err != nil {
		return nil, err
	}
	n := int(nBig.Int64())
	b := make([]byte, n)
	if n > 0 {
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Sha1 returns the SHA-1 digest of the concatenation of parts.
func Sha1(parts ...[]byte) []byte {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// XOR returns a XOR b; both must be the same length.
func XOR(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Stream wraps an ARC4 cipher keyed for one direction, with the 1024-byte
// warm-up already discarded.
type Stream struct {
	c *rc4.Cipher
}

// NewStream keys an ARC4 stream from key and discards ARC4WarmupBytes of
// keystream before returning.
func NewStream(key []byte) (*Stream, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}
	warm := make([]byte, ARC4WarmupBytes)
	c.XORKeyStream(warm, warm)
	return &Stream{c: c}, nil
}

// XORKeyStream encrypts (or decrypts, ARC4 is symmetric) src into a fresh
// slice the same length as src.
func (s *Stream) XORKeyStream(src []byte) []byte {
	dst := make([]byte, len(src))
	s.c.XORKeyStream(dst, src)
	return dst
}

// KeyA derives the ARC4 key used by the initiator to encrypt / responder
// to decrypt: HASH('keyA' || S || SKEY).
func KeyA(s, skey []byte) []byte { return Sha1([]byte("keyA"), s, skey) }

// KeyB derives the ARC4 key used by the responder to encrypt / initiator
// to decrypt: HASH('keyB' || S || SKEY).
func KeyB(s, skey []byte) []byte { return Sha1([]byte("keyB"), s, skey) }

// Req1 computes HASH('req1' || S), the stream-alignment marker the
// responder scans for.
func Req1(s []byte) []byte { return Sha1([]byte("req1"), s) }

// Req2XorReq3 computes HASH('req2' || SKEY) XOR HASH('req3' || S), the
// identifier the initiator sends so the responder can recover
// HASH('req2'||SKEY) and select the torrent.
func Req2XorReq3(s, skey []byte) []byte {
	return XOR(Sha1([]byte("req2"), skey), Sha1([]byte("req3"), s))
}

// Req3 computes HASH('req3' || S) alone, used by the responder to recover
// HASH('req2'||SKEY) from the initiator's transmitted XOR.
func Req3(s []byte) []byte { return Sha1([]byte("req3"), s) }
