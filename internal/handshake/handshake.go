// Package handshake implements the resumable handshake state machine: the
// plaintext prologue exchange and, ahead of it, the optional Message
// Stream Encryption negotiation. It is expressed as an explicit
// tagged-state machine rather than a goroutine-based coroutine so the
// whole sequence runs inside a single reactor loop with no extra
// goroutines, channels, or locks.
//
// A Machine is fed exactly the number of bytes it last announced via
// Result.NeedMore; it never blocks and never reads past what it asked
// for. This mirrors the "need N more bytes" suspension points of
// Connector.py's handshake generator.
package handshake

import (
	"fmt"
	"math/big"

	"github.com/bealr/peerwire/internal/mse"
	"github.com/bealr/peerwire/internal/wire"
)

// Selector resolves which torrent an inbound connection is for. It is
// only consulted on the responder side; an initiator already knows the
// torrent it dialed out for.
type Selector interface {
	// SelectTorrent is called once the inbound classical handshake's
	// info-hash has been read. Returning false rejects the connection.
	SelectTorrent(infoHash []byte) bool

	// SelectTorrentObfuscated is called with the recovered
	// HASH('req2'||SKEY) candidate during an obfuscated inbound
	// handshake. It returns the real info-hash to adopt, and whether any
	// torrent matched.
	SelectTorrentObfuscated(req2XorReq3 []byte) ([]byte, bool)
}

// Config parameterizes a Machine for one connection.
type Config struct {
	// LocallyInitiated is true when we dialed out; false for an
	// accepted inbound connection.
	LocallyInitiated bool

	// ObfuscateOutgoing requests the MSE obfuscated sequence on an
	// outgoing connection. Ignored for inbound connections, which
	// decide obfuscation from the first received byte.
	ObfuscateOutgoing bool

	// FastEnabled advertises and accepts the FAST extension.
	FastEnabled bool

	MyID [20]byte

	// ExpectedPeerID, when set, is asserted against the peer id read
	// off the wire (an outgoing connection to a known peer).
	ExpectedPeerID *[20]byte

	// InfoHash is the torrent we are dialing out for. Required when
	// LocallyInitiated; ignored otherwise (Selector resolves it).
	InfoHash []byte

	// Selector resolves inbound torrents. Required when
	// !LocallyInitiated.
	Selector Selector
}

// Result is returned by New and Step. Exactly one of Send/NeedMore,
// Done, or Violation is meaningful at a time: a non-zero NeedMore
// always means "call Step again with that many more bytes"; Done and
// Violation are terminal.
type Result struct {
	Send     []byte
	NeedMore int

	Done bool
	// InfoHash, PeerID, flags and crypto streams are populated when
	// Done is true.
	InfoHash   []byte
	PeerID     [20]byte
	UsesDHT    bool
	UsesCache  bool
	UsesFast   bool
	Obfuscated bool
	// EncryptStream/DecryptStream are non-nil only when Obfuscated;
	// the caller must keep encrypting/decrypting all further traffic
	// on this connection with them.
	EncryptStream *mse.Stream
	DecryptStream *mse.Stream

	Violation error
}

// ViolationError reports a handshake protocol violation. The connection
// must be closed; no other recovery exists.
type ViolationError struct {
	Reason string
}

func (e *ViolationError) Error() string { return "handshake: " + e.Reason }

func violation(format string, args ...interface{}) Result {
	return Result{Violation: &ViolationError{Reason: fmt.Sprintf(format, args...)}}
}

type state int

const (
	stateRespPeek state = iota
	stateRespWaitPubKeyRest
	stateRespScanReq1
	stateRespWaitReq23
	stateRespWaitVCBlock
	stateRespWaitPadCIALen
	stateRespWaitIA

	stateObfWaitPubKey
	stateObfScanVC
	stateObfAfterVC
	stateObfSkipPadD

	stateClWaitLen
	stateClWaitName
	stateClWaitReserved
	stateClWaitInfoHash
	stateClWaitPeerID

	stateDone
)

// Machine is a resumable handshake reader/writer for one connection.
// It is not safe for concurrent use; it is driven from the single
// reactor goroutine that owns the connection.
type Machine struct {
	cfg   Config
	state state

	priv *big.Int // DH private exponent, initiator only (the responder's is local to stepRespWaitPubKeyRest)

	dhSecret      []byte
	encStream     *mse.Stream
	decStream     *mse.Stream
	obfuscated    bool
	resolvedInfoHash []byte
	ownHandshakeSent bool

	req1Target   []byte
	pubAPrefix   []byte
	scanWindow   []byte
	scanWindowRaw []byte
	scanCount    int
	pendingPadLen int

	usesDHT, usesCache, usesFast bool
}

// New starts the handshake for cfg, returning the machine along with
// the first Result (any bytes to send immediately, and how many bytes
// to read next).
func New(cfg Config) (*Machine, Result) {
	m := &Machine{cfg: cfg}

	if !cfg.LocallyInitiated {
		m.state = stateRespPeek
		return m, Result{NeedMore: 1}
	}

	if cfg.ObfuscateOutgoing {
		priv, err := mse.PrivateKey()
		if err != nil {
			return m, Result{Violation: err}
		}
		pad, err := mse.Pad()
		if err != nil {
			return m, Result{Violation: err}
		}
		m.priv = priv
		pub := mse.PublicKey(priv)
		m.state = stateObfWaitPubKey
		return m, Result{Send: concat(pub, pad), NeedMore: mse.DHBytes}
	}

	reserved := wire.LocalReserved(cfg.FastEnabled)
	plain := buildClassicalHandshake(reserved, cfg.InfoHash, cfg.MyID)
	m.ownHandshakeSent = true
	m.resolvedInfoHash = cfg.InfoHash
	m.state = stateClWaitLen
	return m, Result{Send: plain, NeedMore: 1}
}

// Step feeds exactly the number of bytes last requested via NeedMore
// and returns the next Result.
func (m *Machine) Step(data []byte) Result {
	if m.state >= stateClWaitLen && m.state <= stateClWaitPeerID && m.decStream != nil {
		data = m.decStream.XORKeyStream(data)
	}
	switch m.state {
	case stateRespPeek:
		return m.stepRespPeek(data)
	case stateRespWaitPubKeyRest:
		return m.stepRespWaitPubKeyRest(data)
	case stateRespScanReq1:
		return m.stepRespScanReq1(data)
	case stateRespWaitReq23:
		return m.stepRespWaitReq23(data)
	case stateRespWaitVCBlock:
		return m.stepRespWaitVCBlock(data)
	case stateRespWaitPadCIALen:
		return m.stepRespWaitPadCIALen(data)
	case stateRespWaitIA:
		return m.stepRespWaitIA(data)

	case stateObfWaitPubKey:
		return m.stepObfWaitPubKey(data)
	case stateObfScanVC:
		return m.stepObfScanVC(data)
	case stateObfAfterVC:
		return m.stepObfAfterVC(data)
	case stateObfSkipPadD:
		return m.stepObfSkipPadD(data)

	case stateClWaitLen:
		return m.stepClWaitLen(data)
	case stateClWaitName:
		return m.stepClWaitName(data)
	case stateClWaitReserved:
		return m.stepClWaitReserved(data)
	case stateClWaitInfoHash:
		return m.stepClWaitInfoHash(data)
	case stateClWaitPeerID:
		return m.stepClWaitPeerID(data)

	default:
		return violation("step called after completion")
	}
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func buildClassicalHandshake(reserved [8]byte, infoHash []byte, myID [20]byte) []byte {
	out := make([]byte, 0, 1+len(wire.ProtocolName)+8+20+20)
	out = append(out, byte(len(wire.ProtocolName)))
	out = append(out, []byte(wire.ProtocolName)...)
	out = append(out, reserved[:]...)
	out = append(out, infoHash...)
	out = append(out, myID[:]...)
	return out
}
