// Package peerconn implements the PeerConnection entity: one peer-wire
// connection driven entirely by calls from a single reactor goroutine.
// It owns no internal locks and performs no blocking I/O; it is a pure
// state machine over handshake, framereader and wire, reached through
// the narrow Parent/Upload/Download/Transport collaborator interfaces.
package peerconn

import (
	"errors"

	"github.com/bealr/peerwire/internal/bitfield"
	"github.com/bealr/peerwire/internal/framereader"
	"github.com/bealr/peerwire/internal/handshake"
	"github.com/bealr/peerwire/internal/logger"
	"github.com/bealr/peerwire/internal/mse"
)

// defaultMaxMessageLength matches the conservative 1 MiB ceiling used
// elsewhere in this codebase for a single frame body.
const defaultMaxMessageLength = 1 << 20

// Conn is one peer-wire connection. It must only ever be driven from a
// single goroutine: Deliver, Flushed, Lost and every Send* method are
// not safe for concurrent use.
type Conn struct {
	PeerID    [20]byte
	HasPeerID bool

	IP   string
	Port int

	LocallyInitiated bool
	Complete         bool
	Closed           bool
	GotAnything      bool
	ReceivedData     bool

	UsesDHT            bool
	UsesCacheExtension bool
	UsesFastExtension  bool
	DHTPort            int

	Upload   Upload
	Download Download

	ChokeSent bool

	parent    Parent
	transport Transport
	log       *logger.Logger

	fastEnabled bool

	hs            *handshake.Machine
	hsNeed        int
	handshakeDone bool

	fr     *framereader.Reader
	frNeed int

	encryptStream *mse.Stream

	pending []byte

	partialMessage []byte
	outqueue       [][]byte

	queuedWithRateLimiter bool

	// sloppyPreConnectionCounter tallies bytes delivered before the
	// handshake completed and a real Download was installed. It is
	// best-effort accounting only and is not read anywhere in this
	// package.
	sloppyPreConnectionCounter int
}

type selectorAdapter struct{ c *Conn }

func (s selectorAdapter) SelectTorrent(infoHash []byte) bool {
	return s.c.parent.SelectTorrent(s.c, infoHash)
}

func (s selectorAdapter) SelectTorrentObfuscated(req2XorReq3 []byte) ([]byte, bool) {
	return s.c.parent.SelectTorrentObfuscated(s.c, req2XorReq3)
}

// NewOutgoing dials out to a known (or not yet known) peer id for
// parent's current torrent. obfuscate requests the MSE handshake.
func NewOutgoing(parent Parent, transport Transport, log *logger.Logger, fastEnabled bool, expectedPeerID *[20]byte, obfuscate bool) *Conn {
	c := &Conn{
		parent:           parent,
		transport:        transport,
		log:              log,
		fastEnabled:      fastEnabled,
		LocallyInitiated: true,
		IP:               transport.IP(),
		Port:             transport.Port(),
		Upload:           noopUpload{},
		Download:         noopDownload{},
	}

	cfg := handshake.Config{
		LocallyInitiated:  true,
		ObfuscateOutgoing: obfuscate,
		FastEnabled:       fastEnabled,
		MyID:              parent.MyID(),
		ExpectedPeerID:    expectedPeerID,
		InfoHash:          parent.DownloadID(),
	}
	m, res := handshake.New(cfg)
	c.hs = m
	c.handleHandshakeResult(res)
	return c
}

// NewIncoming accepts a connection whose torrent is not yet known; the
// handshake machine resolves it via parent.SelectTorrent(Obfuscated).
func NewIncoming(parent Parent, transport Transport, log *logger.Logger, fastEnabled bool) *Conn {
	c := &Conn{
		parent:      parent,
		transport:   transport,
		log:         log,
		fastEnabled: fastEnabled,
		IP:          transport.IP(),
		Port:        transport.Port(),
		Upload:      noopUpload{},
		Download:    noopDownload{},
	}

	cfg := handshake.Config{
		LocallyInitiated: false,
		FastEnabled:      fastEnabled,
		MyID:             parent.MyID(),
		Selector:         selectorAdapter{c},
	}
	m, res := handshake.New(cfg)
	c.hs = m
	c.handleHandshakeResult(res)
	return c
}

// Deliver feeds bytes arriving from the transport, in arbitrary-sized
// chunks; Conn buffers internally until each stage's announced
// requirement is met before advancing. This is what makes the overall
// behavior invariant to how the transport happens to fragment reads.
func (c *Conn) Deliver(data []byte) {
	if c.Closed {
		return
	}
	c.ReceivedData = true
	if !c.Complete {
		c.sloppyPreConnectionCounter += len(data)
	}
	c.pending = append(c.pending, data...)

	for !c.Closed {
		if !c.handshakeDone {
			if len(c.pending) < c.hsNeed {
				return
			}
			chunk := c.pending[:c.hsNeed]
			c.pending = c.pending[c.hsNeed:]
			res := c.hs.Step(chunk)
			if !c.handleHandshakeResult(res) {
				return
			}
			continue
		}

		if len(c.pending) < c.frNeed {
			return
		}
		chunk := c.pending[:c.frNeed]
		c.pending = c.pending[c.frNeed:]
		res := c.fr.Step(chunk)
		if res.Violation != nil {
			c.violationClose(res.Violation)
			return
		}
		c.frNeed = res.NeedMore
		if res.HasFrame {
			if err := c.dispatchFrame(res.Frame); err != nil {
				c.violationClose(err)
				return
			}
		}
	}
}

// handleHandshakeResult applies one handshake.Result: writes any bytes
// to send, and either advances hsNeed, completes the handshake, or
// closes on violation. Returns false if the connection was closed and
// should not be driven further this call; waiting on more bytes is left
// to the caller's hsNeed check.
func (c *Conn) handleHandshakeResult(res handshake.Result) bool {
	if res.Violation != nil {
		c.violationClose(res.Violation)
		return false
	}
	if len(res.Send) > 0 {
		if err := c.transport.Write(res.Send); err != nil {
			c.violationClose(err)
			return false
		}
	}
	if res.Done {
		c.completeHandshake(res)
		return true
	}
	c.hsNeed = res.NeedMore
	return true
}

func (c *Conn) completeHandshake(res handshake.Result) {
	c.UsesDHT = res.UsesDHT
	c.UsesCacheExtension = res.UsesCache
	c.UsesFastExtension = res.UsesFast
	c.PeerID = res.PeerID
	c.HasPeerID = true

	for _, other := range c.parent.Connections() {
		if other == c {
			continue
		}
		if other.HasPeerID && other.PeerID == c.PeerID {
			c.violationClose(errors.New("peerconn: duplicate peer id"))
			return
		}
		if c.parent.OneConnectionPerIP() && c.IP != "" && other.IP == c.IP {
			c.violationClose(errors.New("peerconn: duplicate ip, one_connection_per_ip"))
			return
		}
	}

	c.encryptStream = res.EncryptStream
	maxLen := c.parent.MaxMessageLength()
	if maxLen <= 0 {
		maxLen = defaultMaxMessageLength
	}
	fr, frRes := framereader.New(maxLen, res.DecryptStream)
	c.fr = fr
	c.frNeed = frRes.NeedMore

	c.Complete = true
	c.handshakeDone = true
	c.parent.ConnectionCompleted(c)
}

// writeFrame writes one already-framed message, applying obfuscation
// encryption if this connection negotiated it. It is the single write
// path used by every post-handshake sender.
func (c *Conn) writeFrame(b []byte) error {
	if c.Closed {
		return nil
	}
	out := b
	if c.encryptStream != nil {
		out = c.encryptStream.XORKeyStream(b)
	}
	return c.transport.Write(out)
}

func (c *Conn) violationClose(err error) {
	if c.log != nil {
		c.log.Failf("peer %s:%d: %v", c.IP, c.Port, err)
	}
	c.Close()
}

type noopUpload struct{}

func (noopUpload) GotRequest(int, int, int)    {}
func (noopUpload) GotCancel(int, int, int)     {}
func (noopUpload) GotInterested()              {}
func (noopUpload) GotNotInterested()           {}
func (noopUpload) SentChoke()                  {}
func (noopUpload) UpdateRate(int)              {}
func (noopUpload) Choked() bool                { return true }
func (noopUpload) Buffer() *UploadBuffer       { return NewUploadBuffer() }

type noopDownload struct{}

func (noopDownload) GotChoke()                             {}
func (noopDownload) GotUnchoke()                           {}
func (noopDownload) GotHave(int)                           {}
func (noopDownload) GotHaveBitfield(bf *bitfield.Bitfield) {}
func (noopDownload) GotPiece(int, int, []byte)              {}
func (noopDownload) GotSuggestPiece(int)                    {}
func (noopDownload) GotHaveAll()                            {}
func (noopDownload) GotHaveNone()                           {}
func (noopDownload) GotRejectRequest(int, int, int)         {}
func (noopDownload) GotAllowedFast(int)                     {}
func (noopDownload) Disconnected()                          {}
