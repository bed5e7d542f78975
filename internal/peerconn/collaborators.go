package peerconn

import "github.com/bealr/peerwire/internal/bitfield"

// Parent is the swarm-level collaborator: connection bookkeeping,
// torrent selection, choking policy and the rate limiter all live
// outside this package and are reached through this narrow interface.
type Parent interface {
	DownloadID() []byte
	MyID() [20]byte
	NumPieces() int
	MaxMessageLength() int
	OneConnectionPerIP() bool
	Connections() map[interface{}]*Conn

	SelectTorrent(c *Conn, infoHash []byte) bool
	SelectTorrentObfuscated(c *Conn, req2XorReq3 []byte) ([]byte, bool)

	ConnectionCompleted(c *Conn)
	GotPort(c *Conn)
	ReplaceConnection()
	StartConnection(addr string, id []byte, encrypt bool)

	ChokerConnectionLost(c *Conn)
	RateLimiterQueue(c *Conn)
	RateLimiterDequeue(c *Conn)
}

// BufferedPiece is one queued outbound block: its (index, begin,
// length) request tuple plus the block's bytes.
type BufferedPiece struct {
	Index, Begin, Length int
	Data                 []byte
}

// UploadBuffer is the pop-front queue of pending outbound blocks
// referenced by the Upload collaborator.
type UploadBuffer struct {
	items []BufferedPiece
}

// NewUploadBuffer returns an empty buffer.
func NewUploadBuffer() *UploadBuffer { return &UploadBuffer{} }

// Push appends a block to the back of the queue.
func (b *UploadBuffer) Push(p BufferedPiece) { b.items = append(b.items, p) }

// PopFront removes and returns the oldest queued block.
func (b *UploadBuffer) PopFront() (BufferedPiece, bool) {
	if len(b.items) == 0 {
		return BufferedPiece{}, false
	}
	p := b.items[0]
	b.items = b.items[1:]
	return p, true
}

// Empty reports whether the queue has no pending blocks.
func (b *UploadBuffer) Empty() bool { return len(b.items) == 0 }

// Upload is the upload-policy collaborator reached on REQUEST/CANCEL
// and interest changes, and consulted by the partial-send scheduler.
type Upload interface {
	GotRequest(index, begin, length int)
	GotCancel(index, begin, length int)
	GotInterested()
	GotNotInterested()
	SentChoke()
	UpdateRate(n int)
	Choked() bool
	Buffer() *UploadBuffer
}

// Download is the download-policy collaborator reached on every
// incoming message that advances piece state.
type Download interface {
	GotChoke()
	GotUnchoke()
	GotHave(index int)
	GotHaveBitfield(bf *bitfield.Bitfield)
	GotPiece(index, begin int, payload []byte)
	GotSuggestPiece(index int)
	GotHaveAll()
	GotHaveNone()
	GotRejectRequest(index, begin, length int)
	GotAllowedFast(index int)
	Disconnected()
}

// Transport is the raw wire collaborator: a connected socket (or a
// fake over net.Pipe/in-memory buffers in tests).
type Transport interface {
	Write(b []byte) error
	Close() error
	IP() string
	Port() int
}
