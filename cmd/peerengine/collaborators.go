package main

import (
	"bytes"

	"github.com/schollz/progressbar/v3"

	"github.com/bealr/peerwire/internal/bitfield"
	"github.com/bealr/peerwire/internal/logger"
	"github.com/bealr/peerwire/internal/peerconn"
)

// demoParent is the minimal Parent a single-connection demo needs: one
// torrent, one peer, no swarm bookkeeping beyond what Conn itself asks
// for.
type demoParent struct {
	infoHash      []byte
	myID          [20]byte
	numPieces     int
	maxMessageLen int
	log           *logger.Logger
	conns         map[interface{}]*peerconn.Conn
}

func newDemoParent(infoHash []byte, myID [20]byte, numPieces int, log *logger.Logger) *demoParent {
	return &demoParent{
		infoHash:      infoHash,
		myID:          myID,
		numPieces:     numPieces,
		maxMessageLen: 1 << 20,
		log:           log,
		conns:         map[interface{}]*peerconn.Conn{},
	}
}

func (p *demoParent) DownloadID() []byte       { return p.infoHash }
func (p *demoParent) MyID() [20]byte           { return p.myID }
func (p *demoParent) NumPieces() int           { return p.numPieces }
func (p *demoParent) MaxMessageLength() int    { return p.maxMessageLen }
func (p *demoParent) OneConnectionPerIP() bool { return false }

func (p *demoParent) Connections() map[interface{}]*peerconn.Conn { return p.conns }

func (p *demoParent) SelectTorrent(c *peerconn.Conn, infoHash []byte) bool {
	return bytes.Equal(infoHash, p.infoHash)
}

func (p *demoParent) SelectTorrentObfuscated(c *peerconn.Conn, req2XorReq3 []byte) ([]byte, bool) {
	return p.infoHash, true
}

func (p *demoParent) ConnectionCompleted(c *peerconn.Conn) {
	p.log.Infof("handshake complete with %s:%d (dht=%v fast=%v)", c.IP, c.Port, c.UsesDHT, c.UsesFastExtension)
}

func (p *demoParent) GotPort(c *peerconn.Conn) {
	p.log.Infof("peer %s advertised DHT port %d", c.IP, c.DHTPort)
}

func (p *demoParent) ReplaceConnection() {}

func (p *demoParent) StartConnection(addr string, id []byte, encrypt bool) {
	p.log.Infof("would reconnect to %s (obfuscated=%v)", addr, encrypt)
}

func (p *demoParent) ChokerConnectionLost(c *peerconn.Conn) {
	p.log.Infof("lost connection to %s:%d", c.IP, c.Port)
}

func (p *demoParent) RateLimiterQueue(c *peerconn.Conn)   {}
func (p *demoParent) RateLimiterDequeue(c *peerconn.Conn) {}

// demoUpload is an always-unchoked uploader with an empty send buffer;
// the demo only pulls data, it never serves any.
type demoUpload struct {
	buf *peerconn.UploadBuffer
}

func newDemoUpload() *demoUpload { return &demoUpload{buf: peerconn.NewUploadBuffer()} }

func (u *demoUpload) GotRequest(index, begin, length int) {}
func (u *demoUpload) GotCancel(index, begin, length int)  {}
func (u *demoUpload) GotInterested()                      {}
func (u *demoUpload) GotNotInterested()                   {}
func (u *demoUpload) SentChoke()                          {}
func (u *demoUpload) UpdateRate(n int)                    {}
func (u *demoUpload) Choked() bool                        { return false }
func (u *demoUpload) Buffer() *peerconn.UploadBuffer      { return u.buf }

// demoDownload drives a progress bar from GotPiece and GotHave
// notifications, standing in for a real piece-picker/disk-writer.
type demoDownload struct {
	log *logger.Logger
	bar *progressbar.ProgressBar
	bf  *bitfield.Bitfield
}

func newDemoDownload(log *logger.Logger, bar *progressbar.ProgressBar, numPieces int) *demoDownload {
	return &demoDownload{log: log, bar: bar, bf: bitfield.New(numPieces)}
}

func (d *demoDownload) GotChoke()   { d.log.Infof("choked by peer") }
func (d *demoDownload) GotUnchoke() { d.log.Infof("unchoked by peer") }

func (d *demoDownload) GotHave(index int) {
	d.bf.Set(index)
	d.log.Infof("peer has piece %d (%d/%d known)", index, d.bf.Count(), d.bf.NumPieces())
}

func (d *demoDownload) GotHaveBitfield(bf *bitfield.Bitfield) {
	d.bf = bf
	d.log.Infof("peer bitfield: %d/%d pieces", bf.Count(), bf.NumPieces())
}

func (d *demoDownload) GotPiece(index, begin int, payload []byte) {
	_ = d.bar.Add(len(payload))
}

func (d *demoDownload) GotSuggestPiece(index int)                 {}
func (d *demoDownload) GotHaveAll()                               { d.log.Infof("peer has all pieces") }
func (d *demoDownload) GotHaveNone()                              { d.log.Infof("peer has no pieces") }
func (d *demoDownload) GotRejectRequest(index, begin, length int) {}
func (d *demoDownload) GotAllowedFast(index int)                  {}
func (d *demoDownload) Disconnected()                             { d.log.Infof("download side disconnected") }
