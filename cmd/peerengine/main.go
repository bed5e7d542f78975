// Command peerengine is a small demo driving one peerconn.Conn against
// an in-process simulated peer over a net.Pipe, to exercise the
// handshake and a scripted message exchange end to end outside of any
// test. It stands in for the teacher's StartDownload entry point.
package main

import (
	"flag"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/bealr/peerwire/internal/logger"
	"github.com/bealr/peerwire/internal/peerconn"
	"github.com/bealr/peerwire/internal/sessionstate"
	"github.com/bealr/peerwire/internal/wire"
)

var (
	numPieces  = flag.Int("pieces", 16, "number of pieces to simulate downloading")
	statePath  = flag.String("state", filepath.Join(os.TempDir(), "peerengine-session.bencode"), "path to the local session file")
	peerPrefix = flag.String("peer-prefix", "-GH0001-", "client-identification prefix for a freshly generated peer id")
)

func main() {
	flag.Parse()

	log := logger.New(os.Stderr)
	sessionID := uuid.New()
	log.Infof("starting demo session %s", sessionID)

	myID, err := loadOrCreatePeerID(*statePath, *peerPrefix, log)
	if err != nil {
		log.Errorf("session state: %v", err)
		os.Exit(1)
	}

	infoHash := make([]byte, 20)
	for i := range infoHash {
		infoHash[i] = byte(i + 1)
	}

	parent := newDemoParent(infoHash, myID, *numPieces, log)

	localConn, remoteConn := net.Pipe()
	defer localConn.Close()
	defer remoteConn.Close()

	peerID := [20]byte{}
	for i := range peerID {
		peerID[i] = byte(0xA0 + i)
	}

	remoteDone := make(chan struct{})
	go simulatePeer(remoteConn, infoHash, myID, peerID, *numPieces, remoteDone)

	transport := newNetTransport(localConn)
	c := peerconn.NewOutgoing(parent, transport, log, true, &peerID, false)
	parent.conns[1] = c

	bar := progressbar.NewOptions(*numPieces*16384,
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(terminalWidth()),
	)
	c.Upload = newDemoUpload()
	c.Download = newDemoDownload(log, bar, *numPieces)

	deliverDone := make(chan struct{})
	go func() {
		readLoop(transport, c.Deliver, func() { c.Lost() })
		close(deliverDone)
	}()

	select {
	case <-remoteDone:
	case <-time.After(5 * time.Second):
		log.Errorf("timed out waiting for simulated peer")
	}
	// Close only the transport here; Conn itself is driven exclusively
	// from the readLoop goroutine, so tearing it down happens there too
	// once the closed transport surfaces as a read error.
	_ = transport.Close()
	<-deliverDone

	if err := sessionstate.Save(*statePath, &sessionstate.Record{
		PeerID:   string(myID[:]),
		LastSeen: 0,
	}); err != nil {
		log.Errorf("saving session state: %v", err)
	}
	log.Infof("demo session %s complete", sessionID)
}

func loadOrCreatePeerID(path, prefix string, log *logger.Logger) ([20]byte, error) {
	var id [20]byte
	rec, err := sessionstate.Load(path)
	if err != nil {
		return id, err
	}
	if rec != nil && len(rec.PeerID) == 20 {
		copy(id[:], rec.PeerID)
		log.Infof("reusing persisted peer id from %s", path)
		return id, nil
	}
	id, err = sessionstate.NewPeerID(prefix)
	if err != nil {
		return id, err
	}
	log.Infof("generated fresh peer id (no prior session at %s)", path)
	return id, nil
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// simulatePeer plays the remote side of the wire protocol directly,
// without its own peerconn.Conn: a classical handshake reply, a full
// bitfield, and one piece per simulated piece index.
func simulatePeer(conn net.Conn, infoHash []byte, expectPeerID, myPeerID [20]byte, numPieces int, done chan<- struct{}) {
	defer close(done)
	defer conn.Close()

	hsLen := 1 + 19 + 8 + 20 + 20
	hsIn := make([]byte, hsLen)
	if _, err := readFull(conn, hsIn); err != nil {
		return
	}
	if hsIn[0] != 19 || string(hsIn[1:20]) != "BitTorrent protocol" {
		return
	}

	reply := make([]byte, 0, hsLen)
	reply = append(reply, 19)
	reply = append(reply, "BitTorrent protocol"...)
	reply = append(reply, 0, 0, 0, 0, 0, 0, 0, 4) // FAST bit only
	reply = append(reply, infoHash...)
	reply = append(reply, myPeerID[:]...)
	if _, err := conn.Write(reply); err != nil {
		return
	}

	bits := make([]byte, (numPieces+7)/8)
	for i := 0; i < numPieces; i++ {
		bits[i/8] |= 1 << uint(7-i%8)
	}
	if _, err := conn.Write(wire.EncodeBitfield(bits)); err != nil {
		return
	}

	payload := make([]byte, 16384)
	for i := range payload {
		payload[i] = byte(i)
	}
	for i := 0; i < numPieces; i++ {
		if _, err := conn.Write(wire.EncodePiece(int32(i), 0, payload)); err != nil {
			return
		}
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
