// Package sessionstate persists the local peer id across runs of the
// demo CLI so repeated invocations present a stable identity instead of
// generating a fresh one every time. It bencodes a single record to a
// small local file, the same encoding the teacher uses for .torrent
// metadata, repurposed here for client-local bookkeeping rather than
// torrent data.
package sessionstate

import (
	"crypto/rand"
	"fmt"
	"os"

	bencode "github.com/jackpal/bencode-go"
)

// Record is the on-disk session record.
type Record struct {
	PeerID   string `bencode:"peer_id"`
	LastSeen int64  `bencode:"last_seen"`
}

// Load reads a session record from path. A missing file is not an
// error: callers should generate a fresh peer id in that case.
func Load(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var rec Record
	if err := bencode.Unmarshal(f, &rec); err != nil {
		return nil, fmt.Errorf("sessionstate: decode %s: %w", path, err)
	}
	return &rec, nil
}

// Save writes rec to path, overwriting any existing file.
func Save(path string, rec *Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sessionstate: create %s: %w", path, err)
	}
	defer f.Close()

	if err := bencode.Marshal(f, *rec); err != nil {
		return fmt.Errorf("sessionstate: encode %s: %w", path, err)
	}
	return nil
}

// NewPeerID builds a fresh 20-byte peer id from a fixed client prefix
// followed by random bytes, in the teacher's "-GT0001-"-style
// client-identification convention.
func NewPeerID(prefix string) ([20]byte, error) {
	var id [20]byte
	n := copy(id[:], prefix)
	if n < len(id) {
		if _, err := rand.Read(id[n:]); err != nil {
			return id, err
		}
	}
	return id, nil
}
