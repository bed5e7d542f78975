package sessionstate

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsNilRecord(t *testing.T) {
	rec, err := Load(filepath.Join(t.TempDir(), "nope.bencode"))
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if rec != nil {
		t.Fatalf("rec = %+v, want nil", rec)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.bencode")
	id, err := NewPeerID("-GH0001-")
	if err != nil {
		t.Fatalf("NewPeerID: %v", err)
	}

	want := &Record{PeerID: string(id[:]), LastSeen: 1735689600}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PeerID != want.PeerID || got.LastSeen != want.LastSeen {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestNewPeerIDKeepsPrefix(t *testing.T) {
	id, err := NewPeerID("-GH0001-")
	if err != nil {
		t.Fatalf("NewPeerID: %v", err)
	}
	if string(id[:8]) != "-GH0001-" {
		t.Fatalf("prefix = %q, want -GH0001-", id[:8])
	}
}
