package framereader

import (
	"bytes"
	"testing"
)

// drive feeds stream to a fresh Reader through external chunks of
// exactly chunkSize bytes (the last possibly shorter), buffering
// internally until the Reader's announced NeedMore is satisfied before
// calling Step — the same buffering a reactor's transport callback
// would do. This exercises chunking-invariance of the extracted frame
// sequence regardless of how the underlying transport fragments reads.
func drive(t *testing.T, stream []byte, chunkSize int) [][]byte {
	t.Helper()
	r, res := New(1<<20, nil)
	var frames [][]byte
	var pending []byte
	pos := 0
	for pos < len(stream) || len(pending) >= res.NeedMore {
		for len(pending) < res.NeedMore && pos < len(stream) {
			end := pos + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			pending = append(pending, stream[pos:end]...)
			pos = end
		}
		if len(pending) < res.NeedMore {
			break
		}
		chunk := pending[:res.NeedMore]
		pending = pending[res.NeedMore:]
		res = r.Step(chunk)
		if res.Violation != nil {
			t.Fatalf("unexpected violation: %v", res.Violation)
		}
		if res.HasFrame {
			frames = append(frames, res.Frame)
		}
	}
	return frames
}

func TestChunkingInvarianceOfExtractedFrames(t *testing.T) {
	var stream []byte
	stream = append(stream, 0, 0, 0, 0) // keep-alive
	stream = append(stream, 0, 0, 0, 5, 4, 1, 2, 3, 4) // HAVE
	stream = append(stream, 0, 0, 0, 1, 0) // CHOKE

	a := drive(t, stream, 1)
	b := drive(t, stream, 3)

	if len(a) != len(b) {
		t.Fatalf("frame counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			t.Fatalf("frame %d differs: % x vs % x", i, a[i], b[i])
		}
	}
	if len(a) != 3 {
		t.Fatalf("got %d frames, want 3", len(a))
	}
	if a[0] != nil {
		t.Fatalf("first frame should be a nil keep-alive, got % x", a[0])
	}
}

func TestOversizeFrameCloses(t *testing.T) {
	r, res := New(10, nil)
	res = r.Step([]byte{0, 0, 0, 100})
	if res.Violation == nil {
		t.Fatalf("expected violation for oversize frame")
	}
}
