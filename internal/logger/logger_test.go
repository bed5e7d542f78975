package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestTaggedLevelsContainTheirTag(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Infof("handshake complete with %s", "peer-a")
	l.Failf("bad protocol name from %s", "peer-b")
	l.Errorf("selector misconfigured")

	out := buf.String()
	for _, want := range []string{"INFO", "FAIL", "ERROR", "handshake complete", "bad protocol name", "selector misconfigured"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}
