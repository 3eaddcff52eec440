package subdoc_test

import (
	"testing"

	"github.com/agentflare-ai/subdoc"
)

func TestLocationBytes(t *testing.T) {
	buf := []byte(`{"a":1}`)
	loc := subdoc.NewLocation(buf, 1, 3)
	if got := string(loc.Bytes()); got != `"a"` {
		t.Fatalf("Bytes() = %q, want %q", got, `"a"`)
	}
	if loc.Start() != 1 || loc.End() != 4 || loc.Len() != 3 {
		t.Fatalf("bounds = [%d,%d) len %d", loc.Start(), loc.End(), loc.Len())
	}
}

func TestLocationEmpty(t *testing.T) {
	var loc subdoc.Location
	if !loc.Empty() {
		t.Fatal("zero-value Location should be Empty")
	}
	if loc.Bytes() != nil {
		t.Fatal("Empty Location should return nil Bytes")
	}
}

func TestLocationBeginAtEndAndRest(t *testing.T) {
	buf := []byte(`{"a":1,"b":2}`)
	valLoc := subdoc.NewLocation(buf, 5, 1) // the "1"

	before := valLoc.BeginAtEnd()
	if string(before.Bytes()) != `{"a":` {
		t.Fatalf("BeginAtEnd() = %q", before.Bytes())
	}

	after := valLoc.Rest()
	if string(after.Bytes()) != `,"b":2}` {
		t.Fatalf("Rest() = %q", after.Bytes())
	}
}

func TestLocationEndAtBegin(t *testing.T) {
	buf := []byte(`{"a":1,"b":2}`)
	key := subdoc.NewLocation(buf, 1, 3)   // "a"
	val := subdoc.NewLocation(buf, 5, 1)   // 1
	between := key.EndAtBegin(val)
	if string(between.Bytes()) != `:` {
		t.Fatalf("EndAtBegin() = %q", between.Bytes())
	}
}

func TestLocationTrimTrailingSpaces(t *testing.T) {
	buf := []byte(`1   `)
	loc := subdoc.NewLocation(buf, 0, len(buf))
	trimmed := loc.TrimTrailingSpaces()
	if string(trimmed.Bytes()) != "1" {
		t.Fatalf("TrimTrailingSpaces() = %q", trimmed.Bytes())
	}
}

func TestLocationSpliceWith(t *testing.T) {
	buf := []byte(`[1,2,3]`)
	a := subdoc.NewLocation(buf, 0, 2) // "[1"
	b := subdoc.NewLocation(buf, 2, 5) // ",2,3]"
	spliced := a.SpliceWith(b, false)
	if string(spliced.Bytes()) != `[1,2,3]` {
		t.Fatalf("SpliceWith() = %q", spliced.Bytes())
	}
}
