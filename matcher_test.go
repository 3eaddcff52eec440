package subdoc_test

import (
	"testing"

	"github.com/agentflare-ai/subdoc"
)

func mustPath(t *testing.T, s string) *subdoc.Path {
	t.Helper()
	p, err := subdoc.NewPath(s)
	if err != subdoc.Success {
		t.Fatalf("NewPath(%q) error = %v", s, err)
	}
	return p
}

func TestMatcherComplete(t *testing.T) {
	doc := []byte(`{"a":{"b":[1,2,3]},"c":"x"}`)
	m := subdoc.Exec(doc, mustPath(t, "a.b[1]"))
	if m.Status != subdoc.Success {
		t.Fatalf("Status = %v", m.Status)
	}
	if m.Result != subdoc.MatchComplete {
		t.Fatalf("Result = %v, want MatchComplete", m.Result)
	}
	if string(m.LocMatch.Bytes()) != "2" {
		t.Fatalf("LocMatch = %q, want %q", m.LocMatch.Bytes(), "2")
	}
	if m.Position != 1 || m.NumSiblings != 2 {
		t.Fatalf("Position/NumSiblings = %d/%d, want 1/2", m.Position, m.NumSiblings)
	}
	if m.IsLast() {
		t.Fatal("IsLast() = true, want false (index 1 of 0..2 is the middle element)")
	}
}

func TestMatcherNoMatch(t *testing.T) {
	doc := []byte(`{"a":{"b":1}}`)
	m := subdoc.Exec(doc, mustPath(t, "a.z"))
	if m.Result != subdoc.MatchNoMatch {
		t.Fatalf("Result = %v, want MatchNoMatch", m.Result)
	}
	if !m.ImmediateParentFound {
		t.Fatal("ImmediateParentFound = false, want true (a exists, z missing)")
	}
	if m.NumSiblings != 1 {
		t.Fatalf("NumSiblings = %d, want 1", m.NumSiblings)
	}
}

func TestMatcherDeepMissing(t *testing.T) {
	doc := []byte(`{"a":1}`)
	m := subdoc.Exec(doc, mustPath(t, "foo.bar.baz"))
	if m.Result != subdoc.MatchNoMatch {
		t.Fatalf("Result = %v, want MatchNoMatch", m.Result)
	}
	if m.ImmediateParentFound {
		t.Fatal("ImmediateParentFound = true, want false (foo itself is missing)")
	}
}

func TestMatcherTypeMismatch(t *testing.T) {
	doc := []byte(`{"a":1}`)
	m := subdoc.Exec(doc, mustPath(t, "a.b"))
	if m.Result != subdoc.MatchTypeMismatch {
		t.Fatalf("Result = %v, want MatchTypeMismatch", m.Result)
	}
}

func TestMatcherNegativeIndex(t *testing.T) {
	doc := []byte(`[1,2,3,4]`)
	m := subdoc.Exec(doc, mustPath(t, "[-1]"))
	if m.Result != subdoc.MatchComplete {
		t.Fatalf("Result = %v, want MatchComplete", m.Result)
	}
	if string(m.LocMatch.Bytes()) != "4" {
		t.Fatalf("LocMatch = %q, want %q", m.LocMatch.Bytes(), "4")
	}
}

func TestMatcherChainedNegativeIndex(t *testing.T) {
	doc := []byte(`[[1,2],[3,4,5]]`)
	m := subdoc.Exec(doc, mustPath(t, "[-1][-1]"))
	if m.Result != subdoc.MatchComplete {
		t.Fatalf("Result = %v, want MatchComplete", m.Result)
	}
	if string(m.LocMatch.Bytes()) != "5" {
		t.Fatalf("LocMatch = %q, want %q", m.LocMatch.Bytes(), "5")
	}
}

func TestMatcherNegativeIndexEmptyArray(t *testing.T) {
	doc := []byte(`[]`)
	m := subdoc.Exec(doc, mustPath(t, "[-1]"))
	if m.Result != subdoc.MatchNoMatch {
		t.Fatalf("Result = %v, want MatchNoMatch", m.Result)
	}
}

func TestMatcherRootOnly(t *testing.T) {
	doc := []byte(`{"a":1}`)
	m := subdoc.Exec(doc, mustPath(t, ""))
	if m.Result != subdoc.MatchComplete {
		t.Fatalf("Result = %v, want MatchComplete", m.Result)
	}
	if string(m.LocMatch.Bytes()) != string(doc) {
		t.Fatalf("LocMatch = %q, want whole document", m.LocMatch.Bytes())
	}
}

func TestMatcherUescapeKeyMatch(t *testing.T) {
	doc := []byte("{\"\\u0061\\u0062\":1}")
	m := subdoc.Exec(doc, mustPath(t, "ab"))
	if m.Result != subdoc.MatchComplete {
		t.Fatalf("Result = %v, want MatchComplete (\\u0061\\u0062 key should match plain \"ab\")", m.Result)
	}
	if string(m.LocMatch.Bytes()) != "1" {
		t.Fatalf("LocMatch = %q, want %q", m.LocMatch.Bytes(), "1")
	}
}

func TestEnsureUniqueFound(t *testing.T) {
	doc := []byte(`{"xs":[1,2,3]}`)
	m := subdoc.Exec(doc, mustPath(t, "xs"))
	if m.Result != subdoc.MatchComplete {
		t.Fatalf("Result = %v, want MatchComplete", m.Result)
	}
	found, err := subdoc.EnsureUnique(doc, m.LocMatch, []byte("2"))
	if err != subdoc.Success {
		t.Fatalf("EnsureUnique error = %v", err)
	}
	if !found {
		t.Fatal("EnsureUnique() = false, want true")
	}
}

func TestEnsureUniqueNotFound(t *testing.T) {
	doc := []byte(`{"xs":[1,2,3]}`)
	m := subdoc.Exec(doc, mustPath(t, "xs"))
	found, err := subdoc.EnsureUnique(doc, m.LocMatch, []byte("9"))
	if err != subdoc.Success {
		t.Fatalf("EnsureUnique error = %v", err)
	}
	if found {
		t.Fatal("EnsureUnique() = true, want false")
	}
}

func TestEnsureUniqueContainerChild(t *testing.T) {
	doc := []byte(`{"xs":[{"a":1},2,3]}`)
	m := subdoc.Exec(doc, mustPath(t, "xs"))
	_, err := subdoc.EnsureUnique(doc, m.LocMatch, []byte("2"))
	if err != subdoc.GlobalEnosupport {
		t.Fatalf("EnsureUnique error = %v, want GlobalEnosupport", err)
	}
}
