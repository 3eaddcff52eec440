package subdoc_test

import (
	"testing"

	"github.com/agentflare-ai/subdoc"
)

func TestPathParse(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		wantErr subdoc.Error
		check   func(t *testing.T, p *subdoc.Path)
	}{
		{
			name: "simple dotted key",
			path: "a.b.c",
			check: func(t *testing.T, p *subdoc.Path) {
				comps := p.Components()
				if len(comps) != 4 {
					t.Fatalf("Len() = %d, want 4", len(comps))
				}
				for i, want := range []string{"a", "b", "c"} {
					if comps[i+1].Key != want {
						t.Fatalf("comps[%d].Key = %q, want %q", i+1, comps[i+1].Key, want)
					}
				}
			},
		},
		{
			name: "array index",
			path: "a[3]",
			check: func(t *testing.T, p *subdoc.Path) {
				comps := p.Components()
				if comps[2].Kind != subdoc.ComponentArrayIndex || comps[2].Index != 3 {
					t.Fatalf("comps[2] = %+v", comps[2])
				}
			},
		},
		{
			name: "negative index is last-element",
			path: "a[-1]",
			check: func(t *testing.T, p *subdoc.Path) {
				comps := p.Components()
				if comps[2].Kind != subdoc.ComponentNegativeIndex {
					t.Fatalf("comps[2].Kind = %v, want ComponentNegativeIndex", comps[2].Kind)
				}
				if !p.HasNegativeIndex() {
					t.Fatal("HasNegativeIndex() = false")
				}
			},
		},
		{
			name:    "negative index other than -1 rejected",
			path:    "a[-2]",
			wantErr: subdoc.InvalidNumber,
		},
		{
			name:    "zero is a valid index",
			path:    "a[0]",
			wantErr: subdoc.Success,
		},
		{
			name: "empty root path",
			path: "",
			check: func(t *testing.T, p *subdoc.Path) {
				if p.Len() != 1 {
					t.Fatalf("Len() = %d, want 1 (root only)", p.Len())
				}
			},
		},
		{
			name: "backtick-escaped literal dot",
			path: "a.`b.c`.d",
			check: func(t *testing.T, p *subdoc.Path) {
				comps := p.Components()
				if comps[2].Key != "b.c" {
					t.Fatalf("comps[2].Key = %q, want %q", comps[2].Key, "b.c")
				}
			},
		},
		{
			name: "doubled backtick is literal backtick",
			path: "a.`b``c`",
			check: func(t *testing.T, p *subdoc.Path) {
				comps := p.Components()
				if comps[2].Key != "b`c" {
					t.Fatalf("comps[2].Key = %q, want %q", comps[2].Key, "b`c")
				}
			},
		},
		{
			name:    "uescape forbidden in path",
			path:    "a.\\u0041",
			wantErr: subdoc.BadPath,
		},
		{
			name:    "unterminated bracket",
			path:    "a[0",
			wantErr: subdoc.BadPath,
		},
		{
			name:    "empty key between dots",
			path:    "a..b",
			wantErr: subdoc.BadPath,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := subdoc.NewPath(tc.path)
			if tc.wantErr != subdoc.Success {
				if err != tc.wantErr {
					t.Fatalf("Parse(%q) error = %v, want %v", tc.path, err, tc.wantErr)
				}
				return
			}
			if err != subdoc.Success {
				t.Fatalf("Parse(%q) error = %v, want Success", tc.path, err)
			}
			if tc.check != nil {
				tc.check(t, p)
			}
		})
	}
}

func TestPathMaxComponents(t *testing.T) {
	path := ""
	for i := 0; i < subdoc.MaxComponents; i++ {
		if i > 0 {
			path += "."
		}
		path += "a"
	}
	if _, err := subdoc.NewPath(path); err != subdoc.LevelsExceeded {
		t.Fatalf("error = %v, want LevelsExceeded", err)
	}
}

func TestPathClearReuse(t *testing.T) {
	p := &subdoc.Path{}
	if err := p.Parse("a.b"); err != subdoc.Success {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}
	if err := p.Parse("x"); err != subdoc.Success {
		t.Fatalf("re-Parse() error = %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() after re-Parse = %d, want 2", p.Len())
	}
}
