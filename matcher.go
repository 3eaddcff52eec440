package subdoc

// This file implements the path matcher, grounded on
// original_source/subdoc/match.cc + match.h. The original drives jsonsl's
// incremental push/pop callbacks one token at a time, which forces a
// second rewrite-and-replay pass (exec_match_negix) to resolve a trailing
// "-1" component: jsonsl cannot look backward for "the last child" without
// re-parsing. The tokenizer in this package always parses a full value
// before returning, so a container's children can simply be collected once
// and indexed from either end — the negative-index component is handled by
// the same per-level loop as every other component, with no second driver
// or replay pass. This is a deliberate simplification over the C++
// original, recorded here rather than ported literally.

// docMaxDepth bounds how deep an existing document may nest, counted from
// its root; it is independent of Path's MaxComponents, which only bounds
// the path string itself.
const docMaxDepth = 512

// MatchResult mirrors jsonsl_match_t: the outcome of comparing one path
// component against the document at the corresponding nesting level.
type MatchResult int

const (
	MatchNone MatchResult = iota
	MatchPossible
	MatchComplete
	MatchNoMatch
	MatchTypeMismatch
)

// Match carries everything an Operation needs to act on a located path:
// the matched value's bounds, its innermost existing ancestor, and enough
// sibling bookkeeping to know how to patch the surrounding commas.
type Match struct {
	Status Error
	Result MatchResult

	Type   JSONType
	Flags  numFlags
	Level  int
	Position    int
	NumSiblings int

	HasKey               bool
	ImmediateParentFound bool

	LocMatch  Location
	LocKey    Location
	LocParent Location
}

// IsFirst reports whether the match is the first of multiple siblings.
func (m *Match) IsFirst() bool { return m.NumSiblings > 0 && m.Position == 0 }

// IsLast reports whether the match is the last of multiple siblings.
func (m *Match) IsLast() bool { return m.NumSiblings > 0 && m.Position == m.NumSiblings }

// IsOnly reports whether the match is alone in its container.
func (m *Match) IsOnly() bool { return m.NumSiblings == 0 }

type childInfo struct {
	key   Location
	index int
	loc   Location
	typ   JSONType
	flags numFlags
}

// scanTopLevelValue scans the single JSON value occupying doc in full,
// returning its bounds and type.
func scanTopLevelValue(doc []byte) (Location, JSONType, Error) {
	var loc Location
	var typ JSONType
	onPop := func(level int, parent containerKind, key Location, index int, l Location, t JSONType, flags numFlags) {
		if level == 1 {
			loc, typ = l, t
		}
	}
	sc := newScanner(doc, docMaxDepth, nil, onPop)
	if err := sc.Run(); err != Success {
		return Location{}, TypeNone, err
	}
	return loc, typ, Success
}

// scanChildrenAt collects every immediate child of the container at loc
// (which must already be known to be an object or array), with Locations
// expressed as absolute offsets into doc.
func scanChildrenAt(doc []byte, loc Location, hasKeys bool, maxDepth int) ([]childInfo, Error) {
	var children []childInfo
	onPop := func(level int, parent containerKind, key Location, index int, l Location, t JSONType, flags numFlags) {
		if level != 2 {
			return
		}
		children = append(children, childInfo{key: key, index: index, loc: l, typ: t, flags: flags})
	}
	sc := &scanner{buf: doc, pos: loc.Start(), maxDepth: maxDepth, onPop: onPop}
	open, close := byte('['), byte(']')
	if hasKeys {
		open, close = '{', '}'
	}
	if sc.pos >= len(doc) || doc[sc.pos] != open {
		return nil, DocNotJSON
	}
	if _, err := sc.scanContainer(1, open, close, hasKeys); err != Success {
		return nil, err
	}
	return children, Success
}

func containsUescape(s []byte) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\\' && s[i+1] == 'u' {
			return true
		}
	}
	return false
}

// keyBytesMatch compares a document key's raw quoted bytes against an
// already-decoded path dict-key component.
func keyBytesMatch(docKeyLoc Location, pathKey string) bool {
	raw := docKeyLoc.Bytes()
	if len(raw) < 2 {
		return false
	}
	inner := raw[1 : len(raw)-1]
	if !containsUescape(inner) {
		return string(inner) == pathKey
	}
	decoded, st := UescapeConvert(inner)
	if !st.OK() {
		return false
	}
	return string(decoded) == pathKey
}

// Exec locates path within doc, returning a Match describing either the
// found value or, failing that, the deepest existing ancestor (spec.md
// §4.4, §4.5).
func Exec(doc []byte, path *Path) *Match {
	m := &Match{}
	if len(doc) == 0 {
		m.Status = DocNotJSON
		return m
	}

	rootLoc, rootType, err := scanTopLevelValue(doc)
	if err != Success {
		m.Status = err
		return m
	}

	comps := path.Components()
	curLoc, curType, level := rootLoc, rootType, 1

	if len(comps) == 1 {
		m.Result = MatchComplete
		m.Type = curType
		m.LocMatch = curLoc
		m.LocParent = curLoc
		m.Level = level
		m.ImmediateParentFound = true
		return m
	}

	for ci := 1; ci < len(comps); ci++ {
		comp := comps[ci]
		wantsArray := comp.Kind == ComponentArrayIndex || comp.Kind == ComponentNegativeIndex

		if curType != TypeObject && curType != TypeArray {
			m.Result = MatchTypeMismatch
			m.Type = curType
			m.LocParent = curLoc
			m.Level = level
			m.Status = Success
			return m
		}
		hasKeys := curType == TypeObject
		if hasKeys == wantsArray {
			m.Result = MatchTypeMismatch
			m.Type = curType
			m.LocParent = curLoc
			m.Level = level
			return m
		}

		children, serr := scanChildrenAt(doc, curLoc, hasKeys, docMaxDepth-level)
		if serr != Success {
			m.Status = serr
			return m
		}

		target := -1
		switch comp.Kind {
		case ComponentDictKey:
			for i := range children {
				if keyBytesMatch(children[i].key, comp.Key) {
					target = i
					break
				}
			}
		case ComponentArrayIndex:
			for i := range children {
				if children[i].index == int(comp.Index) {
					target = i
					break
				}
			}
		case ComponentNegativeIndex:
			if len(children) > 0 {
				target = len(children) - 1
			}
		}

		if target < 0 {
			m.Result = MatchNoMatch
			m.Type = curType
			m.LocParent = curLoc
			m.Level = level
			m.NumSiblings = len(children)
			m.ImmediateParentFound = ci == len(comps)-1
			return m
		}

		parentLoc := curLoc
		child := children[target]

		if ci == len(comps)-1 {
			m.Result = MatchComplete
			m.Type = child.typ
			m.Flags = child.flags
			m.LocMatch = child.loc
			m.Level = level + 1
			m.Position = child.index
			m.NumSiblings = len(children) - 1
			m.HasKey = hasKeys
			if hasKeys {
				m.LocKey = child.key
			}
			m.LocParent = parentLoc
			m.ImmediateParentFound = true
			return m
		}

		curLoc, curType, level = child.loc, child.typ, level+1
	}

	// Unreachable: the loop above always returns on its last iteration.
	return m
}

// EnsureUnique reports whether candidate (the exact raw JSON bytes of a
// scalar) already appears as an element of the array at arrayLoc, for
// ARRAY_ADD_UNIQUE (spec.md §4.6). Matching non-scalar elements makes
// uniqueness unverifiable and is reported as GlobalEnosupport.
func EnsureUnique(doc []byte, arrayLoc Location, candidate []byte) (bool, Error) {
	children, err := scanChildrenAt(doc, arrayLoc, false, docMaxDepth)
	if err != Success {
		return false, err
	}
	for _, c := range children {
		switch c.typ {
		case TypeObject, TypeArray:
			return false, GlobalEnosupport
		default:
			if string(c.loc.Bytes()) == string(candidate) {
				return true, Success
			}
		}
	}
	return false, Success
}
