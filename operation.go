package subdoc

// This file implements the command dispatcher, grounded on
// original_source/subdoc/operations.cc/.h (Operation::op_exec and its
// do_* helpers). Command names, the mkdir-p high bit, the five/six/two/
// three-fragment emission layouts and find_first_element/
// find_last_element/insert_singleton_element's naming all come from that
// file; the arithmetic and array-index synthetic-lookup mechanics follow
// spec.md §4.6 directly where it simplifies the C++ original (this
// package's Match already gathers a container's children in one pass, so
// find_last_element's get_last_child_pos replay trick is unnecessary here
// — see matcher.go's file comment).

// Command is a subdoc command code (spec.md §6). The 0x80 bit requests
// mkdir-p semantics on the dict/array/counter variants.
type Command uint8

const (
	CmdGet            Command = 0x00
	CmdExists         Command = 0x01
	CmdReplace        Command = 0x02
	CmdRemove         Command = 0x03
	CmdDictUpsert     Command = 0x04
	CmdDictAdd        Command = 0x05
	CmdArrayPrepend   Command = 0x06
	CmdArrayAppend    Command = 0x07
	CmdArrayAddUnique Command = 0x08
	CmdArrayInsert    Command = 0x09
	CmdCounter        Command = 0x0A
	CmdGetCount       Command = 0x0B

	CmdMkdirPFlag Command = 0x80
)

// Base strips the mkdir-p bit.
func (c Command) Base() Command { return c &^ CmdMkdirPFlag }

// MkdirP reports whether the mkdir-p bit is set.
func (c Command) MkdirP() bool { return c&CmdMkdirPFlag != 0 }

type depthMode int

const (
	pathHasNewKey depthMode = iota
	pathIsParent
)

var commaBytes = []byte{','}

func commaLoc() Location { return NewLocation(commaBytes, 0, 1) }

// Planner is a reusable execution context: one Path, one Match, the
// command code, the document and value being operated on, and the two
// scratch buffers (patch, num) that the planner synthesizes fragments
// from (spec.md §3, §5).
type Planner struct {
	Path  *Path
	Match Match
	Code  Command

	Doc   []byte
	Value []byte
	Delta int64

	Fragments []Location
	MatchLoc  Location

	patch []byte
	num   []byte
}

// NewPlanner returns a ready-to-use Planner.
func NewPlanner() *Planner {
	return &Planner{Path: &Path{}}
}

// Clear resets the Planner for reuse, retaining its scratch buffers'
// capacity (spec.md §5's reuse-across-calls lifecycle).
func (op *Planner) Clear() {
	if op.Path == nil {
		op.Path = &Path{}
	}
	op.Path.Clear()
	op.Match = Match{}
	op.Code = 0
	op.Doc = nil
	op.Value = nil
	op.Delta = 0
	op.Fragments = op.Fragments[:0]
	op.MatchLoc = Location{}
	op.patch = op.patch[:0]
	op.num = op.num[:0]
}

// NewDocument concatenates op.Fragments into the resulting document. It is
// a convenience over ranging op.Fragments directly (spec.md §6's abstract
// "iterator over Location fragments"); a caller writing to a socket or file
// should range op.Fragments itself to avoid the extra copy this performs.
func (op *Planner) NewDocument() []byte {
	n := 0
	for _, f := range op.Fragments {
		n += f.Len()
	}
	out := make([]byte, 0, n)
	for _, f := range op.Fragments {
		out = append(out, f.Bytes()...)
	}
	return out
}

func (op *Planner) maxDepth(mode depthMode) int {
	n := len(op.Path.Components())
	if mode == pathHasNewKey {
		return MaxComponents + 1 - n
	}
	return MaxComponents - n
}

// Exec runs op.Code against op.Doc (and, where applicable, op.Value or
// op.Delta) at the given path, populating op.Match, op.Fragments and
// op.MatchLoc.
func (op *Planner) Exec(pathStr string) Error {
	op.Fragments = op.Fragments[:0]
	op.MatchLoc = Location{}
	op.patch = op.patch[:0]
	op.num = op.num[:0]
	if op.Path == nil {
		op.Path = &Path{}
	}

	if err := op.Path.Parse(pathStr); err != Success {
		if err == LevelsExceeded {
			return PathE2big
		}
		return PathEinval
	}

	base := op.Code.Base()
	switch base {
	case CmdGet, CmdExists, CmdGetCount:
		m := Exec(op.Doc, op.Path)
		if m.Status != Success {
			return m.Status
		}
		op.Match = *m
		return op.doGet()

	case CmdReplace:
		if len(op.Path.Components()) == 1 {
			return ValueCantinsert
		}
		if len(op.Value) == 0 {
			return ValueEmpty
		}
		m := Exec(op.Doc, op.Path)
		if m.Status != Success {
			return m.Status
		}
		op.Match = *m
		if m.Result != MatchComplete {
			if m.Result == MatchTypeMismatch {
				return PathMismatch
			}
			return PathENOENT
		}
		if err := Validate(op.Value, ParentNone, ValueAny, op.maxDepth(pathIsParent)); err != Success {
			return err
		}
		return op.emitReplace()

	case CmdRemove:
		if len(op.Path.Components()) == 1 {
			return ValueCantinsert
		}
		m := Exec(op.Doc, op.Path)
		if m.Status != Success {
			return m.Status
		}
		op.Match = *m
		if m.Result != MatchComplete {
			if m.Result == MatchTypeMismatch {
				return PathMismatch
			}
			return PathENOENT
		}
		return op.emitRemove()

	case CmdDictAdd, CmdDictUpsert:
		if len(op.Path.Components()) == 1 {
			return ValueCantinsert
		}
		if len(op.Value) == 0 {
			return ValueEmpty
		}
		if err := Validate(op.Value, ParentDict, ValueAny, op.maxDepth(pathHasNewKey)); err != Success {
			return err
		}
		m := Exec(op.Doc, op.Path)
		if m.Status != Success {
			return m.Status
		}
		op.Match = *m
		return op.doDictStore()

	case CmdArrayPrepend, CmdArrayAppend, CmdArrayAddUnique:
		if len(op.Value) == 0 {
			return ValueEmpty
		}
		constraint := ValueAny
		if base == CmdArrayAddUnique {
			constraint = ValuePrimitive
		}
		if err := Validate(op.Value, ParentArray, constraint, op.maxDepth(pathIsParent)); err != Success {
			return err
		}
		return op.doListOp()

	case CmdArrayInsert:
		if len(op.Value) == 0 {
			return ValueEmpty
		}
		if err := Validate(op.Value, ParentArray, ValueAny, op.maxDepth(pathHasNewKey)); err != Success {
			return err
		}
		return op.doInsert()

	case CmdCounter:
		return op.doCounter()
	}
	return GlobalEnosupport
}

// doGet implements GET / EXISTS / GET_COUNT. All three leave the document
// untouched: Fragments is always the whole original document (spec.md §8
// invariant 1), and MatchLoc names the separately reported result.
func (op *Planner) doGet() Error {
	m := op.Match
	if m.Result != MatchComplete {
		if m.Result == MatchTypeMismatch {
			return PathMismatch
		}
		return PathENOENT
	}
	op.Fragments = append(op.Fragments[:0], NewLocation(op.Doc, 0, len(op.Doc)))

	switch op.Code.Base() {
	case CmdGetCount:
		if m.Type != TypeObject && m.Type != TypeArray {
			return PathMismatch
		}
		children, err := scanChildrenAt(op.Doc, m.LocMatch, m.Type == TypeObject, docMaxDepth)
		if err != Success {
			return err
		}
		op.num = appendDecimal(op.num[:0], int64(len(children)))
		op.MatchLoc = NewLocation(op.num, 0, len(op.num))
	default:
		op.MatchLoc = m.LocMatch
	}
	return Success
}

func (op *Planner) emitReplace() Error {
	m := &op.Match
	before := NewLocation(op.Doc, 0, m.LocMatch.Start())
	valueLoc := NewLocation(op.Value, 0, len(op.Value))
	after := m.LocMatch.Rest()
	op.Fragments = append(op.Fragments[:0], before, valueLoc, after)
	op.MatchLoc = valueLoc
	return Success
}

func (op *Planner) emitRemove() Error {
	m := &op.Match
	cut := m.LocMatch
	if m.HasKey {
		cut = m.LocKey
	}
	before := cut.BeginAtEnd()
	after := m.LocMatch.Rest()

	if m.NumSiblings > 0 {
		if m.IsLast() {
			before = stripLastComma(before)
		} else {
			after = stripFirstComma(after)
		}
	}

	op.Fragments = append(op.Fragments[:0], before, after)
	op.MatchLoc = Location{}
	return Success
}

func stripLastComma(loc Location) Location {
	b := loc.Bytes()
	i := len(b)
	for i > 0 && b[i-1] == ' ' {
		i--
	}
	if i > 0 && b[i-1] == ',' {
		i--
	}
	return NewLocation(loc.buf, loc.start, i)
}

func stripFirstComma(loc Location) Location {
	b := loc.Bytes()
	i := 0
	for i < len(b) && b[i] == ' ' {
		i++
	}
	if i < len(b) && b[i] == ',' {
		i++
	}
	return NewLocation(loc.buf, loc.start+i, loc.len-i)
}

// doDictStore implements DICT_ADD / DICT_UPSERT (+ _P), dispatching to
// mkdir-p when only a deeper ancestor exists.
func (op *Planner) doDictStore() Error {
	m := &op.Match
	base := op.Code.Base()

	switch {
	case m.Result == MatchComplete:
		if base == CmdDictAdd {
			return DocEexists
		}
		return op.emitReplace()
	case m.Result == MatchTypeMismatch:
		return PathMismatch
	case m.ImmediateParentFound:
		return op.emitDictInsert()
	default:
		if !op.Code.MkdirP() {
			return PathENOENT
		}
		return op.doMkdirP(false)
	}
}

// emitDictInsert builds the six-fragment "…,\"newkey\":VALUE…" layout
// inside an existing parent object (spec.md §4.6).
func (op *Planner) emitDictInsert() Error {
	m := &op.Match
	comps := op.Path.Components()
	last := comps[len(comps)-1]
	if last.Kind != ComponentDictKey {
		return PathENOENT
	}

	var sep []byte
	if m.NumSiblings > 0 {
		sep = []byte(`,"`)
	} else {
		sep = []byte(`"`)
	}
	patch := append([]byte{}, sep...)
	patch = append(patch, last.Key...)
	patch = append(patch, '"', ':')
	op.patch = patch

	sepLoc := NewLocation(op.patch, 0, len(sep))
	keyLoc := NewLocation(op.patch, len(sep), len(last.Key))
	colonLoc := NewLocation(op.patch, len(sep)+len(last.Key), 2)
	valueLoc := NewLocation(op.Value, 0, len(op.Value))

	closePos := m.LocParent.End() - 1
	before := NewLocation(op.Doc, 0, closePos)
	rest := NewLocation(op.Doc, closePos, len(op.Doc)-closePos)

	op.Fragments = append(op.Fragments[:0], before, sepLoc, keyLoc, colonLoc, valueLoc, rest)
	op.MatchLoc = valueLoc
	return Success
}

// doMkdirP synthesizes the missing trailing dict-key chain (spec.md
// §4.6.1), wrapping the innermost value in "[ VALUE ]" when arrayMode is
// set (the ARRAY_*_P variants).
func (op *Planner) doMkdirP(arrayMode bool) Error {
	m := &op.Match
	comps := op.Path.Components()
	if m.Level >= len(comps) {
		return PathENOENT
	}
	first := comps[m.Level]
	if first.Kind != ComponentDictKey {
		return PathENOENT
	}

	var prefix []byte
	if m.NumSiblings > 0 {
		prefix = append(prefix, ',')
	}
	prefix = append(prefix, '"')
	prefix = append(prefix, first.Key...)
	prefix = append(prefix, '"', ':')

	for ii := m.Level + 1; ii < len(comps); ii++ {
		c := comps[ii]
		if c.Kind != ComponentDictKey {
			return PathENOENT
		}
		prefix = append(prefix, '{', '"')
		prefix = append(prefix, c.Key...)
		prefix = append(prefix, '"', ':')
	}
	if arrayMode {
		prefix = append(prefix, '[')
	}

	closeCount := len(comps) - 1 - m.Level
	var suffix []byte
	if arrayMode {
		suffix = append(suffix, ']')
	}
	for i := 0; i < closeCount; i++ {
		suffix = append(suffix, '}')
	}

	combined := append(append([]byte{}, prefix...), suffix...)
	op.patch = combined
	prefixLoc := NewLocation(op.patch, 0, len(prefix))
	suffixLoc := NewLocation(op.patch, len(prefix), len(suffix))
	valueLoc := NewLocation(op.Value, 0, len(op.Value))

	closePos := m.LocParent.End() - 1
	before := NewLocation(op.Doc, 0, closePos)
	rest := NewLocation(op.Doc, closePos, len(op.Doc)-closePos)

	op.Fragments = append(op.Fragments[:0], before, prefixLoc, valueLoc, suffixLoc, rest)
	op.MatchLoc = valueLoc
	return Success
}

// matchArrayHead locates path+"[0]" in the document: a COMPLETE result
// means the array exists and is non-empty; ImmediateParentFound with a
// non-complete result distinguishes an existing empty array from a
// missing one (spec.md §4.6's find_first_element).
func (op *Planner) matchArrayHead() *Match {
	orig := op.Path.Components()
	if len(orig)+1 > MaxComponents {
		return &Match{Status: PathE2big}
	}
	tmp := &Path{}
	tmp.components = append(tmp.components, orig...)
	tmp.components = append(tmp.components, Component{Kind: ComponentArrayIndex, Index: 0})
	return Exec(op.Doc, tmp)
}

func (op *Planner) doListOp() Error {
	base := op.Code.Base()
	hm := op.matchArrayHead()
	if hm.Status != Success {
		return hm.Status
	}

	if hm.Result == MatchComplete {
		if base == CmdArrayAddUnique {
			unique, uerr := EnsureUnique(op.Doc, hm.LocParent, op.Value)
			if uerr == GlobalEnosupport {
				return PathMismatch
			}
			if uerr != Success {
				return uerr
			}
			if unique {
				return DocEexists
			}
		}
		switch base {
		case CmdArrayAppend:
			op.Match = *hm
			return op.emitAppend(hm)
		default: // CmdArrayPrepend, CmdArrayAddUnique
			op.Match = *hm
			return op.emitPrepend(hm)
		}
	}
	if hm.Result == MatchTypeMismatch {
		return PathMismatch
	}
	if hm.ImmediateParentFound {
		op.Match = *hm
		return op.emitSingleton(hm)
	}
	if !op.Code.MkdirP() {
		return PathENOENT
	}
	op.Match = *hm
	return op.doMkdirP(true)
}

// emitPrepend builds "[doc-up-to-first-child | new-value | , |
// first-child-and-rest]"; the same layout serves ARRAY_ADD_UNIQUE once
// uniqueness has been confirmed.
func (op *Planner) emitPrepend(hm *Match) Error {
	before := hm.LocMatch.BeginAtEnd()
	valueLoc := NewLocation(op.Value, 0, len(op.Value))
	rest := NewLocation(op.Doc, hm.LocMatch.Start(), len(op.Doc)-hm.LocMatch.Start())
	op.Fragments = append(op.Fragments[:0], before, valueLoc, commaLoc(), rest)
	op.MatchLoc = valueLoc
	return Success
}

// emitAppend builds "[doc-up-to-close-bracket | , | new-value |
// close-bracket-and-rest]".
func (op *Planner) emitAppend(hm *Match) Error {
	closePos := hm.LocParent.End() - 1
	before := NewLocation(op.Doc, 0, closePos)
	valueLoc := NewLocation(op.Value, 0, len(op.Value))
	rest := NewLocation(op.Doc, closePos, len(op.Doc)-closePos)
	op.Fragments = append(op.Fragments[:0], before, commaLoc(), valueLoc, rest)
	op.MatchLoc = valueLoc
	return Success
}

// emitSingleton builds "[doc-up-to-\"[\" | new-value | \"]\"-and-rest]"
// for insertion into an empty array.
func (op *Planner) emitSingleton(hm *Match) Error {
	openPos := hm.LocParent.Start() + 1
	before := NewLocation(op.Doc, 0, openPos)
	valueLoc := NewLocation(op.Value, 0, len(op.Value))
	closePos := hm.LocParent.End() - 1
	after := NewLocation(op.Doc, closePos, len(op.Doc)-closePos)
	op.Fragments = append(op.Fragments[:0], before, valueLoc, after)
	op.MatchLoc = valueLoc
	return Success
}

// doInsert implements ARRAY_INSERT, whose final path component must be a
// (non-negative) array index.
func (op *Planner) doInsert() Error {
	comps := op.Path.Components()
	last := comps[len(comps)-1]
	if last.Kind == ComponentNegativeIndex {
		return PathEinval
	}
	if last.Kind != ComponentArrayIndex {
		return PathMismatch
	}

	m := Exec(op.Doc, op.Path)
	if m.Status != Success {
		return m.Status
	}
	op.Match = *m

	switch {
	case m.Result == MatchComplete:
		before := m.LocMatch.BeginAtEnd()
		valueLoc := NewLocation(op.Value, 0, len(op.Value))
		rest := NewLocation(op.Doc, m.LocMatch.Start(), len(op.Doc)-m.LocMatch.Start())
		op.Fragments = append(op.Fragments[:0], before, valueLoc, commaLoc(), rest)
		op.MatchLoc = valueLoc
		return Success
	case m.Result == MatchTypeMismatch:
		return PathMismatch
	case m.ImmediateParentFound:
		if m.NumSiblings == 0 && last.Index == 0 {
			return op.emitSingleton(m)
		}
		if int(last.Index) == m.NumSiblings {
			return op.emitAppend(m)
		}
		return PathENOENT
	default:
		return PathENOENT
	}
}

// doCounter implements COUNTER (+ _P): arithmetic on an existing number, or
// creating one via a dict-insert (mkdir-p'ing deeper ancestors for the _P
// variant) when the target itself is missing (spec.md §4.6;
// original_source/subdoc/operations.cc's do_arith_op falls through to
// do_store_dict/do_mkdir_p the same way). A missing array-element target
// is always PATH_ENOENT, _P or not — do_mkdir_p only ever synthesizes
// dict-key chains.
func (op *Planner) doCounter() Error {
	if len(op.Value) > 0 {
		d, derr := parseDeltaText(op.Value)
		if derr != Success {
			return derr
		}
		op.Delta = d
	}
	if op.Delta == 0 {
		return DeltaEinval
	}

	m := Exec(op.Doc, op.Path)
	if m.Status != Success {
		return m.Status
	}
	op.Match = *m

	if m.Result == MatchComplete {
		if m.Type != TypeNumber || m.Flags.float {
			return PathMismatch
		}
		cur, perr := parseInt64(m.LocMatch.Bytes())
		if perr != Success {
			return perr
		}
		next, ok := checkedAdd(cur, op.Delta)
		if !ok {
			return DeltaOverflow
		}
		op.num = appendDecimal(op.num[:0], next)

		before := m.LocMatch.BeginAtEnd()
		numLoc := NewLocation(op.num, 0, len(op.num))
		after := m.LocMatch.Rest()
		op.Fragments = append(op.Fragments[:0], before, numLoc, after)
		op.MatchLoc = numLoc
		return Success
	}
	if m.Result == MatchTypeMismatch {
		return PathMismatch
	}
	if !op.Code.MkdirP() && !m.ImmediateParentFound {
		return PathENOENT
	}
	if m.Type != TypeObject {
		return PathENOENT
	}

	op.num = appendDecimal(op.num[:0], op.Delta)
	savedValue := op.Value
	op.Value = op.num
	var err Error
	if m.ImmediateParentFound {
		err = op.emitDictInsert()
	} else {
		err = op.doMkdirP(false)
	}
	op.Value = savedValue
	if err != Success {
		return err
	}
	op.MatchLoc = NewLocation(op.num, 0, len(op.num))
	return Success
}

// parseDeltaText parses a COUNTER command's caller-supplied value as a
// decimal delta (spec.md §4.6: "Value must be a nonzero signed integer
// whose textual form parses and is in range [INT64_MIN, INT64_MAX]").
// Anything else — a float ("3.14"), trailing garbage ("43f"), a bare sign
// ("-"), or non-numeric text ("bad") — is DeltaEinval, mirroring
// subdoc-bench.cc's strtoll-based parse (original_source/subdoc-bench.cc).
func parseDeltaText(raw []byte) (int64, Error) {
	if len(raw) == 0 {
		return 0, DeltaEinval
	}
	neg := false
	i := 0
	if raw[0] == '+' || raw[0] == '-' {
		neg = raw[0] == '-'
		i++
	}
	if i == len(raw) {
		return 0, DeltaEinval
	}
	var v uint64
	for ; i < len(raw); i++ {
		c := raw[i]
		if c < '0' || c > '9' {
			return 0, DeltaEinval
		}
		if v > (1<<63)/10 {
			return 0, DeltaEinval
		}
		v = v*10 + uint64(c-'0')
	}
	if neg {
		if v > 1<<63 {
			return 0, DeltaEinval
		}
		return -int64(v), Success
	}
	if v > uint64(1<<63-1) {
		return 0, DeltaEinval
	}
	return int64(v), Success
}

func parseInt64(raw []byte) (int64, Error) {
	if len(raw) == 0 {
		return 0, NumE2big
	}
	neg := false
	i := 0
	if raw[0] == '-' {
		neg = true
		i++
	}
	if i == len(raw) {
		return 0, NumE2big
	}
	var v uint64
	for ; i < len(raw); i++ {
		c := raw[i]
		if c < '0' || c > '9' {
			return 0, NumE2big
		}
		if v > (1<<63)/10 {
			return 0, NumE2big
		}
		v = v*10 + uint64(c-'0')
	}
	if neg {
		if v > 1<<63 {
			return 0, NumE2big
		}
		return -int64(v), Success
	}
	if v > uint64(1<<63-1) {
		return 0, NumE2big
	}
	return int64(v), Success
}

func checkedAdd(a, b int64) (int64, bool) {
	sum := a + b
	if b > 0 && sum < a {
		return 0, false
	}
	if b < 0 && sum > a {
		return 0, false
	}
	return sum, true
}

func appendDecimal(buf []byte, v int64) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	var tmp [20]byte
	i := len(tmp)
	for u > 0 {
		i--
		tmp[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		buf = append(buf, '-')
	}
	return append(buf, tmp[i:]...)
}
