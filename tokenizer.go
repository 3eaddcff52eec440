package subdoc

// This file implements the streaming, SAX-style JSON tokenizer that drives
// Matcher and Validator. spec.md §1 treats "the underlying streaming JSON
// tokenizer's internals" as an out-of-scope black box — but no repo in the
// retrieval pack supplies one (the pack's JSON libraries are DOM decoders,
// not SAX scanners), so it is implemented here, grounded on
// original_source/subdoc/jsonsl_header.h + match.cc's push/pop callback
// contract. It is translated into an idiomatic recursive-descent Go
// walk rather than jsonsl's incremental state machine: each JSON value is
// scanned in one pass, invoking a push hook on entry and a pop hook on
// exit, and a hook may request the walk stop early once the caller has
// everything it needs (spec.md §4.4: "the remainder of the document is
// not parsed").

// JSONType is the JSON type of a matched or visited value.
type JSONType int

const (
	TypeNone JSONType = iota
	TypeObject
	TypeArray
	TypeString
	TypeNumber
	TypeBoolean
	TypeNull
)

// containerKind identifies what a value's immediate parent is.
type containerKind int

const (
	containerRoot containerKind = iota
	containerObject
	containerArray
)

// scanAction is what a push hook tells the scanner to do next.
type scanAction int

const (
	actionDescend scanAction = iota // parse into the value's children normally
	actionPrune                     // skip this value's content without further hook calls
	actionStop                      // halt the entire walk immediately
)

// pushHook is invoked when the scanner is about to parse a value. key is
// valid (containerObject) when the value is an object member; index is
// valid (containerArray) when the value is an array element. start is the
// byte offset the value begins at.
type pushHook func(level int, parent containerKind, key Location, index int, start int) scanAction

// popHook is invoked once a value (and, for containers, all its children)
// has been fully scanned. loc spans the whole value including its closing
// token for containers and strings; for numbers/booleans/null it excludes
// any trailing token (there is none) but numFlags/digits describe the
// primitive's shape.
type popHook func(level int, parent containerKind, key Location, index int, loc Location, typ JSONType, flags numFlags)

// numFlags describes a scanned numeric/boolean/null primitive, used by the
// counter operation to reject floats/exponents.
type numFlags struct {
	negative bool
	float    bool
	digits   int
}

// scanner walks buf emitting push/pop events. stopped is set by actionStop
// and checked after every recursive call so a deeply nested stop
// propagates immediately.
type scanner struct {
	buf      []byte
	pos      int
	maxDepth int
	stopped  bool

	onPush pushHook
	onPop  popHook
}

func newScanner(buf []byte, maxDepth int, onPush pushHook, onPop popHook) *scanner {
	return &scanner{buf: buf, maxDepth: maxDepth, onPush: onPush, onPop: onPop}
}

// Run scans a single top-level JSON value starting at the scanner's
// current position (normally 0). level is 1 for the top-level value,
// matching jsonsl's convention that the imaginary document root is level 0
// (spec.md §3's match_level accounting; see original_source/subdoc/path.h).
func (s *scanner) Run() Error {
	s.skipWS()
	if s.pos >= len(s.buf) {
		return DocNotJSON
	}
	_, err := s.scanValue(1, containerRoot, Location{}, 0)
	return err
}

func (s *scanner) skipWS() {
	for s.pos < len(s.buf) {
		switch s.buf[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) scanValue(level int, parent containerKind, key Location, index int) (Location, Error) {
	if level > s.maxDepth {
		return Location{}, DocEtoodeep
	}
	start := s.pos
	if s.pos >= len(s.buf) {
		return Location{}, DocNotJSON
	}

	action := actionDescend
	if s.onPush != nil {
		action = s.onPush(level, parent, key, index, start)
	}
	if action == actionStop {
		s.stopped = true
		return Location{}, Success
	}
	if action == actionPrune {
		push, pop := s.onPush, s.onPop
		s.onPush, s.onPop = nil, nil
		defer func() { s.onPush, s.onPop = push, pop }()
	}

	var loc Location
	var typ JSONType
	var flags numFlags
	var err Error

	switch s.buf[s.pos] {
	case '{':
		loc, err = s.scanContainer(level, '{', '}', true)
		typ = TypeObject
	case '[':
		loc, err = s.scanContainer(level, '[', ']', false)
		typ = TypeArray
	case '"':
		loc, err = s.scanString()
		typ = TypeString
	case 't':
		loc, err = s.scanLiteral("true")
		typ = TypeBoolean
	case 'f':
		loc, err = s.scanLiteral("false")
		typ = TypeBoolean
	case 'n':
		loc, err = s.scanLiteral("null")
		typ = TypeNull
	default:
		loc, flags, err = s.scanNumber()
		typ = TypeNumber
	}
	if err != Success {
		return Location{}, err
	}
	if s.stopped {
		return loc, Success
	}

	if action != actionPrune && s.onPop != nil {
		s.onPop(level, parent, key, index, loc, typ, flags)
	}
	return loc, Success
}

// scanContainer scans an object or array body (already positioned at the
// opening brace/bracket). hasKeys distinguishes objects (member = key +
// value) from arrays (member = value only).
func (s *scanner) scanContainer(level int, open, close byte, hasKeys bool) (Location, Error) {
	start := s.pos
	s.pos++ // consume '{' or '['
	index := 0

	s.skipWS()
	if s.pos < len(s.buf) && s.buf[s.pos] == close {
		s.pos++
		return NewLocation(s.buf, start, s.pos-start), Success
	}

	for {
		s.skipWS()
		if s.pos >= len(s.buf) {
			return Location{}, DocNotJSON
		}

		var key Location
		if hasKeys {
			if s.buf[s.pos] != '"' {
				return Location{}, DocNotJSON
			}
			keyLoc, err := s.scanString()
			if err != Success {
				return Location{}, err
			}
			key = keyLoc
			s.skipWS()
			if s.pos >= len(s.buf) || s.buf[s.pos] != ':' {
				return Location{}, DocNotJSON
			}
			s.pos++
			s.skipWS()
		}

		parentKind := containerArray
		if hasKeys {
			parentKind = containerObject
		}
		_, err := s.scanValue(level+1, parentKind, key, index)
		if err != Success {
			return Location{}, err
		}
		if s.stopped {
			return Location{}, Success
		}
		index++

		s.skipWS()
		if s.pos >= len(s.buf) {
			return Location{}, DocNotJSON
		}
		switch s.buf[s.pos] {
		case ',':
			s.pos++
			continue
		case close:
			s.pos++
			return NewLocation(s.buf, start, s.pos-start), Success
		default:
			return Location{}, DocNotJSON
		}
	}
}

func (s *scanner) scanString() (Location, Error) {
	start := s.pos
	if s.buf[s.pos] != '"' {
		return Location{}, DocNotJSON
	}
	s.pos++
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		if c == '\\' {
			s.pos += 2
			continue
		}
		if c == '"' {
			s.pos++
			return NewLocation(s.buf, start, s.pos-start), Success
		}
		s.pos++
	}
	return Location{}, DocNotJSON
}

func (s *scanner) scanLiteral(lit string) (Location, Error) {
	start := s.pos
	if start+len(lit) > len(s.buf) || string(s.buf[start:start+len(lit)]) != lit {
		return Location{}, DocNotJSON
	}
	s.pos += len(lit)
	return NewLocation(s.buf, start, len(lit)), Success
}

func (s *scanner) scanNumber() (Location, numFlags, Error) {
	start := s.pos
	var fl numFlags
	if s.pos < len(s.buf) && s.buf[s.pos] == '-' {
		fl.negative = true
		s.pos++
	}
	digitsStart := s.pos
	for s.pos < len(s.buf) && isDigit(s.buf[s.pos]) {
		s.pos++
	}
	fl.digits = s.pos - digitsStart
	if fl.digits == 0 {
		return Location{}, fl, DocNotJSON
	}
	if s.pos < len(s.buf) && s.buf[s.pos] == '.' {
		fl.float = true
		s.pos++
		fracStart := s.pos
		for s.pos < len(s.buf) && isDigit(s.buf[s.pos]) {
			s.pos++
		}
		if s.pos == fracStart {
			return Location{}, fl, DocNotJSON
		}
	}
	if s.pos < len(s.buf) && (s.buf[s.pos] == 'e' || s.buf[s.pos] == 'E') {
		fl.float = true
		s.pos++
		if s.pos < len(s.buf) && (s.buf[s.pos] == '+' || s.buf[s.pos] == '-') {
			s.pos++
		}
		expStart := s.pos
		for s.pos < len(s.buf) && isDigit(s.buf[s.pos]) {
			s.pos++
		}
		if s.pos == expStart {
			return Location{}, fl, DocNotJSON
		}
	}
	return NewLocation(s.buf, start, s.pos-start), fl, Success
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
