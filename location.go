package subdoc

// Location names a (base pointer, length) byte range inside some larger
// buffer — either the caller's document, the caller's value, or one of an
// Operation's scratch strings. Locations never own memory; they only ever
// borrow it for the lifetime of the call that produced them.
type Location struct {
	buf   []byte
	start int
	len   int
}

// NewLocation builds a Location over buf[start:start+length].
func NewLocation(buf []byte, start, length int) Location {
	return Location{buf: buf, start: start, len: length}
}

// Bytes returns the byte range this Location refers to.
func (l Location) Bytes() []byte {
	if l.len == 0 {
		return nil
	}
	return l.buf[l.start : l.start+l.len]
}

// Len is the number of bytes in the Location.
func (l Location) Len() int { return l.len }

// Start is the byte offset of the Location within its base buffer.
func (l Location) Start() int { return l.start }

// End is the exclusive end offset of the Location within its base buffer.
func (l Location) End() int { return l.start + l.len }

// Empty reports whether the Location refers to zero bytes.
func (l Location) Empty() bool { return l.len == 0 }

// sameBase reports whether two Locations address the same underlying array,
// which is required for the splicing primitives below to be meaningful.
func sameBase(a, b Location) bool {
	return len(a.buf) == len(b.buf) && (len(a.buf) == 0 || &a.buf[0] == &b.buf[0])
}

// EndAtBegin returns a Location spanning from the end of l up to (but not
// including) the start of other, both sharing l's base buffer. Used to
// carve out "everything between two matched ranges" — e.g. the bytes
// between a matched key's closing quote and its value.
func (l Location) EndAtBegin(other Location) Location {
	if !sameBase(l, other) {
		panic("subdoc: EndAtBegin requires locations sharing a base buffer")
	}
	start := l.End()
	length := other.Start() - start
	if length < 0 {
		length = 0
	}
	return Location{buf: l.buf, start: start, len: length}
}

// BeginAtEnd returns a Location spanning from the start of the base buffer
// up to the start of l — i.e. "everything before l".
func (l Location) BeginAtEnd() Location {
	return Location{buf: l.buf, start: 0, len: l.start}
}

// Rest returns a Location spanning from the end of l to the end of the base
// buffer — i.e. "everything after l".
func (l Location) Rest() Location {
	return Location{buf: l.buf, start: l.End(), len: len(l.buf) - l.End()}
}

// SpliceWith returns a Location covering both l and other, which must share
// a base buffer and be adjacent or overlapping. overlap, when true, treats
// other's start as already included in l (used when the two ranges share
// exactly one boundary byte, e.g. a closing brace).
func (l Location) SpliceWith(other Location, overlap bool) Location {
	if !sameBase(l, other) {
		panic("subdoc: SpliceWith requires locations sharing a base buffer")
	}
	start := l.start
	end := other.End()
	if overlap && other.Start() == l.End() {
		// Ranges are already contiguous; nothing to adjust.
	}
	length := end - start
	if length < 0 {
		length = 0
	}
	return Location{buf: l.buf, start: start, len: length}
}

// TrimTrailingSpaces returns a Location with trailing ASCII space bytes
// stripped. The matcher does not use it: it takes a last child's span
// directly from the tokenizer.
func (l Location) TrimTrailingSpaces() Location {
	end := l.start + l.len
	for end > l.start && l.buf[end-1] == ' ' {
		end--
	}
	return Location{buf: l.buf, start: l.start, len: end - l.start}
}
