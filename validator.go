package subdoc

// This file implements the value validator, grounded on
// original_source/subdoc/validate.h's PARENT_/VALUE_ Options enum and
// spec.md §4.3. The C++ header declares the interface only (no .cc ships
// in the retrieval pack); the mechanism below — feeding the tokenizer a
// synthetically wrapped buffer and inspecting what came out — is
// reconstructed from spec.md §4.3's description of the algorithm.

// ParentContext is the syntactic position a candidate value will occupy
// once substituted into the document.
type ParentContext int

const (
	// ParentNone means the value must be a complete JSON value on its own.
	ParentNone ParentContext = iota
	// ParentArray means the value must be one or more comma-separated JSON
	// values, legal inside "[...]".
	ParentArray
	// ParentDict means the value must be exactly one JSON value, legal as
	// an object member's value.
	ParentDict
)

// ValueConstraint narrows what counts as a legal value beyond its
// ParentContext.
type ValueConstraint int

const (
	// ValueAny imposes no additional constraint.
	ValueAny ValueConstraint = iota
	// ValueSingle requires exactly one top-level element.
	ValueSingle
	// ValuePrimitive requires every top-level element to be a JSON
	// primitive (not an object or array).
	ValuePrimitive
	// ValueSinglePrimitive combines ValueSingle and ValuePrimitive.
	ValueSinglePrimitive
)

func (c ValueConstraint) single() bool {
	return c == ValueSingle || c == ValueSinglePrimitive
}

func (c ValueConstraint) primitive() bool {
	return c == ValuePrimitive || c == ValueSinglePrimitive
}

// Validate confirms that value, substituted at a position described by
// parent and constraint, would leave the document well-formed JSON.
// maxDepth bounds the value's own internal nesting and is independent of
// however deep it will ultimately sit in the document.
func Validate(value []byte, parent ParentContext, constraint ValueConstraint, maxDepth int) Error {
	if len(value) == 0 {
		return ValueEmpty
	}

	var wrapped []byte
	wrapLevels := 0
	switch parent {
	case ParentNone:
		wrapped = value
	case ParentArray:
		wrapped = make([]byte, 0, len(value)+2)
		wrapped = append(wrapped, '[')
		wrapped = append(wrapped, value...)
		wrapped = append(wrapped, ']')
		wrapLevels = 1
	case ParentDict:
		wrapped = make([]byte, 0, len(value)+6)
		wrapped = append(wrapped, '{', '"', 'k', '"', ':')
		wrapped = append(wrapped, value...)
		wrapped = append(wrapped, '}')
		wrapLevels = 1
	}

	childLevel := 1 + wrapLevels
	children := 0
	sawContainer := false

	onPop := func(level int, pk containerKind, key Location, index int, loc Location, typ JSONType, flags numFlags) {
		if level != childLevel {
			return
		}
		children++
		if typ == TypeObject || typ == TypeArray {
			sawContainer = true
		}
	}

	sc := newScanner(wrapped, maxDepth+wrapLevels, nil, onPop)
	if err := sc.Run(); err != Success {
		if err == DocEtoodeep {
			return ValueEtoodeep
		}
		return ValueCantinsert
	}

	// A full value must consume the whole (possibly synthetic) buffer,
	// modulo trailing whitespace: this is what rejects "1 2" under
	// PARENT_NONE and catches any other partial-parse leftover.
	for _, c := range wrapped[sc.pos:] {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return ValueCantinsert
		}
	}

	if children == 0 {
		return ValueCantinsert
	}
	if constraint.single() && children != 1 {
		return ValueCantinsert
	}
	if constraint.primitive() && sawContainer {
		return ValueCantinsert
	}
	return Success
}
