package subdoc

// Error is the wire-stable error taxonomy from spec.md §7. It is returned
// by value (not wrapped) from the hot-path engine so callers can map it to
// a wire protocol code without string-matching.
type Error int

const (
	Success Error = iota
	PathENOENT
	PathMismatch
	PathEinval
	PathE2big
	DocNotJSON
	DocEexists
	DocEtoodeep
	NumE2big
	DeltaOverflow
	DeltaEinval
	ValueCantinsert
	ValueEmpty
	ValueEtoodeep
	GlobalEnosupport

	// BadPath, LevelsExceeded and InvalidNumber are Path.Parse-specific
	// outcomes (spec.md §4.1); they are reported through PathEinval /
	// PathE2big at the Operation layer but kept distinct here since the
	// parser itself has no notion of a "path" vs. "document" error.
	BadPath
	LevelsExceeded
	InvalidNumber
)

var errorText = map[Error]string{
	Success:           "success",
	PathENOENT:        "path does not exist",
	PathMismatch:      "path mismatch",
	PathEinval:        "invalid path",
	PathE2big:         "path too deep",
	DocNotJSON:        "document is not JSON",
	DocEexists:        "document already exists",
	DocEtoodeep:       "document too deep",
	NumE2big:          "number too big",
	DeltaOverflow:     "delta overflow",
	DeltaEinval:       "invalid delta",
	ValueCantinsert:   "value cannot be inserted",
	ValueEmpty:        "value is empty",
	ValueEtoodeep:     "value too deep",
	GlobalEnosupport:  "operation not supported",
	BadPath:           "malformed path",
	LevelsExceeded:    "path exceeds maximum component count",
	InvalidNumber:     "invalid numeric path component",
}

func (e Error) Error() string {
	if s, ok := errorText[e]; ok {
		return s
	}
	return "subdoc: unknown error"
}

// OK reports whether e represents success.
func (e Error) OK() bool { return e == Success }
