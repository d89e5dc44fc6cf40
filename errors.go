package floppyimg

import "fmt"

// ErrorKind is the flat discriminated error taxonomy for the module.
// CRC mismatches are never represented as errors — they are flags on a
// successful result (see ReadSectorResult.AddressCRCError/DataCRCError).
type ErrorKind int

const (
	// IoError wraps a failure of the underlying reader/writer, during
	// load or during codec seek/read mechanics.
	IoError ErrorKind = iota
	// SeekError reports geometry out of bounds: head >= 2, or a
	// cylinder beyond the current track_map length.
	SeekError
	// ParameterError reports a buffer-size mismatch on write, a
	// weak-mask length mismatch, or an unsupported scope on a
	// ByteStream track.
	ParameterError
	// DataError reports a sector that could not be located: no
	// matching marker, or a sector-size mismatch in non-debug mode.
	DataError
	// UnsupportedFormat reports an operation invalid for the current
	// track variant (master_sector on BitStream, format on ByteStream).
	// DataBlock scope on ByteStream is reported as ParameterError.
	UnsupportedFormat
	// FormatParseError is emitted by external load drivers when a
	// container's own framing is malformed.
	FormatParseError
	// UnknownFormat is emitted when format detection cannot identify a
	// container at all.
	UnknownFormat
)

func (k ErrorKind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case SeekError:
		return "SeekError"
	case ParameterError:
		return "ParameterError"
	case DataError:
		return "DataError"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case FormatParseError:
		return "FormatParseError"
	case UnknownFormat:
		return "UnknownFormat"
	default:
		return "UnknownErrorKind"
	}
}

// Error is the single error type every public operation in this module
// returns. Callers switch on Kind, never on the message text.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// newError builds an *Error with a formatted message.
func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewUnsupportedFormatError builds the UnsupportedFormat error stub
// drivers return from Load: the container tag is recognized (Detect
// never claims it) but this module carries no parser for it.
func NewUnsupportedFormatError(name string) *Error {
	return newError(UnsupportedFormat, "%s container format is not implemented", name)
}

// Is supports errors.Is(err, &floppyimg.Error{Kind: floppyimg.SeekError})
// style checks by comparing Kind; it does not compare Msg.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
