package gencodec

import "errors"

// Registration errors.
var (
	// ErrDuplicateRegistration indicates a type was registered twice on the same Builder.
	ErrDuplicateRegistration = errors.New("gencodec: type already registered")

	// ErrAlreadyBuilt indicates Register or Build was called on a Builder that has already built.
	ErrAlreadyBuilt = errors.New("gencodec: registry already built")

	// ErrTooManyTypes indicates the registered set does not fit the 16-bit type identifier.
	ErrTooManyTypes = errors.New("gencodec: too many registered types")
)

// Shape and lookup errors.
var (
	// ErrUnsupportedType indicates a type, or one of its fields, has no serializable shape:
	// it is neither a primitive with a codec nor reachable from the registered set.
	ErrUnsupportedType = errors.New("gencodec: unsupported type")

	// ErrUnregisteredType indicates a lookup for a type outside the registered set.
	ErrUnregisteredType = errors.New("gencodec: type not registered")
)

// Dispatch errors.
var (
	// ErrUnknownRuntimeType is raised on the write path when a value whose runtime type was
	// never registered reaches a dispatch call-site. It is a caller contract violation.
	ErrUnknownRuntimeType = errors.New("gencodec: runtime type not registered for dispatch")

	// ErrUnknownTypeID is raised on the read path when a type tag has no concrete procedure.
	ErrUnknownTypeID = errors.New("gencodec: unknown type identifier")

	// ErrTypeMismatch indicates a decoded concrete type cannot be assigned to its call-site.
	ErrTypeMismatch = errors.New("gencodec: decoded type not assignable to declared type")
)

// Wire errors.
var (
	// ErrTooLarge indicates a count or string length exceeds the encodable or allowed maximum.
	ErrTooLarge = errors.New("gencodec: length too large")

	// ErrInvalidPresence indicates a sealed reference marker other than 0 (nil) or 1 (present).
	ErrInvalidPresence = errors.New("gencodec: invalid presence marker")

	// ErrLengthMismatch indicates a decoded element count differs from a fixed array's length.
	ErrLengthMismatch = errors.New("gencodec: array length mismatch")

	// ErrTrailingData is returned when non-zero bytes are found after the expected end of
	// the data structure, indicating a potential parsing error or malformed data.
	ErrTrailingData = errors.New("gencodec: non-zero trailing data found after decoding")

	// ErrTruncatedData indicates that a read operation could not complete because the
	// underlying data source ended before all expected bytes were read.
	ErrTruncatedData = errors.New("gencodec: truncated data")
)

// I/O errors.
var (
	// ErrNilIO indicates that NewReader/NewWriter was called with an nil interface
	ErrNilIO = errors.New("gencodec: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrSizeTooSmall indicates a size conflict with bufio
	ErrSizeTooSmall = errors.New("gencodec: NewReaderSize with a size smaller than 16 conflict with bufio")

	// ErrAlreadyBuffered indicates that NewReader/NewWriter was called with an already-buffered
	// reader/writer with a smaller buffer, which would lead to double-buffering.
	ErrAlreadyBuffered = errors.New("gencodec: reader or writer is already buffered")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative) count from Write.
	ErrInvalidWrite = errors.New("gencodec: writer returned invalid count from Write")
)
