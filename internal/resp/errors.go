package resp

import "errors"

// Protocol limits. A header announcing more than these is rejected before
// any payload is buffered.
const (
	// MaxBulkLen limits a single bulk string (512MB, same as Redis proto-max-bulk-len).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen limits the number of elements in one array.
	MaxArrayLen = 1024 * 1024

	// MaxLineLen limits a simple, error or header line, whether or not its
	// CRLF has arrived yet.
	MaxLineLen = 64 * 1024

	// MaxNestingDepth limits how deeply arrays may nest inside one frame.
	MaxNestingDepth = 64
)

var (
	// ErrIncomplete means the buffer holds a valid prefix of a frame.
	// The caller should read more bytes and retry from the same position.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrMalformed means the bytes can never become a valid frame.
	ErrMalformed = errors.New("resp: malformed frame")

	// ErrLimitExceeded is returned for headers above MaxBulkLen or MaxArrayLen,
	// lines above MaxLineLen and arrays nested deeper than MaxNestingDepth.
	ErrLimitExceeded = &limitError{}

	// ErrNestedArray is returned when encoding an array inside an array.
	ErrNestedArray = errors.New("resp: nested array not supported")
)

// limitError also matches ErrMalformed.
type limitError struct{}

func (*limitError) Error() string { return "resp: limit exceeded" }

func (e *limitError) Is(target error) bool {
	return target == ErrMalformed
}
