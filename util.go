package gencodec

import (
	"encoding/binary"
	"fmt"
)

var (
	BE = binary.BigEndian
	LE = binary.LittleEndian
	// Order is default binary order
	Order binary.ByteOrder = BE
)

// MAX_PADDING defines the maximum number of trailing bytes to check.
// Anything larger is considered a protocol error.
const MAX_PADDING = 1024 // 1KB

// CheckBufferNotZeros verifies that the bytes left over after decoding are all zero.
// Parsers use it to ensure the entire expected payload was consumed and no garbage
// data follows, which could indicate a bug or a malicious payload.
func CheckBufferNotZeros(rest []byte) error {
	if len(rest) > MAX_PADDING {
		return fmt.Errorf("%w: exceeds maximum expected size of %d bytes", ErrTrailingData, MAX_PADDING)
	}
	for i, b := range rest {
		if b != 0 {
			return fmt.Errorf("%w: found non-zero byte 0x%02x at offset %d", ErrTrailingData, b, i)
		}
	}
	return nil
}
