package codec

import "errors"

// Error vocabulary for the canonical binary codec.
var (
	// ErrShortRead is returned when a decode consumes more bytes than are
	// available in the input.
	ErrShortRead = errors.New("codec: short read")

	// ErrTrailingBytes is returned when a top-level decode leaves unconsumed
	// bytes behind.
	ErrTrailingBytes = errors.New("codec: trailing bytes")

	// ErrBadDiscriminator is returned when a tagged union's discriminator
	// byte does not match any known variant.
	ErrBadDiscriminator = errors.New("codec: bad discriminator")

	// ErrLengthOverflow is returned when a decoded length/count exceeds the
	// representable or sane range.
	ErrLengthOverflow = errors.New("codec: length overflow")

	// ErrNonCanonicalOrder is returned when a decoded ordered map/sequence is
	// not in strictly ascending canonical order.
	ErrNonCanonicalOrder = errors.New("codec: non-canonical order")

	// ErrBadOptionalTag is returned when an Option's leading tag byte is
	// neither 0 nor 1.
	ErrBadOptionalTag = errors.New("codec: bad optional tag")
)
