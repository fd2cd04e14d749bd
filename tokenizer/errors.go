package tokenizer

import (
	"github.com/pkg/errors"

	"github.com/tokenpipe/subword/normstring"
)

// Sentinel error kinds, matched with errors.Is. Each is wrapped with
// context via github.com/pkg/errors at the point of failure.
var (
	// ErrInvalidInput is returned when the input doesn't match the shape
	// requested of the encode call (e.g. a pair requested for a single
	// input, or vice versa).
	ErrInvalidInput = errors.New("invalid input")

	// ErrSequenceTooShort is returned when a truncation strategy cannot
	// bring the encoding within max_length without violating its own
	// constraints (e.g. OnlyFirst/OnlySecond when the named sequence
	// alone cannot absorb the excess).
	ErrSequenceTooShort = errors.New("sequence too short to satisfy truncation")

	// ErrMissingUnkToken is returned when a BPE model encounters an
	// unknown character with no configured fallback.
	ErrMissingUnkToken = errors.New("missing unk token")

	// ErrMergesContainUnknownToken is returned at BPE construction time
	// when a merge rule references a token absent from the vocabulary.
	ErrMergesContainUnknownToken = errors.New("merges contain unknown token")

	// ErrBusyTokenizer is returned when a mutating operation is attempted
	// while encode tasks are outstanding.
	ErrBusyTokenizer = errors.New("tokenizer is busy")

	// ErrSerialization is returned for a malformed document or an
	// unrecognized stage "type" discriminator.
	ErrSerialization = errors.New("serialization error")

	// ErrIO wraps an underlying read/write failure.
	ErrIO = errors.New("io error")

	// ErrInvalidRange is returned for offset arithmetic out of bounds on
	// a NormalizedString. It is the same value as normstring.ErrInvalidRange.
	ErrInvalidRange = normstring.ErrInvalidRange
)
