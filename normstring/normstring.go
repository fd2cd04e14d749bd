// Package normstring implements NormalizedString, a text buffer that tracks
// how every byte of the current text maps back to a byte range in the
// original, pre-normalization input.
package normstring

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Range is a half-open byte range, [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int { return r.End - r.Start }

// NormalizedString holds the current (possibly normalized) text, the
// original input text, and an alignment from each byte of current to a
// byte range in original.
//
// Invariant: len(alignment) == len(current) in bytes, and alignment ranges
// are non-decreasing in Start.
type NormalizedString struct {
	original  string
	current   []byte
	alignment []Range
	runeIndex []int // lazily built byte-position -> rune-index map over original
}

// FromString creates a NormalizedString whose current text equals the
// original text, with an identity alignment.
func FromString(s string) *NormalizedString {
	alignment := make([]Range, len(s))
	for i := range alignment {
		alignment[i] = Range{Start: i, End: i + 1}
	}
	return &NormalizedString{
		original:  s,
		current:   []byte(s),
		alignment: alignment,
	}
}

// Get returns the current text.
func (n *NormalizedString) Get() string {
	return string(n.current)
}

// GetOriginal returns the original, pre-normalization text.
func (n *NormalizedString) GetOriginal() string {
	return n.original
}

// Len returns the byte length of the current text.
func (n *NormalizedString) Len() int {
	return len(n.current)
}

// Change records how a character produced by Transform relates to the
// character preceding it in the original text: 0 means "same original
// position as the previous output character", a positive k means "k
// positions further into the original text", and a negative value marks a
// character that consumes no new original-text position (used for
// characters produced by splitting one original character into several,
// e.g. NFD decomposition or case-folding expansions).
type Change int

// Transform rewrites the current text to the given sequence of
// (rune, change) pairs. change describes how far the originating original
// position has moved relative to the previous output rune: a zero or
// positive change advances the "cursor" into the original text by that
// many bytes before assigning this rune's alignment; a negative change
// keeps the cursor in place, so that rune maps to the same original
// position as the rune before it.
//
// This is the single primitive normalizers use to stay offset-correct:
// Lowercase of ASCII text passes change=0 for the first rune and change=1
// (the byte width of the previous original character) for every later
// one; an expansion (e.g. ß -> ss) passes the byte distance from the
// previous original character for the first produced rune and change=-1
// (or 0) for the rest, so both map to the same original character.
func (n *NormalizedString) Transform(pairs []struct {
	R      rune
	Change Change
}) {
	newCurrent := make([]byte, 0, len(n.current))
	newAlignment := make([]Range, 0, len(n.current))

	// cursor walks over rune boundaries of the *original* alignment we
	// already have recorded for the current text; since Transform is
	// applied repeatedly, we track a position into n.original directly.
	origPos := 0
	if len(n.alignment) > 0 {
		origPos = n.alignment[0].Start
	}

	for _, p := range pairs {
		if p.Change >= 0 {
			origPos += int(p.Change)
		}
		// Find the original rune range starting at origPos.
		start := origPos
		end := start
		if start < len(n.original) {
			_, size := utf8.DecodeRuneInString(n.original[start:])
			end = start + size
		}
		rng := Range{Start: start, End: end}

		var buf [utf8.UTFMax]byte
		size := utf8.EncodeRune(buf[:], p.R)
		newCurrent = append(newCurrent, buf[:size]...)
		for i := 0; i < size; i++ {
			newAlignment = append(newAlignment, rng)
		}
	}

	n.current = newCurrent
	n.alignment = newAlignment
}

// Prepend inserts s at the beginning of the current text. The inserted
// bytes are aligned to the original-text start position of what is
// currently the first byte (or to position 0 if current is empty).
func (n *NormalizedString) Prepend(s string) {
	if s == "" {
		return
	}
	var anchor Range
	if len(n.alignment) > 0 {
		anchor = Range{Start: n.alignment[0].Start, End: n.alignment[0].Start}
	} else {
		anchor = Range{Start: 0, End: 0}
	}
	prefixBytes := []byte(s)
	prefixAlign := make([]Range, len(prefixBytes))
	for i := range prefixAlign {
		prefixAlign[i] = anchor
	}
	n.current = append(prefixBytes, n.current...)
	n.alignment = append(prefixAlign, n.alignment...)
}

// Append inserts s at the end of the current text, aligned to the
// original-text end position of what is currently the last byte.
func (n *NormalizedString) Append(s string) {
	if s == "" {
		return
	}
	var anchor Range
	if len(n.alignment) > 0 {
		last := n.alignment[len(n.alignment)-1]
		anchor = Range{Start: last.End, End: last.End}
	} else {
		anchor = Range{Start: len(n.original), End: len(n.original)}
	}
	suffixBytes := []byte(s)
	suffixAlign := make([]Range, len(suffixBytes))
	for i := range suffixAlign {
		suffixAlign[i] = anchor
	}
	n.current = append(n.current, suffixBytes...)
	n.alignment = append(n.alignment, suffixAlign...)
}

// Slice returns a new NormalizedString covering the byte range [r.Start,
// r.End) of the current text. The returned value shares the same original
// text and absolute alignment, so RangeOriginal/OriginalCharRange on the
// slice still report correct offsets into the top-level original input.
func (n *NormalizedString) Slice(r Range) (*NormalizedString, error) {
	if r.Start < 0 || r.End > len(n.current) || r.Start > r.End {
		return nil, errors.Wrapf(ErrInvalidRange, "range [%d,%d) out of bounds for current text of length %d",
			r.Start, r.End, len(n.current))
	}
	return &NormalizedString{
		original:  n.original,
		current:   append([]byte(nil), n.current[r.Start:r.End]...),
		alignment: append([]Range(nil), n.alignment[r.Start:r.End]...),
		runeIndex: n.runeIndex,
	}, nil
}

// ErrInvalidRange is returned when a requested byte range is out of bounds
// of the current text.
var ErrInvalidRange = errors.New("invalid range")

// RangeOriginal is the fundamental inverse used to emit original-text
// offsets: given a byte range into the current text, it returns the byte
// range into the original text that produced it.
func (n *NormalizedString) RangeOriginal(current Range) (Range, error) {
	if current.Start < 0 || current.End > len(n.alignment) || current.Start > current.End {
		return Range{}, errors.Wrapf(ErrInvalidRange, "range [%d,%d) out of bounds for current text of length %d",
			current.Start, current.End, len(n.alignment))
	}
	if current.Start == current.End {
		// Degenerate: anchor to the position that would follow.
		if current.Start < len(n.alignment) {
			r := n.alignment[current.Start]
			return Range{Start: r.Start, End: r.Start}, nil
		}
		if len(n.alignment) > 0 {
			r := n.alignment[len(n.alignment)-1]
			return Range{Start: r.End, End: r.End}, nil
		}
		return Range{Start: 0, End: 0}, nil
	}
	start := n.alignment[current.Start].Start
	end := n.alignment[current.End-1].End
	return Range{Start: start, End: end}, nil
}

// CharRange is a half-open range of rune (character) indices.
type CharRange struct {
	Begin int
	End   int
}

// ensureRuneIndex builds, on first use, a byte-position -> rune-index map
// over the original text so original byte ranges can be reported to
// callers as character offsets, per spec: all Token/Encoding offsets are
// character offsets in the original input's coordinate system.
func (n *NormalizedString) ensureRuneIndex() {
	if n.runeIndex != nil {
		return
	}
	idx := make([]int, len(n.original)+1)
	pos := 0
	count := 0
	for _, r := range n.original {
		size := utf8.RuneLen(r)
		for k := 0; k < size; k++ {
			idx[pos+k] = count
		}
		pos += size
		count++
	}
	idx[len(n.original)] = count
	n.runeIndex = idx
}

// OriginalCharRange converts a byte range of the current text into a
// character range of the original text, via RangeOriginal.
func (n *NormalizedString) OriginalCharRange(current Range) (CharRange, error) {
	br, err := n.RangeOriginal(current)
	if err != nil {
		return CharRange{}, err
	}
	n.ensureRuneIndex()
	return CharRange{Begin: n.runeIndex[br.Start], End: n.runeIndex[br.End]}, nil
}
