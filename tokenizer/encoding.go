package tokenizer

import "github.com/pkg/errors"

// WordSentinel is the word-group id assigned to padding positions (and any
// other position with no originating pre-token group), per spec §4.7.
const WordSentinel = ^uint32(0)

// Encoding is the immutable-after-construction record of one tokenization
// result. All seven per-token slices must have equal length.
type Encoding struct {
	IDs               []uint32
	TypeIDs           []uint32
	Tokens            []string
	Offsets           []Offset
	SpecialTokensMask []uint32
	AttentionMask     []uint32
	Words             []uint32
	Overflowing       []*Encoding
}

// TaggedToken is a Token plus whether it is a special token (excluded from
// decode by default, flagged in SpecialTokensMask).
type TaggedToken struct {
	Token
	IsSpecial bool
}

// NewEncoding assembles an Encoding from a source-ordered sequence of
// tagged tokens, all belonging to one segment (type id typeID).
func NewEncoding(tokens []TaggedToken, typeID uint32) *Encoding {
	n := len(tokens)
	e := &Encoding{
		IDs:               make([]uint32, n),
		TypeIDs:           make([]uint32, n),
		Tokens:            make([]string, n),
		Offsets:           make([]Offset, n),
		SpecialTokensMask: make([]uint32, n),
		AttentionMask:     make([]uint32, n),
		Words:             make([]uint32, n),
	}
	for i, t := range tokens {
		e.IDs[i] = t.ID
		e.TypeIDs[i] = typeID
		e.Tokens[i] = t.Value
		e.Offsets[i] = t.Offset
		e.Words[i] = t.Word
		e.AttentionMask[i] = 1
		if t.IsSpecial {
			e.SpecialTokensMask[i] = 1
		}
	}
	return e
}

// Len returns the number of tokens.
func (e *Encoding) Len() int { return len(e.IDs) }

// Validate checks the equal-length invariant across all seven per-token
// sequences.
func (e *Encoding) Validate() error {
	n := e.Len()
	for name, l := range map[string]int{
		"type_ids":            len(e.TypeIDs),
		"tokens":              len(e.Tokens),
		"offsets":             len(e.Offsets),
		"special_tokens_mask": len(e.SpecialTokensMask),
		"attention_mask":      len(e.AttentionMask),
		"words":               len(e.Words),
	} {
		if l != n {
			return errors.Errorf("encoding invariant violated: len(ids)=%d but len(%s)=%d", n, name, l)
		}
	}
	return nil
}

// Merge appends other's tokens to e in place and returns e. Used to
// assemble the final single- or pair-sequence Encoding, and by
// PostProcessors that splice in special tokens around existing content.
func (e *Encoding) Merge(other *Encoding) *Encoding {
	e.IDs = append(e.IDs, other.IDs...)
	e.TypeIDs = append(e.TypeIDs, other.TypeIDs...)
	e.Tokens = append(e.Tokens, other.Tokens...)
	e.Offsets = append(e.Offsets, other.Offsets...)
	e.SpecialTokensMask = append(e.SpecialTokensMask, other.SpecialTokensMask...)
	e.AttentionMask = append(e.AttentionMask, other.AttentionMask...)
	e.Words = append(e.Words, other.Words...)
	e.Overflowing = append(e.Overflowing, other.Overflowing...)
	return e
}

// Clone returns a deep-enough copy of e (new backing slices, so callers
// can truncate/pad without aliasing issues across overflow fragments).
func (e *Encoding) Clone() *Encoding {
	c := &Encoding{
		IDs:               append([]uint32(nil), e.IDs...),
		TypeIDs:           append([]uint32(nil), e.TypeIDs...),
		Tokens:            append([]string(nil), e.Tokens...),
		Offsets:           append([]Offset(nil), e.Offsets...),
		SpecialTokensMask: append([]uint32(nil), e.SpecialTokensMask...),
		AttentionMask:     append([]uint32(nil), e.AttentionMask...),
		Words:             append([]uint32(nil), e.Words...),
	}
	c.Overflowing = append([]*Encoding(nil), e.Overflowing...)
	return c
}

// sliceWindow returns a new Encoding covering token positions [start,end)
// of e, with no overflow fragments of its own.
func (e *Encoding) sliceWindow(start, end int) *Encoding {
	return &Encoding{
		IDs:               append([]uint32(nil), e.IDs[start:end]...),
		TypeIDs:           append([]uint32(nil), e.TypeIDs[start:end]...),
		Tokens:            append([]string(nil), e.Tokens[start:end]...),
		Offsets:           append([]Offset(nil), e.Offsets[start:end]...),
		SpecialTokensMask: append([]uint32(nil), e.SpecialTokensMask[start:end]...),
		AttentionMask:     append([]uint32(nil), e.AttentionMask[start:end]...),
		Words:             append([]uint32(nil), e.Words[start:end]...),
	}
}
