// Package bytelevel implements the GPT-2-style byte-level transform: every
// input byte is remapped to one of 256 printable Unicode codepoints before
// any further splitting happens, so a BPE/Unigram vocabulary built over
// that alphabet never has to deal with an "unknown byte".
package bytelevel

import (
	"regexp"
	"strings"

	"github.com/tokenpipe/subword/normstring"
	"github.com/tokenpipe/subword/tokenizer"
)

var byteToRuneTable = buildByteToRuneTable()
var runeToByteTable = buildRuneToByteTable()

func buildByteToRuneTable() [256]rune {
	printable := make(map[int]bool)
	for i := int('!'); i <= int('~'); i++ {
		printable[i] = true
	}
	for i := 0xA1; i <= 0xAC; i++ {
		printable[i] = true
	}
	for i := 0xAE; i <= 0xFF; i++ {
		printable[i] = true
	}

	var table [256]rune
	nextCode := 256
	for b := 0; b < 256; b++ {
		if printable[b] {
			table[b] = rune(b)
		} else {
			table[b] = rune(nextCode)
			nextCode++
		}
	}
	return table
}

func buildRuneToByteTable() map[rune]byte {
	m := make(map[rune]byte, 256)
	for b, r := range byteToRuneTable {
		m[r] = byte(b)
	}
	return m
}

// Alphabet returns every character this transform can produce, useful when
// assembling a vocabulary's initial character set.
func Alphabet() []rune {
	chars := make([]rune, 256)
	copy(chars, byteToRuneTable[:])
	return chars
}

// gpt2Pattern is the GPT-2 pre-tokenization regex, with the trailing
// whitespace rule's negative lookahead removed (Go's RE2 engine doesn't
// support lookahead). The over-matching this causes on a \s+ run directly
// followed by a non-space word is corrected afterward by
// repairAdjacentBoundaries.
var gpt2Pattern = regexp.MustCompile(`'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+`)

// PreTokenizer splits text on gpt2Pattern and remaps each fragment's bytes
// through the byte-level alphabet.
type PreTokenizer struct {
	AddPrefixSpace bool
}

// New returns a ByteLevel pre-tokenizer. When addPrefixSpace is set, input
// not already starting with a space gets one prepended first, so the first
// word is tokenized the same way a non-initial occurrence of it would be.
func New(addPrefixSpace bool) *PreTokenizer {
	return &PreTokenizer{AddPrefixSpace: addPrefixSpace}
}

// PreTokenize implements tokenizer.PreTokenizer.
func (p *PreTokenizer) PreTokenize(ns *normstring.NormalizedString) ([]tokenizer.PreToken, error) {
	if p.AddPrefixSpace && !strings.HasPrefix(ns.Get(), " ") && ns.Len() > 0 {
		ns.Prepend(" ")
	}

	text := ns.Get()
	if text == "" {
		return nil, nil
	}
	matches := gpt2Pattern.FindAllStringIndex(text, -1)
	repairAdjacentBoundaries(text, matches)

	pretoks := make([]tokenizer.PreToken, 0, len(matches))
	for i, m := range matches {
		start, end := m[0], m[1]
		if start == end {
			continue
		}
		origRange, err := ns.OriginalCharRange(normstring.Range{Start: start, End: end})
		if err != nil {
			return nil, err
		}

		raw := []byte(text[start:end])
		var sb strings.Builder
		charOffsets := make([]tokenizer.Offset, 0, len(raw))
		for k := 0; k < len(raw); k++ {
			oc, err := ns.OriginalCharRange(normstring.Range{Start: start + k, End: start + k + 1})
			if err != nil {
				return nil, err
			}
			charOffsets = append(charOffsets, tokenizer.Offset{Begin: oc.Begin, End: oc.End})
			sb.WriteRune(byteToRuneTable[raw[k]])
		}

		pretoks = append(pretoks, tokenizer.PreToken{
			Text:        sb.String(),
			Offset:      tokenizer.Offset{Begin: origRange.Begin, End: origRange.End},
			CharOffsets: charOffsets,
			Word:        uint32(i),
		})
	}
	return pretoks, nil
}

// repairAdjacentBoundaries fixes up matches in place for the one case the
// lookahead-free pattern gets wrong: a \s+ match immediately followed by a
// non-space match. The original regex's (?!\S) stopped \s+ one byte short
// in that case, leaving the final space to start the next word's match
// instead. We replicate that by moving the boundary byte back: trim the
// trailing whitespace byte off the current match and prepend it to the
// next one.
func repairAdjacentBoundaries(text string, matches [][]int) {
	for i := 0; i+1 < len(matches); i++ {
		curStart, curEnd := matches[i][0], matches[i][1]
		nextStart := matches[i+1][0]
		if curEnd != nextStart || curEnd <= curStart {
			continue
		}
		if text[curEnd-1] == ' ' {
			matches[i][1] = curEnd - 1
			matches[i+1][0] = curEnd - 1
		}
	}
}

// Decoder inverts the byte-level transform: every rune of every token maps
// back to one byte, and the bytes are concatenated and decoded as UTF-8.
type Decoder struct{}

// Decode implements tokenizer.Decoder.
func (Decoder) Decode(tokens []string) string {
	var buf []byte
	for _, tok := range tokens {
		for _, r := range tok {
			if b, ok := runeToByteTable[r]; ok {
				buf = append(buf, b)
			}
		}
	}
	return string(buf)
}

// RepairOffsets rewrites a sequence of offsets so that Begin is
// non-decreasing, by a backward rewrite rather than a forward clamp.
// ByteLevel tokens are computed from per-byte CharOffsets, so a run of
// sub-word tokens that together only cover a partial multi-byte original
// character can report a Begin that steps backward relative to the token
// before it.
//
// Scanning left to right, whenever a step goes backward (offsets[i+1].Begin
// < offsets[i].Begin), this walks backward from i to the nearest earlier
// position j whose Begin is still less than offsets[i+1].Begin, and
// overwrites offsets[j+1..=i] with offsets[j] (or, if no such j exists,
// with a zero-width offset anchored at offsets[i+1].Begin). This collapses
// the whole run of byte-level tokens that over-counted a single original
// character back down to that character's own offset, rather than merely
// clamping the single offending value forward and leaving the rest of the
// run's now-stale, too-narrow offsets in place.
func RepairOffsets(offsets []tokenizer.Offset) []tokenizer.Offset {
	repaired := append([]tokenizer.Offset(nil), offsets...)
	for i := 0; i+1 < len(repaired); i++ {
		if repaired[i+1].Begin >= repaired[i].Begin {
			continue
		}
		threshold := repaired[i+1].Begin
		j := i
		for j >= 0 && repaired[j].Begin >= threshold {
			j--
		}
		anchor := tokenizer.Offset{Begin: threshold, End: threshold}
		if j >= 0 {
			anchor = repaired[j]
		}
		for k := j + 1; k <= i; k++ {
			repaired[k] = anchor
		}
	}
	return repaired
}
