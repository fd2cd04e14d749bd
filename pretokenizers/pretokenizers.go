// Package pretokenizers implements the fragment-splitting stage that runs
// after normalization and added-token routing: Whitespace/BertPreTokenizer
// word-boundary splitting, Metaspace's SentencePiece-style space marker,
// standalone punctuation splitting, and Sequence composition.
package pretokenizers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"

	"github.com/tokenpipe/subword/normstring"
	"github.com/tokenpipe/subword/tokenizer"
)

// emitFromRanges turns a set of (current-byte-start, current-byte-end)
// spans into PreTokens, looking up each span's original offsets and
// per-rune CharOffsets via ns.
func emitFromRanges(ns *normstring.NormalizedString, spans [][2]int) ([]tokenizer.PreToken, error) {
	text := ns.Get()
	pretoks := make([]tokenizer.PreToken, 0, len(spans))
	word := uint32(0)
	for _, span := range spans {
		start, end := span[0], span[1]
		if start == end {
			continue
		}
		origRange, err := ns.OriginalCharRange(normstring.Range{Start: start, End: end})
		if err != nil {
			return nil, err
		}
		frag := text[start:end]
		n := 0
		charOffsets := make([]tokenizer.Offset, 0, len(frag))
		pos := start
		for _, r := range frag {
			size := utf8.RuneLen(r)
			oc, err := ns.OriginalCharRange(normstring.Range{Start: pos, End: pos + size})
			if err != nil {
				return nil, err
			}
			charOffsets = append(charOffsets, tokenizer.Offset{Begin: oc.Begin, End: oc.End})
			pos += size
			n++
		}
		pretoks = append(pretoks, tokenizer.PreToken{
			Text:        frag,
			Offset:      tokenizer.Offset{Begin: origRange.Begin, End: origRange.End},
			CharOffsets: charOffsets,
			Word:        word,
		})
		word++
	}
	return pretoks, nil
}

func isWhitespaceOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// wordBoundarySpans runs uax29's UAX#29 word segmenter over text and
// returns the byte spans of every segment that isn't pure whitespace.
// Segmentation is total — the yielded substrings concatenate back to
// exactly text — so tracking a running byte cursor recovers each
// segment's position without the segmenter needing to expose it itself.
func wordBoundarySpans(text string) [][2]int {
	var spans [][2]int
	pos := 0
	for seg := range words.FromString(text) {
		start, end := pos, pos+len(seg)
		pos = end
		if !isWhitespaceOnly(seg) {
			spans = append(spans, [2]int{start, end})
		}
	}
	return spans
}

// Whitespace splits on UAX#29 word boundaries, discarding pure-whitespace
// segments.
type Whitespace struct{}

func (Whitespace) PreTokenize(ns *normstring.NormalizedString) ([]tokenizer.PreToken, error) {
	return emitFromRanges(ns, wordBoundarySpans(ns.Get()))
}

// BertPreTokenizer splits on UAX#29 word boundaries the same way
// Whitespace does — the UAX#29 algorithm already isolates punctuation into
// its own segments, which is the behavior BERT's tokenizer relies on.
type BertPreTokenizer struct{}

func (BertPreTokenizer) PreTokenize(ns *normstring.NormalizedString) ([]tokenizer.PreToken, error) {
	return emitFromRanges(ns, wordBoundarySpans(ns.Get()))
}

// PunctuationBehavior controls what Punctuation does with the punctuation
// characters it finds.
type PunctuationBehavior int

const (
	// Isolated emits each punctuation character as its own PreToken.
	Isolated PunctuationBehavior = iota
	// Removed drops punctuation characters entirely.
	Removed
)

func isASCIIOrUnicodePunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Punctuation splits runs of non-punctuation from individual punctuation
// characters.
type Punctuation struct {
	Behavior PunctuationBehavior
}

func (p Punctuation) PreTokenize(ns *normstring.NormalizedString) ([]tokenizer.PreToken, error) {
	text := ns.Get()
	var spans [][2]int
	start := 0
	pos := 0
	flush := func(end int) {
		if end > start {
			spans = append(spans, [2]int{start, end})
		}
	}
	for _, r := range text {
		size := utf8.RuneLen(r)
		if isASCIIOrUnicodePunct(r) {
			flush(pos)
			if p.Behavior == Isolated {
				spans = append(spans, [2]int{pos, pos + size})
			}
			start = pos + size
		}
		pos += size
	}
	flush(pos)
	return emitFromRanges(ns, spans)
}

// metaspaceMarker is the SentencePiece convention marker ("▁", U+2581)
// that Metaspace substitutes for whitespace, so each resulting fragment
// (and the Model vocabulary built for it) encodes word-start information
// directly in its text.
const metaspaceMarker = '▁'

// Metaspace replaces whitespace with metaspaceMarker and splits so each
// fragment starts with one marker (except optionally the very first, via
// AddPrefixSpace).
type Metaspace struct {
	AddPrefixSpace bool
}

func (m Metaspace) PreTokenize(ns *normstring.NormalizedString) ([]tokenizer.PreToken, error) {
	if m.AddPrefixSpace && ns.Len() > 0 && !strings.HasPrefix(ns.Get(), " ") {
		ns.Prepend(" ")
	}

	// Replace every space with the marker, one rune in, one rune out, so
	// offsets stay aligned 1:1 with the pre-replacement text.
	type transformPair = struct {
		R      rune
		Change normstring.Change
	}
	text := ns.Get()
	zero, err := ns.RangeOriginal(normstring.Range{Start: 0, End: 0})
	if err != nil {
		return nil, err
	}
	cursor := zero.Start
	var pairs []transformPair
	bytePos := 0
	for _, r := range text {
		size := utf8.RuneLen(r)
		orig, err := ns.RangeOriginal(normstring.Range{Start: bytePos, End: bytePos + size})
		if err != nil {
			return nil, err
		}
		out := r
		if r == ' ' {
			out = metaspaceMarker
		}
		pairs = append(pairs, transformPair{R: out, Change: normstring.Change(orig.Start - cursor)})
		cursor = orig.Start
		bytePos += size
	}
	ns.Transform(pairs)

	marked := ns.Get()
	var spans [][2]int
	start := -1
	pos := 0
	for _, r := range marked {
		size := utf8.RuneLen(r)
		if r == metaspaceMarker {
			if start >= 0 {
				spans = append(spans, [2]int{start, pos})
			}
			start = pos
		} else if start < 0 {
			start = pos
		}
		pos += size
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, pos})
	}
	return emitFromRanges(ns, spans)
}

// Sequence runs each pre-tokenizer over the previous stage's fragments in
// turn, concatenating the final stage's outputs and renumbering Word ids
// so they stay contiguous across the whole fragment list.
//
// Intermediate stages are re-sliced back into NormalizedStrings by locating
// each returned PreToken's text verbatim in the stage input — which holds
// for splitting stages (Whitespace, BertPreTokenizer, Punctuation) but not
// for a transforming stage (Metaspace, ByteLevel). A transforming stage
// should be the last (or only) entry in a Sequence; if it appears earlier,
// its output is kept as one opaque unit for the remaining stages rather
// than mis-sliced.
type Sequence struct {
	PreTokenizers []tokenizer.PreTokenizer
}

func (s Sequence) PreTokenize(ns *normstring.NormalizedString) ([]tokenizer.PreToken, error) {
	if len(s.PreTokenizers) == 0 {
		return nil, nil
	}
	subs := []*normstring.NormalizedString{ns}
	for _, stage := range s.PreTokenizers[:len(s.PreTokenizers)-1] {
		var next []*normstring.NormalizedString
		for _, sub := range subs {
			pretoks, err := stage.PreTokenize(sub)
			if err != nil {
				return nil, err
			}
			text := sub.Get()
			cursor := 0
			var pieces []*normstring.NormalizedString
			for _, pt := range pretoks {
				idx := strings.Index(text[cursor:], pt.Text)
				if idx < 0 {
					pieces = []*normstring.NormalizedString{sub}
					break
				}
				start := cursor + idx
				end := start + len(pt.Text)
				cursor = end
				piece, err := sub.Slice(normstring.Range{Start: start, End: end})
				if err != nil {
					return nil, err
				}
				pieces = append(pieces, piece)
			}
			next = append(next, pieces...)
		}
		subs = next
	}

	last := s.PreTokenizers[len(s.PreTokenizers)-1]
	var out []tokenizer.PreToken
	word := uint32(0)
	for _, sub := range subs {
		pretoks, err := last.PreTokenize(sub)
		if err != nil {
			return nil, err
		}
		for _, pt := range pretoks {
			pt.Word = word
			word++
			out = append(out, pt)
		}
	}
	return out, nil
}
