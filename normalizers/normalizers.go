// Package normalizers implements the text-normalization stage of the
// pipeline: case folding, Unicode normalization forms, accent stripping,
// and BERT-style text cleaning, all applied through NormalizedString so
// every transform stays offset-correct.
package normalizers

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/tokenpipe/subword/normstring"
	"github.com/tokenpipe/subword/tokenizer"
)

// transformPair is the exact anonymous struct shape NormalizedString.Transform
// expects.
type transformPair = struct {
	R      rune
	Change normstring.Change
}

// transformRunes rewrites ns by mapping each current rune through mapRune,
// which may return zero runes (deletion), one rune (substitution), or
// several (expansion); every output rune is aligned back to the original
// input position its source rune came from.
func transformRunes(ns *normstring.NormalizedString, mapRune func(rune) []rune) error {
	text := ns.Get()
	if text == "" {
		return nil
	}
	zero, err := ns.RangeOriginal(normstring.Range{Start: 0, End: 0})
	if err != nil {
		return err
	}
	cursor := zero.Start

	var pairs []transformPair
	bytePos := 0
	for _, r := range text {
		size := utf8.RuneLen(r)
		orig, err := ns.RangeOriginal(normstring.Range{Start: bytePos, End: bytePos + size})
		if err != nil {
			return err
		}
		for i, out := range mapRune(r) {
			if i == 0 {
				pairs = append(pairs, transformPair{R: out, Change: normstring.Change(orig.Start - cursor)})
				cursor = orig.Start
			} else {
				pairs = append(pairs, transformPair{R: out, Change: -1})
			}
		}
		bytePos += size
	}
	ns.Transform(pairs)
	return nil
}

// Lowercase case-folds every rune.
type Lowercase struct{}

func (Lowercase) Normalize(ns *normstring.NormalizedString) error {
	return transformRunes(ns, func(r rune) []rune { return []rune{unicode.ToLower(r)} })
}

// unicodeForm applies one of the four standard Unicode normalization
// forms, rune by rune. Multi-rune combining sequences already split across
// separate input runes before this call are normalized independently per
// rune rather than as a group — the common case of precomposed or
// singly-decomposed input is handled exactly; recomposing an
// already-separated base+combining-mark pair is the one case this
// simplification doesn't cover.
type unicodeForm struct{ form norm.Form }

func (u unicodeForm) Normalize(ns *normstring.NormalizedString) error {
	return transformRunes(ns, func(r rune) []rune { return []rune(u.form.String(string(r))) })
}

var (
	NFC  tokenizer.Normalizer = unicodeForm{norm.NFC}
	NFD  tokenizer.Normalizer = unicodeForm{norm.NFD}
	NFKC tokenizer.Normalizer = unicodeForm{norm.NFKC}
	NFKD tokenizer.Normalizer = unicodeForm{norm.NFKD}
)

// StripAccents decomposes every rune (NFD) and discards any resulting
// combining mark (Unicode category Mn).
type StripAccents struct{}

func (StripAccents) Normalize(ns *normstring.NormalizedString) error {
	return transformRunes(ns, func(r rune) []rune {
		decomposed := []rune(norm.NFD.String(string(r)))
		out := decomposed[:0]
		for _, d := range decomposed {
			if !unicode.Is(unicode.Mn, d) {
				out = append(out, d)
			}
		}
		return out
	})
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x20000 && r <= 0x2FA1F)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isWhitespaceVariant(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// BertNormalizer reproduces BERT's basic tokenization cleanup: control
// characters are dropped, whitespace variants are collapsed to ' ', CJK
// characters are padded with spaces so they always end up as their own
// pre-token, and (optionally) accents are stripped and text is lowercased.
type BertNormalizer struct {
	Lowercase          bool
	HandleChineseChars bool
	StripAccents       bool
	CleanText          bool
}

func (b BertNormalizer) Normalize(ns *normstring.NormalizedString) error {
	return transformRunes(ns, func(r rune) []rune {
		if b.CleanText {
			if isControl(r) || r == 0 || r == 0xFFFD {
				return nil
			}
			if isWhitespaceVariant(r) {
				r = ' '
			}
		}
		out := []rune{r}
		if b.HandleChineseChars && isCJK(r) {
			out = []rune{' ', r, ' '}
		}
		if b.StripAccents {
			var stripped []rune
			for _, c := range out {
				for _, d := range []rune(norm.NFD.String(string(c))) {
					if !unicode.Is(unicode.Mn, d) {
						stripped = append(stripped, d)
					}
				}
			}
			out = stripped
		}
		if b.Lowercase {
			for i, c := range out {
				out[i] = unicode.ToLower(c)
			}
		}
		return out
	})
}

// Sequence runs each normalizer in turn against the same NormalizedString.
type Sequence struct {
	Normalizers []tokenizer.Normalizer
}

func (s Sequence) Normalize(ns *normstring.NormalizedString) error {
	for _, n := range s.Normalizers {
		if err := n.Normalize(ns); err != nil {
			return err
		}
	}
	return nil
}
