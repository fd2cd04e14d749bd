// Package decoders implements the token-stream -> text stage that inverts
// pre-tokenization: WordPiece's "##" continuation prefix, Metaspace's
// marker substitution, BPE's end-of-word suffix, generic Strip/Replace
// steps, and Sequence composition. ByteLevel's decoder lives in package
// bytelevel, since it shares the byte/rune tables the ByteLevel
// pre-tokenizer builds.
package decoders

import (
	"strings"

	"github.com/tokenpipe/subword/tokenizer"
)

// WordPiece joins tokens with a space, except a token carrying Prefix
// (default "##"), which is glued directly onto the previous token with
// the prefix stripped.
type WordPiece struct {
	Prefix string
}

func (w WordPiece) Decode(tokens []string) string {
	prefix := w.Prefix
	if prefix == "" {
		prefix = "##"
	}
	var sb strings.Builder
	for i, tok := range tokens {
		if strings.HasPrefix(tok, prefix) {
			sb.WriteString(strings.TrimPrefix(tok, prefix))
			continue
		}
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

// Metaspace reverses the Metaspace pre-tokenizer's marker substitution and
// trims the leading space that AddPrefixSpace introduced.
type Metaspace struct{}

const marker = '▁'

func (Metaspace) Decode(tokens []string) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(strings.ReplaceAll(tok, string(marker), " "))
	}
	return strings.TrimPrefix(sb.String(), " ")
}

// BPEDecoder joins BPE tokens, treating a token carrying Suffix (the
// model's end-of-word marker, e.g. "</w>") as ending a word: the suffix is
// stripped and a space follows, unless it's the last token.
type BPEDecoder struct {
	Suffix string
}

func (b BPEDecoder) Decode(tokens []string) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if b.Suffix != "" && strings.HasSuffix(tok, b.Suffix) {
			sb.WriteString(strings.TrimSuffix(tok, b.Suffix))
			if i < len(tokens)-1 {
				sb.WriteString(" ")
			}
			continue
		}
		sb.WriteString(tok)
	}
	return sb.String()
}

// Strip removes up to N of the given rune from the left and/or right of
// the fully-decoded string.
type Strip struct {
	Char       rune
	Left       int
	Right      int
	Underlying decoder
}

// decoder is an alias for tokenizer.Decoder, kept local so this package's
// exported types can be built from outside without an import cycle concern
// showing up in their field signatures.
type decoder = tokenizer.Decoder

func (s Strip) Decode(tokens []string) string {
	text := s.Underlying.Decode(tokens)
	for i := 0; i < s.Left && strings.HasPrefix(text, string(s.Char)); i++ {
		text = text[len(string(s.Char)):]
	}
	for i := 0; i < s.Right && strings.HasSuffix(text, string(s.Char)); i++ {
		text = text[:len(text)-len(string(s.Char))]
	}
	return text
}

// Replace substitutes every occurrence of Old with New in the final
// decoded text.
type Replace struct {
	Old, New   string
	Underlying decoder
}

func (r Replace) Decode(tokens []string) string {
	return strings.ReplaceAll(r.Underlying.Decode(tokens), r.Old, r.New)
}

// Sequence joins each decoder's output: every stage after the first
// receives the previous stage's already-decoded text as its sole "token".
type Sequence struct {
	Decoders []decoder
}

func (s Sequence) Decode(tokens []string) string {
	cur := tokens
	var text string
	for i, d := range s.Decoders {
		text = d.Decode(cur)
		if i < len(s.Decoders)-1 {
			cur = []string{text}
		}
	}
	return text
}
