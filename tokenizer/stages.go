package tokenizer

import "github.com/tokenpipe/subword/normstring"

// Offset is a half-open character range into the original input text.
type Offset struct {
	Begin int
	End   int
}

// PreToken is one fragment produced by pre-tokenization: the fragment's
// text (which, after a transform like ByteLevel, may not be a literal
// substring of the original input), its overall character offset in the
// original input, and a per-rune offset map (CharOffsets[i] is the
// original-text offset that the i-th rune of Text belongs to). Models use
// CharOffsets to compute offsets for the sub-word tokens they emit: a
// token covering runes [i,j) of Text gets offset
// {CharOffsets[i].Begin, CharOffsets[j-1].End}.
type PreToken struct {
	Text        string
	Offset      Offset
	CharOffsets []Offset
	Word        uint32
}

// IdentityPreToken builds a PreToken for text that is a literal substring
// of the original input starting at character position origin: each rune
// of text maps 1:1 to one character of the original.
func IdentityPreToken(text string, origin int, word uint32) PreToken {
	n := 0
	for range text {
		n++
	}
	offsets := make([]Offset, n)
	for i := range offsets {
		offsets[i] = Offset{Begin: origin + i, End: origin + i + 1}
	}
	return PreToken{
		Text:        text,
		Offset:      Offset{Begin: origin, End: origin + n},
		CharOffsets: offsets,
		Word:        word,
	}
}

// Token is one output token: its vocabulary id, surface string, character
// offset into the original input, and the word-group id of the pre-token
// it came from.
type Token struct {
	ID     uint32
	Value  string
	Offset Offset
	Word   uint32
}

// Normalizer rewrites a NormalizedString in place (case folding, Unicode
// normalization forms, accent stripping, prefix-space insertion, ...).
type Normalizer interface {
	Normalize(ns *normstring.NormalizedString) error
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(ns *normstring.NormalizedString) error

// Normalize implements Normalizer.
func (f NormalizerFunc) Normalize(ns *normstring.NormalizedString) error { return f(ns) }

// PreTokenizer splits a normalized string into fragments before the model
// sees it, returning each fragment with its original-text offsets.
type PreTokenizer interface {
	PreTokenize(ns *normstring.NormalizedString) ([]PreToken, error)
}

// Model segments one pre-tokenized fragment into sub-word tokens. It is
// called once per fragment (never on fragments concatenated together) so
// that CharOffsets stay meaningful.
type Model interface {
	Tokenize(pre PreToken) ([]Token, error)
	TokenToID(token string) (uint32, bool)
	IDToToken(id uint32) (string, bool)
	VocabSize() int
}

// PostProcessor assembles the final Encoding from one (or, for pairs, two)
// already-tokenized Encodings: it may inject special tokens, set
// sequence-pair type_ids, and repair offsets (e.g. ByteLevel's offset
// repair). AddedTokens reports how many extra tokens Process will add for
// budget accounting during truncation.
type PostProcessor interface {
	Process(first, second *Encoding, addSpecialTokens bool) (*Encoding, error)
	AddedTokens(isPair bool) int
}

// Decoder turns the decoded token strings back into text.
type Decoder interface {
	Decode(tokens []string) string
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(tokens []string) string

// Decode implements Decoder.
func (f DecoderFunc) Decode(tokens []string) string { return f(tokens) }
