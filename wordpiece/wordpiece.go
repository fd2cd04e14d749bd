// Package wordpiece implements the greedy longest-match-first WordPiece
// segmentation BERT-family models use: adapted from hftokenizer.go's
// wordPieceTokenize, fixed to slice a fragment by rune rather than by byte
// (the original indexes a Go string with word[start:end], which is byte
// indexing and silently corrupts any multi-byte rune straddling start/end).
package wordpiece

import "github.com/tokenpipe/subword/tokenizer"

// Model is a WordPiece vocabulary: greedy longest match against Vocab,
// falling back to a single Unk token (or dropping the fragment if Unk is
// unset) when a fragment can't be fully covered, or exceeds
// MaxInputCharsPerWord.
type Model struct {
	Vocab                   map[string]uint32
	VocabR                  map[uint32]string
	ContinuingSubwordPrefix string
	MaxInputCharsPerWord    int
	UnkToken                string
	unkID                   uint32
	hasUnk                  bool
}

// New builds a Model from a vocabulary. prefix defaults to "##" and
// maxInputCharsPerWord to 100 when zero.
func New(vocab map[string]uint32, prefix, unkToken string, maxInputCharsPerWord int) *Model {
	if prefix == "" {
		prefix = "##"
	}
	if maxInputCharsPerWord == 0 {
		maxInputCharsPerWord = 100
	}
	vocabR := make(map[uint32]string, len(vocab))
	for tok, id := range vocab {
		vocabR[id] = tok
	}
	m := &Model{
		Vocab:                   vocab,
		VocabR:                  vocabR,
		ContinuingSubwordPrefix: prefix,
		MaxInputCharsPerWord:    maxInputCharsPerWord,
		UnkToken:                unkToken,
	}
	if id, ok := vocab[unkToken]; ok {
		m.unkID = id
		m.hasUnk = true
	}
	return m
}

func (m *Model) TokenToID(token string) (uint32, bool) {
	id, ok := m.Vocab[token]
	return id, ok
}

func (m *Model) IDToToken(id uint32) (string, bool) {
	tok, ok := m.VocabR[id]
	return tok, ok
}

func (m *Model) VocabSize() int { return len(m.Vocab) }

// Tokenize implements tokenizer.Model: greedy longest-match-first
// segmentation of one fragment, by rune.
func (m *Model) Tokenize(pre tokenizer.PreToken) ([]tokenizer.Token, error) {
	runes := []rune(pre.Text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}
	if n > m.MaxInputCharsPerWord {
		return m.unkFallback(pre)
	}

	var out []tokenizer.Token
	start := 0
	for start < n {
		end := n
		found := false
		for start < end {
			substr := string(runes[start:end])
			if start > 0 {
				substr = m.ContinuingSubwordPrefix + substr
			}
			if id, ok := m.Vocab[substr]; ok {
				out = append(out, tokenizer.Token{
					ID:     id,
					Value:  substr,
					Offset: tokenizer.Offset{Begin: pre.CharOffsets[start].Begin, End: pre.CharOffsets[end-1].End},
					Word:   pre.Word,
				})
				found = true
				break
			}
			end--
		}
		if !found {
			return m.unkFallback(pre)
		}
		start = end
	}
	return out, nil
}

func (m *Model) unkFallback(pre tokenizer.PreToken) ([]tokenizer.Token, error) {
	if !m.hasUnk {
		return nil, nil
	}
	return []tokenizer.Token{{
		ID:     m.unkID,
		Value:  m.UnkToken,
		Offset: pre.Offset,
		Word:   pre.Word,
	}}, nil
}
