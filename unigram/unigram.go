// Package unigram implements the Unigram language-model tokenizer: a
// vocabulary of (piece, log-probability) pairs segmented via single-pass
// Viterbi search over a lattice of every vocabulary piece that occurs as a
// substring of the input.
package unigram

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/tokenpipe/subword/lattice"
	"github.com/tokenpipe/subword/tokenizer"
	"github.com/tokenpipe/subword/trie"
	"github.com/tokenpipe/subword/unigram/spmodel"
)

// unkPenalty is subtracted from the lowest score in the vocabulary to form
// the score of the synthetic single-character fallback node inserted at any
// lattice position the real vocabulary doesn't cover.
const unkPenalty = 10.0

// defaultUnkID is the conventional vocabulary index of the unknown-token
// placeholder in SentencePiece-derived Unigram models ("<unk>" is almost
// always the third entry, after two control pieces such as "<pad>" and
// "<s>").
const defaultUnkID = 2

// TokenScore is one (piece, log-probability) entry of the vocabulary table.
type TokenScore struct {
	Token string
	Score float64
}

// Model is a Unigram segmentation model.
type Model struct {
	vocab      []string
	scores     []float64
	vocabIndex map[string]int
	trie       *trie.Trie
	minScore   float64
	unkID      int
}

// From builds a Model from the vocabulary table. unkID selects which entry
// is used as the fallback for characters not covered by any vocabulary
// piece; pass a negative value to use the conventional default.
func From(table []TokenScore, unkID int) (*Model, error) {
	if len(table) == 0 {
		return nil, errors.New("unigram: empty vocabulary")
	}
	if unkID < 0 {
		unkID = defaultUnkID
	}
	if unkID >= len(table) {
		return nil, errors.Errorf("unigram: unk id %d out of range for vocabulary of size %d", unkID, len(table))
	}

	m := &Model{
		vocab:      make([]string, len(table)),
		scores:     make([]float64, len(table)),
		vocabIndex: make(map[string]int, len(table)),
		trie:       trie.New(),
		unkID:      unkID,
	}
	m.minScore = table[0].Score
	for i, ts := range table {
		m.vocab[i] = ts.Token
		m.scores[i] = ts.Score
		m.vocabIndex[ts.Token] = i
		m.trie.Insert(ts.Token, i)
		if ts.Score < m.minScore {
			m.minScore = ts.Score
		}
	}
	return m, nil
}

// FromSentencePieceModel builds a Model directly from the bytes of a
// serialized SentencePiece ModelProto (typically a spiece.model file),
// bypassing any intermediate JSON vocabulary export.
func FromSentencePieceModel(data []byte, unkID int) (*Model, error) {
	pieces, err := spmodel.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "unigram: parsing sentencepiece model")
	}
	table := make([]TokenScore, len(pieces))
	for i, p := range pieces {
		table[i] = TokenScore{Token: p.Text, Score: float64(p.Score)}
	}
	return From(table, unkID)
}

// TokenToID implements tokenizer.Model.
func (m *Model) TokenToID(token string) (uint32, bool) {
	id, ok := m.vocabIndex[token]
	if !ok {
		return 0, false
	}
	return uint32(id), true
}

// IDToToken implements tokenizer.Model.
func (m *Model) IDToToken(id uint32) (string, bool) {
	if int(id) >= len(m.vocab) {
		return "", false
	}
	return m.vocab[id], true
}

// VocabSize implements tokenizer.Model.
func (m *Model) VocabSize() int { return len(m.vocab) }

// populateNodes fills lat with every vocabulary piece occurring as a
// substring starting at each position, plus a synthetic unk node at any
// position no real piece of length 1 covers.
func (m *Model) populateNodes(lat *lattice.Lattice) {
	chars := lat.Chars
	for i := range chars {
		matches := m.trie.CommonPrefixSearch(chars[i:])
		hasSingleCharNode := false
		for _, match := range matches {
			lat.Insert(i, match.Length, m.scores[match.ID], match.ID)
			if match.Length == 1 {
				hasSingleCharNode = true
			}
		}
		if !hasSingleCharNode {
			lat.Insert(i, 1, m.minScore-unkPenalty, m.unkID)
		}
	}
}

// Tokenize implements tokenizer.Model. Each PreToken fragment is segmented
// independently: a fragment's lattice never spans into the text of an
// adjacent fragment, so offsets and Viterbi scoring both stay local to what
// the pre-tokenizer actually produced as one unit.
func (m *Model) Tokenize(pre tokenizer.PreToken) ([]tokenizer.Token, error) {
	chars := []rune(pre.Text)
	if len(chars) == 0 {
		return nil, nil
	}
	if len(pre.CharOffsets) != len(chars) {
		return nil, errors.Errorf("unigram: pre-token has %d chars but %d char offsets", len(chars), len(pre.CharOffsets))
	}

	lat := lattice.From(chars)
	m.populateNodes(lat)
	path := lat.Viterbi()

	tokens := make([]tokenizer.Token, 0, len(path))
	for _, node := range path {
		surface := string(chars[node.Begin : node.Begin+node.Length])
		value := surface
		if node.ID != m.unkID {
			value = m.vocab[node.ID]
		}
		off := tokenizer.Offset{
			Begin: pre.CharOffsets[node.Begin].Begin,
			End:   pre.CharOffsets[node.Begin+node.Length-1].End,
		}
		tokens = append(tokens, tokenizer.Token{
			ID:     uint32(node.ID),
			Value:  value,
			Offset: off,
			Word:   pre.Word,
		})
	}
	return tokens, nil
}

// Save returns the vocabulary as (token, score) pairs in vocabulary-index
// order, the same shape the model was built from.
func (m *Model) Save() []TokenScore {
	out := make([]TokenScore, len(m.vocab))
	for i := range m.vocab {
		out[i] = TokenScore{Token: m.vocab[i], Score: m.scores[i]}
	}
	return out
}

// SortedByScore returns vocabulary indices ordered from most to least
// probable; useful for diagnostics.
func (m *Model) SortedByScore() []int {
	idx := make([]int, len(m.vocab))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return m.scores[idx[a]] > m.scores[idx[b]] })
	return idx
}
