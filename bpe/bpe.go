// Package bpe implements byte-pair-encoding segmentation: a vocabulary plus
// a ranked table of merge rules, applied greedily (lowest rank first) to
// the symbols of each pre-tokenized fragment.
package bpe

import (
	"container/list"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tokenpipe/subword/tokenizer"
)

// Pair is an adjacent pair of vocabulary ids, the key merges are looked up
// by.
type Pair struct {
	A, B uint32
}

type mergeInfo struct {
	rank  int
	newID uint32
}

type symbol struct {
	text    string
	runeLen int // count of original pre-token runes this symbol covers
}

// Model is a BPE segmentation model.
type Model struct {
	vocab  map[string]uint32
	vocabR map[uint32]string
	merges map[Pair]mergeInfo

	mu    sync.Mutex
	cache *fifoCache

	dropout                 float64
	continuingSubwordPrefix string
	endOfWordSuffix         string
	unkToken                string
}

// Option configures a Model at construction time.
type Option func(*Model)

func WithDropout(p float64) Option                  { return func(m *Model) { m.dropout = p } }
func WithContinuingSubwordPrefix(s string) Option    { return func(m *Model) { m.continuingSubwordPrefix = s } }
func WithEndOfWordSuffix(s string) Option            { return func(m *Model) { m.endOfWordSuffix = s } }
func WithUnkToken(tok string) Option                 { return func(m *Model) { m.unkToken = tok } }
// WithCacheCapacity overrides the default merged-symbols cache size. A
// capacity of zero disables the cache entirely, rather than falling back to
// the default.
func WithCacheCapacity(n int) Option { return func(m *Model) { m.cache = newFIFOCache(n) } }

// New builds a Model from a vocabulary and a rank-ordered list of merge
// rules (the classic merges.txt shape: each entry names the two tokens to
// merge, in the order merges should be preferred).
func New(vocab map[string]uint32, mergeList [][2]string, opts ...Option) (*Model, error) {
	m := &Model{
		vocab:  vocab,
		vocabR: make(map[uint32]string, len(vocab)),
		merges: make(map[Pair]mergeInfo, len(mergeList)),
		cache:  newFIFOCache(10000),
	}
	for tok, id := range vocab {
		m.vocabR[id] = tok
	}
	for _, opt := range opts {
		opt(m)
	}

	for rank, pair := range mergeList {
		aID, ok := vocab[pair[0]]
		if !ok {
			return nil, errors.Wrapf(tokenizer.ErrMergesContainUnknownToken, "merge rank %d: left token %q not in vocabulary", rank, pair[0])
		}
		bID, ok := vocab[pair[1]]
		if !ok {
			return nil, errors.Wrapf(tokenizer.ErrMergesContainUnknownToken, "merge rank %d: right token %q not in vocabulary", rank, pair[1])
		}
		merged := pair[0] + pair[1]
		newID, ok := vocab[merged]
		if !ok {
			return nil, errors.Wrapf(tokenizer.ErrMergesContainUnknownToken, "merge rank %d: merged token %q not in vocabulary", rank, merged)
		}
		m.merges[Pair{A: aID, B: bID}] = mergeInfo{rank: rank, newID: newID}
	}

	if m.unkToken != "" {
		if _, ok := vocab[m.unkToken]; !ok {
			return nil, errors.Wrapf(tokenizer.ErrMissingUnkToken, "unk token %q not in vocabulary", m.unkToken)
		}
	}
	return m, nil
}

// TokenToID implements tokenizer.Model.
func (m *Model) TokenToID(token string) (uint32, bool) {
	id, ok := m.vocab[token]
	return id, ok
}

// IDToToken implements tokenizer.Model.
func (m *Model) IDToToken(id uint32) (string, bool) {
	tok, ok := m.vocabR[id]
	return tok, ok
}

// VocabSize implements tokenizer.Model.
func (m *Model) VocabSize() int { return len(m.vocab) }

func stripPrefix(s, prefix string) string {
	if prefix != "" && strings.HasPrefix(s, prefix) {
		return s[len(prefix):]
	}
	return s
}

// mergeWord runs the greedy merge loop over one fragment's characters.
// When dropout is configured, each candidate merge is independently
// skipped with probability dropout before the lowest-rank survivor is
// chosen (BPE-dropout regularization), so the result is non-deterministic
// and bypasses the cache.
func (m *Model) mergeWord(word string) []symbol {
	chars := []rune(word)
	if len(chars) == 0 {
		return nil
	}
	symbols := make([]symbol, len(chars))
	last := len(chars) - 1
	for i, c := range chars {
		s := string(c)
		if m.continuingSubwordPrefix != "" && i > 0 {
			s = m.continuingSubwordPrefix + s
		}
		if m.endOfWordSuffix != "" && i == last {
			s = s + m.endOfWordSuffix
		}
		symbols[i] = symbol{text: s, runeLen: 1}
	}
	if len(symbols) == 1 {
		return symbols
	}

	for {
		bestIdx := -1
		bestRank := math.MaxInt
		for i := 0; i < len(symbols)-1; i++ {
			aID, ok1 := m.vocab[symbols[i].text]
			bID, ok2 := m.vocab[symbols[i+1].text]
			if !ok1 || !ok2 {
				continue
			}
			info, ok := m.merges[Pair{A: aID, B: bID}]
			if !ok {
				continue
			}
			if m.dropout > 0 && rand.Float64() < m.dropout {
				continue
			}
			if info.rank < bestRank {
				bestRank = info.rank
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		merged := symbol{
			text:    symbols[bestIdx].text + stripPrefix(symbols[bestIdx+1].text, m.continuingSubwordPrefix),
			runeLen: symbols[bestIdx].runeLen + symbols[bestIdx+1].runeLen,
		}
		next := make([]symbol, 0, len(symbols)-1)
		next = append(next, symbols[:bestIdx]...)
		next = append(next, merged)
		next = append(next, symbols[bestIdx+2:]...)
		symbols = next
	}
	return symbols
}

// Tokenize implements tokenizer.Model.
func (m *Model) Tokenize(pre tokenizer.PreToken) ([]tokenizer.Token, error) {
	if pre.Text == "" {
		return nil, nil
	}

	var symbols []symbol
	if m.dropout <= 0 {
		if cached, ok := m.cacheGet(pre.Text); ok {
			symbols = cached
		} else {
			symbols = m.mergeWord(pre.Text)
			m.cachePut(pre.Text, symbols)
		}
	} else {
		symbols = m.mergeWord(pre.Text)
	}

	tokens := make([]tokenizer.Token, 0, len(symbols))
	runeCursor := 0
	for _, s := range symbols {
		id, ok := m.vocab[s.text]
		value := s.text
		if !ok {
			if m.unkToken == "" {
				return nil, errors.Wrapf(tokenizer.ErrMissingUnkToken, "no vocabulary entry for symbol %q", s.text)
			}
			id = m.vocab[m.unkToken]
			value = m.unkToken
		}
		begin := pre.CharOffsets[runeCursor].Begin
		end := pre.CharOffsets[runeCursor+s.runeLen-1].End
		tokens = append(tokens, tokenizer.Token{
			ID:     id,
			Value:  value,
			Offset: tokenizer.Offset{Begin: begin, End: end},
			Word:   pre.Word,
		})
		runeCursor += s.runeLen
	}
	return tokens, nil
}

// fifoCache is a bounded word -> merged-symbols cache with first-in,
// first-out eviction, guarded by Model.mu. A nil *fifoCache means the cache
// is disabled (capacity configured as zero): cacheGet always misses and
// cachePut is a no-op.
type fifoCache struct {
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value []symbol
}

// newFIFOCache builds a cache of the given capacity. Negative values fall
// back to the default (unset); zero means the caller explicitly asked to
// disable caching, so it returns nil rather than a usable cache.
func newFIFOCache(capacity int) *fifoCache {
	if capacity == 0 {
		return nil
	}
	if capacity < 0 {
		capacity = 10000
	}
	return &fifoCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (m *Model) cacheGet(word string) ([]symbol, bool) {
	if m.cache == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.cache.entries[word]
	if !ok {
		return nil, false
	}
	return el.Value.(*cacheEntry).value, true
}

func (m *Model) cachePut(word string, symbols []symbol) {
	if m.cache == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cache.entries[word]; exists {
		return
	}
	el := m.cache.order.PushBack(&cacheEntry{key: word, value: symbols})
	m.cache.entries[word] = el
	for m.cache.order.Len() > m.cache.capacity {
		oldest := m.cache.order.Front()
		if oldest == nil {
			break
		}
		m.cache.order.Remove(oldest)
		delete(m.cache.entries, oldest.Value.(*cacheEntry).key)
	}
}
