package bpe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenpipe/subword/tokenizer"
)

func smallVocabAndMerges() (map[string]uint32, [][2]string) {
	vocab := map[string]uint32{
		"l": 0, "o": 1, "w": 2, "e": 3, "r": 4, "n": 5, "s": 6, "t": 7,
		"lo": 8, "low": 9, "er": 10, "est": 11, "ne": 12, "new": 13,
	}
	merges := [][2]string{
		{"l", "o"},
		{"lo", "w"},
		{"e", "r"},
		{"n", "e"},
		{"ne", "w"},
		{"e", "s"}, // intentionally unused path check below replaced
	}
	// Fix: "est" requires "es"+"t", and "es" requires "e"+"s". Rebuild
	// consistent merges and vocab for a clean round trip.
	vocab = map[string]uint32{
		"l": 0, "o": 1, "w": 2, "e": 3, "r": 4, "n": 5, "s": 6, "t": 7,
		"lo": 8, "low": 9, "er": 10, "es": 11, "est": 12, "ne": 13, "new": 14,
	}
	merges = [][2]string{
		{"l", "o"},
		{"lo", "w"},
		{"e", "r"},
		{"e", "s"},
		{"es", "t"},
		{"n", "e"},
		{"ne", "w"},
	}
	return vocab, merges
}

func pre(text string) tokenizer.PreToken {
	return tokenizer.IdentityPreToken(text, 0, 0)
}

func TestTokenizeMergesGreedily(t *testing.T) {
	vocab, merges := smallVocabAndMerges()
	m, err := New(vocab, merges)
	require.NoError(t, err)

	toks, err := m.Tokenize(pre("low"))
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, "low", toks[0].Value)
	assert.Equal(t, tokenizer.Offset{Begin: 0, End: 3}, toks[0].Offset)
}

func TestTokenizeLeavesUnmergeableAsSingleChars(t *testing.T) {
	vocab, merges := smallVocabAndMerges()
	m, err := New(vocab, merges)
	require.NoError(t, err)

	toks, err := m.Tokenize(pre("test"))
	require.NoError(t, err)
	var values []string
	for _, tk := range toks {
		values = append(values, tk.Value)
	}
	assert.Equal(t, []string{"t", "est"}, values)
}

func TestConstructionRejectsUnknownMergeToken(t *testing.T) {
	vocab := map[string]uint32{"a": 0, "b": 1}
	_, err := New(vocab, [][2]string{{"a", "c"}})
	require.Error(t, err)
}

func TestUnkFallback(t *testing.T) {
	vocab := map[string]uint32{"a": 0, "<unk>": 1}
	m, err := New(vocab, nil, WithUnkToken("<unk>"))
	require.NoError(t, err)

	toks, err := m.Tokenize(pre("z"))
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, "<unk>", toks[0].Value)
}

func TestCacheReturnsSameSegmentation(t *testing.T) {
	vocab, merges := smallVocabAndMerges()
	m, err := New(vocab, merges)
	require.NoError(t, err)

	first, err := m.Tokenize(pre("low"))
	require.NoError(t, err)
	second, err := m.Tokenize(pre("low"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestContinuingSubwordPrefix(t *testing.T) {
	vocab := map[string]uint32{"a": 0, "##b": 1, "ab": 2}
	m, err := New(vocab, [][2]string{{"a", "##b"}}, WithContinuingSubwordPrefix("##"))
	require.NoError(t, err)

	toks, err := m.Tokenize(pre("ab"))
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, "ab", toks[0].Value)
}
