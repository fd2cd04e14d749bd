package unigram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tokenpipe/subword/tokenizer"
)

// encodeSentencePieceModel hand-builds the wire bytes of a minimal
// ModelProto (only the repeated `pieces` field, id 1; each SentencePiece
// message has `piece` string at id 1, `score` fixed32 at id 2) — the same
// shape a real spiece.model file carries, used here to exercise
// FromSentencePieceModel without depending on a real model asset on disk.
func encodeSentencePieceModel(table []TokenScore) []byte {
	var buf []byte
	for _, ts := range table {
		var piece []byte
		piece = protowire.AppendTag(piece, 1, protowire.BytesType)
		piece = protowire.AppendString(piece, ts.Token)
		piece = protowire.AppendTag(piece, 2, protowire.Fixed32Type)
		piece = protowire.AppendFixed32(piece, math.Float32bits(float32(ts.Score)))

		buf = protowire.AppendTag(buf, 1, protowire.BytesType)
		buf = protowire.AppendBytes(buf, piece)
	}
	return buf
}

func testTable() []TokenScore {
	return []TokenScore{
		{Token: "<pad>", Score: -10},
		{Token: "<s>", Score: -10},
		{Token: "<unk>", Score: -10},
		{Token: "a", Score: -1},
		{Token: "b", Score: -1},
		{Token: "ab", Score: -0.5},
		{Token: "abc", Score: -0.2},
		{Token: "c", Score: -1},
	}
}

func pre(text string) tokenizer.PreToken {
	return tokenizer.IdentityPreToken(text, 0, 0)
}

func TestTokenizePrefersHighestScoringPath(t *testing.T) {
	m, err := From(testTable(), -1)
	require.NoError(t, err)

	toks, err := m.Tokenize(pre("abc"))
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, "abc", toks[0].Value)
	assert.Equal(t, tokenizer.Offset{Begin: 0, End: 3}, toks[0].Offset)
}

func TestTokenizeFallsBackToUnk(t *testing.T) {
	m, err := From(testTable(), -1)
	require.NoError(t, err)

	toks, err := m.Tokenize(pre("z"))
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, uint32(2), toks[0].ID) // defaultUnkID
	assert.Equal(t, "z", toks[0].Value)
}

func TestTokenizeEachFragmentIndependently(t *testing.T) {
	m, err := From(testTable(), -1)
	require.NoError(t, err)

	// Two separate fragments must each start their own lattice: "c"+"ab"
	// must not be able to match the vocabulary piece "cab" (which doesn't
	// even exist here, but more importantly offsets must stay anchored to
	// each fragment's own CharOffsets).
	first, err := m.Tokenize(pre("c"))
	require.NoError(t, err)
	second, err := m.Tokenize(pre("ab"))
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "c", first[0].Value)
	assert.Equal(t, "ab", second[0].Value)
}

func TestTokenizeEmptyFragment(t *testing.T) {
	m, err := From(testTable(), -1)
	require.NoError(t, err)
	toks, err := m.Tokenize(pre(""))
	require.NoError(t, err)
	assert.Empty(t, toks)
}

func TestSaveRoundTripsTable(t *testing.T) {
	table := testTable()
	m, err := From(table, -1)
	require.NoError(t, err)
	saved := m.Save()
	require.Len(t, saved, len(table))
	for i := range table {
		assert.Equal(t, table[i], saved[i])
	}
}

func TestVocabAccessors(t *testing.T) {
	m, err := From(testTable(), -1)
	require.NoError(t, err)
	assert.Equal(t, 8, m.VocabSize())

	id, ok := m.TokenToID("abc")
	require.True(t, ok)
	tok, ok := m.IDToToken(id)
	require.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = m.TokenToID("nonexistent")
	assert.False(t, ok)
}

func TestFromSentencePieceModel(t *testing.T) {
	data := encodeSentencePieceModel(testTable())

	m, err := FromSentencePieceModel(data, -1)
	require.NoError(t, err)
	require.Equal(t, 8, m.VocabSize())

	tokens, err := m.Tokenize(pre("abc"))
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "abc", tokens[0].Value)

	id, ok := m.TokenToID("<unk>")
	require.True(t, ok)
	assert.EqualValues(t, defaultUnkID, id)
}

func TestFromSentencePieceModelRejectsMalformedBytes(t *testing.T) {
	_, err := FromSentencePieceModel([]byte{0xff, 0xff, 0xff}, -1)
	assert.Error(t, err)
}
