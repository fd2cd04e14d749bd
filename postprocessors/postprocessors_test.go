package postprocessors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenpipe/subword/tokenizer"
)

func encodingOf(ids ...uint32) *tokenizer.Encoding {
	tokens := make([]tokenizer.TaggedToken, len(ids))
	for i, id := range ids {
		tokens[i] = tokenizer.TaggedToken{Token: tokenizer.Token{ID: id, Value: "x", Offset: tokenizer.Offset{Begin: i, End: i + 1}}}
	}
	return tokenizer.NewEncoding(tokens, 0)
}

func bertLikeTemplate() TemplateProcessing {
	return TemplateProcessing{
		Single: []TemplateItem{
			{IsSpecialToken: true, SpecialTokenName: "[CLS]"},
			{SequenceIndex: 0},
			{IsSpecialToken: true, SpecialTokenName: "[SEP]"},
		},
		Pair: []TemplateItem{
			{IsSpecialToken: true, SpecialTokenName: "[CLS]"},
			{SequenceIndex: 0},
			{IsSpecialToken: true, SpecialTokenName: "[SEP]"},
			{SequenceIndex: 1, TypeID: 1},
			{IsSpecialToken: true, SpecialTokenName: "[SEP]", TypeID: 1},
		},
		SpecialTokens: map[string]SpecialTokenSpec{
			"[CLS]": {ID: 101, Token: "[CLS]"},
			"[SEP]": {ID: 102, Token: "[SEP]"},
		},
	}
}

func TestProcessSingleWithSpecialTokens(t *testing.T) {
	tp := bertLikeTemplate()
	first := encodingOf(10, 11)
	out, err := tp.Process(first, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []uint32{101, 10, 11, 102}, out.IDs)
	assert.Equal(t, []uint32{1, 0, 0, 1}, out.SpecialTokensMask)
}

func TestProcessSingleWithoutSpecialTokens(t *testing.T) {
	tp := bertLikeTemplate()
	first := encodingOf(10, 11)
	out, err := tp.Process(first, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 11}, out.IDs)
}

func TestProcessPairSetsTypeIDs(t *testing.T) {
	tp := bertLikeTemplate()
	first := encodingOf(10, 11)
	second := encodingOf(20, 21, 22)
	out, err := tp.Process(first, second, true)
	require.NoError(t, err)
	assert.Equal(t, []uint32{101, 10, 11, 102, 20, 21, 22, 102}, out.IDs)
	assert.Equal(t, []uint32{0, 0, 0, 0, 1, 1, 1, 1}, out.TypeIDs)
}

func TestAddedTokensCountsSpecialTokenItems(t *testing.T) {
	tp := bertLikeTemplate()
	assert.Equal(t, 2, tp.AddedTokens(false))
	assert.Equal(t, 3, tp.AddedTokens(true))
}

func TestProcessUnknownSpecialTokenErrors(t *testing.T) {
	tp := TemplateProcessing{
		Single:        []TemplateItem{{IsSpecialToken: true, SpecialTokenName: "[MISSING]"}},
		SpecialTokens: map[string]SpecialTokenSpec{},
	}
	_, err := tp.Process(encodingOf(1), nil, true)
	assert.Error(t, err)
}
