package addedtoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenpipe/subword/normstring"
)

func TestSplitLiteralMatch(t *testing.T) {
	r := NewRouter()
	r.Add(AddedToken{Content: "[CLS]", ID: 101, Special: true})
	r.Add(AddedToken{Content: "[SEP]", ID: 102, Special: true})

	ns := normstring.FromString("[CLS]hello[SEP]")
	frags, err := r.Split(ns)
	require.NoError(t, err)
	require.Len(t, frags, 3)

	assert.Equal(t, "[CLS]", frags[0].Text.Get())
	assert.NotNil(t, frags[0].Token)
	assert.Equal(t, uint32(101), frags[0].Token.ID)

	assert.Equal(t, "hello", frags[1].Text.Get())
	assert.Nil(t, frags[1].Token)

	assert.Equal(t, "[SEP]", frags[2].Text.Get())
	assert.NotNil(t, frags[2].Token)
}

func TestSplitSingleWordConstraint(t *testing.T) {
	r := NewRouter()
	r.Add(AddedToken{Content: "ab", ID: 1, SingleWord: true})

	// "ab" inside "xaby" is not a standalone word, must not match.
	ns := normstring.FromString("xaby")
	frags, err := r.Split(ns)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Nil(t, frags[0].Token)
	assert.Equal(t, "xaby", frags[0].Text.Get())
}

func TestSplitLStripRStrip(t *testing.T) {
	r := NewRouter()
	r.Add(AddedToken{Content: "[X]", ID: 1, LStrip: true, RStrip: true})

	ns := normstring.FromString("a  [X]  b")
	frags, err := r.Split(ns)
	require.NoError(t, err)
	require.Len(t, frags, 3)
	assert.Equal(t, "a", frags[0].Text.Get())
	assert.Equal(t, "  [X]  ", frags[1].Text.Get())
	assert.Equal(t, "b", frags[2].Text.Get())
}

func TestSplitLongestMatchWins(t *testing.T) {
	r := NewRouter()
	r.Add(AddedToken{Content: "ab", ID: 1})
	r.Add(AddedToken{Content: "abc", ID: 2})

	ns := normstring.FromString("abcd")
	frags, err := r.Split(ns)
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, "abc", frags[0].Text.Get())
	assert.Equal(t, uint32(2), frags[0].Token.ID)
	assert.Equal(t, "d", frags[1].Text.Get())
}

func TestSplitNoTokensReturnsSingleResidual(t *testing.T) {
	r := NewRouter()
	ns := normstring.FromString("plain text")
	frags, err := r.Split(ns)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Nil(t, frags[0].Token)
}
