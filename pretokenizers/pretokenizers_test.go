package pretokenizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenpipe/subword/normstring"
	"github.com/tokenpipe/subword/tokenizer"
)

func TestWhitespaceSplitsWords(t *testing.T) {
	ns := normstring.FromString("Hello, world!")
	pts, err := Whitespace{}.PreTokenize(ns)
	require.NoError(t, err)
	var texts []string
	for _, p := range pts {
		texts = append(texts, p.Text)
	}
	assert.Contains(t, texts, "Hello")
	assert.Contains(t, texts, "world")
}

func TestPunctuationIsolatesPunctuation(t *testing.T) {
	ns := normstring.FromString("hi!")
	pts, err := Punctuation{Behavior: Isolated}.PreTokenize(ns)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, "hi", pts[0].Text)
	assert.Equal(t, "!", pts[1].Text)
}

func TestPunctuationRemoved(t *testing.T) {
	ns := normstring.FromString("hi!")
	pts, err := Punctuation{Behavior: Removed}.PreTokenize(ns)
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, "hi", pts[0].Text)
}

func TestMetaspaceMarksWordStarts(t *testing.T) {
	ns := normstring.FromString("hello world")
	pts, err := Metaspace{AddPrefixSpace: true}.PreTokenize(ns)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, []rune(pts[0].Text)[0], rune(metaspaceMarker))
	assert.Equal(t, tokenizer.Offset{Begin: 0, End: 5}, pts[0].Offset)
	assert.Equal(t, tokenizer.Offset{Begin: 5, End: 11}, pts[1].Offset)
}

func TestSequenceChainsSplittingStages(t *testing.T) {
	ns := normstring.FromString("hi, you!")
	seq := Sequence{PreTokenizers: []tokenizer.PreTokenizer{Whitespace{}, Punctuation{Behavior: Isolated}}}
	pts, err := seq.PreTokenize(ns)
	require.NoError(t, err)
	var texts []string
	for _, p := range pts {
		texts = append(texts, p.Text)
	}
	assert.Contains(t, texts, "hi")
	assert.Contains(t, texts, ",")
	assert.Contains(t, texts, "you")
	assert.Contains(t, texts, "!")
}
