package decoders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordPieceJoinsWithPrefix(t *testing.T) {
	got := WordPiece{}.Decode([]string{"un", "##aff", "##able"})
	assert.Equal(t, "unaffable", got)
}

func TestWordPieceInsertsSpaceBetweenWords(t *testing.T) {
	got := WordPiece{}.Decode([]string{"hello", "world"})
	assert.Equal(t, "hello world", got)
}

func TestMetaspaceReplacesMarkerAndTrimsLeadingSpace(t *testing.T) {
	got := Metaspace{}.Decode([]string{"▁hello", "▁world"})
	assert.Equal(t, "hello world", got)
}

func TestBPEDecoderHandlesSuffix(t *testing.T) {
	got := BPEDecoder{Suffix: "</w>"}.Decode([]string{"low</w>", "er</w>"})
	assert.Equal(t, "low er", got)
}

func TestStripTrimsChar(t *testing.T) {
	got := Strip{Char: ' ', Left: 1, Underlying: WordPiece{}}.Decode([]string{" hello"})
	assert.Equal(t, "hello", got)
}

func TestReplaceSubstitutes(t *testing.T) {
	got := Replace{Old: "_", New: " ", Underlying: WordPiece{}}.Decode([]string{"hello_world"})
	assert.Equal(t, "hello world", got)
}

func TestSequenceChainsDecoders(t *testing.T) {
	seq := Sequence{Decoders: []decoder{WordPiece{}, Replace{Old: "unaffable", New: "unaffable!"}}}
	got := seq.Decode([]string{"un", "##aff", "##able"})
	assert.Equal(t, "unaffable!", got)
}
