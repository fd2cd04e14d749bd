package bytelevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenpipe/subword/normstring"
	"github.com/tokenpipe/subword/tokenizer"
)

func TestAlphabetHas256Runes(t *testing.T) {
	assert.Len(t, Alphabet(), 256)
}

func TestByteRuneRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		r := byteToRuneTable[b]
		got, ok := runeToByteTable[r]
		require.True(t, ok)
		assert.Equal(t, byte(b), got)
	}
}

func TestPreTokenizeSplitsWordsAndSpaces(t *testing.T) {
	p := New(false)
	ns := normstring.FromString("Hello world")
	toks, err := p.PreTokenize(ns)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, tokenizer.Offset{Begin: 0, End: 5}, toks[0].Offset)
	assert.Equal(t, tokenizer.Offset{Begin: 5, End: 11}, toks[1].Offset)
}

func TestPreTokenizeAddsPrefixSpace(t *testing.T) {
	p := New(true)
	ns := normstring.FromString("hi")
	toks, err := p.PreTokenize(ns)
	require.NoError(t, err)
	require.Len(t, toks, 1)
	// The leading space byte (0x20) maps to its own printable rune 'Ġ'.
	assert.Equal(t, byteToRuneTable[' '], []rune(toks[0].Text)[0])
}

func TestDecodeRoundTrip(t *testing.T) {
	p := New(false)
	ns := normstring.FromString("Hello world")
	toks, err := p.PreTokenize(ns)
	require.NoError(t, err)

	var pieces []string
	for _, tk := range toks {
		pieces = append(pieces, tk.Text)
	}
	d := Decoder{}
	assert.Equal(t, "Hello world", d.Decode(pieces))
}

// TestRepairOffsetsRewritesBackwardRun is the literal offset-repair
// fixture: a run of byte-level tokens that stepped back to (3,4),(4,5) a
// second time must collapse back to the single original character's own
// offset, (2,3), rather than merely clamping the first offending value
// forward and leaving the rest of the run's now-stale offsets in place.
func TestRepairOffsetsRewritesBackwardRun(t *testing.T) {
	in := []tokenizer.Offset{
		{Begin: 0, End: 1}, {Begin: 1, End: 2}, {Begin: 2, End: 3},
		{Begin: 3, End: 4}, {Begin: 4, End: 5},
		{Begin: 3, End: 4}, {Begin: 4, End: 5},
	}
	out := RepairOffsets(in)
	assert.Equal(t, []tokenizer.Offset{
		{Begin: 0, End: 1}, {Begin: 1, End: 2}, {Begin: 2, End: 3},
		{Begin: 2, End: 3}, {Begin: 2, End: 3},
		{Begin: 3, End: 4}, {Begin: 4, End: 5},
	}, out)
}

// TestRepairOffsetsNoOverlappingRunLeavesOffsetsAlone guards against the
// opposite mistake: an offset that merely touches (rather than steps
// backward from) its predecessor must not be rewritten.
func TestRepairOffsetsNoOverlappingRunLeavesOffsetsAlone(t *testing.T) {
	in := []tokenizer.Offset{{Begin: 0, End: 2}, {Begin: 1, End: 3}, {Begin: 5, End: 6}}
	out := RepairOffsets(in)
	assert.Equal(t, in, out)
}

// TestPreTokenizeGPT2Split is spec's literal GPT-2-style split: punctuation,
// contractions and multi-word runs each become their own fragment, with a
// leading space folded into the following word rather than left dangling.
func TestPreTokenizeGPT2Split(t *testing.T) {
	p := New(false)
	ns := normstring.FromString("Hello my friend, how is your day going?")
	toks, err := p.PreTokenize(ns)
	require.NoError(t, err)

	wantText := []string{"Hello", "Ġmy", "Ġfriend", ",", "Ġhow", "Ġis", "Ġyour", "Ġday", "Ġgoing", "?"}
	wantOffset := []tokenizer.Offset{
		{Begin: 0, End: 5}, {Begin: 5, End: 8}, {Begin: 8, End: 15}, {Begin: 15, End: 16},
		{Begin: 16, End: 20}, {Begin: 20, End: 23}, {Begin: 23, End: 28}, {Begin: 28, End: 32},
		{Begin: 32, End: 38}, {Begin: 38, End: 39},
	}
	require.Len(t, toks, len(wantText))
	for i, tok := range toks {
		assert.Equal(t, wantText[i], tok.Text, "token %d", i)
		assert.Equal(t, wantOffset[i], tok.Offset, "token %d", i)
	}
}

// TestPreTokenizeMultiByteCharacterSharesOneOffsetAcrossFragments covers a
// single 3-byte original character ("⭢") that is its own pre-tokenizer
// fragment: every byte-level rune it's remapped to must still report that
// one original character's offset, not the byte position.
func TestPreTokenizeMultiByteCharacterSharesOneOffsetAcrossFragments(t *testing.T) {
	p := New(false)
	ns := normstring.FromString("i⭢j")
	toks, err := p.PreTokenize(ns)
	require.NoError(t, err)

	require.Len(t, toks, 3)
	assert.Equal(t, "i", toks[0].Text)
	assert.Equal(t, tokenizer.Offset{Begin: 0, End: 1}, toks[0].Offset)
	assert.Equal(t, "âŃ¢", toks[1].Text)
	assert.Equal(t, tokenizer.Offset{Begin: 1, End: 2}, toks[1].Offset)
	assert.Equal(t, "j", toks[2].Text)
	assert.Equal(t, tokenizer.Offset{Begin: 2, End: 3}, toks[2].Offset)
}
