package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenpipe/subword/normstring"
	"github.com/tokenpipe/subword/tokenizer"
)

func TestLowercasePreservesOffsets(t *testing.T) {
	ns := normstring.FromString("HELLO")
	require.NoError(t, Lowercase{}.Normalize(ns))
	assert.Equal(t, "hello", ns.Get())
	rng, err := ns.RangeOriginal(normstring.Range{Start: 1, End: 3})
	require.NoError(t, err)
	assert.Equal(t, normstring.Range{Start: 1, End: 3}, rng)
}

func TestStripAccents(t *testing.T) {
	ns := normstring.FromString("café")
	require.NoError(t, StripAccents{}.Normalize(ns))
	assert.Equal(t, "cafe", ns.Get())
}

func TestBertNormalizerHandlesChineseChars(t *testing.T) {
	ns := normstring.FromString("a中b")
	b := BertNormalizer{HandleChineseChars: true, CleanText: true}
	require.NoError(t, b.Normalize(ns))
	assert.Equal(t, "a 中 b", ns.Get())
}

func TestBertNormalizerLowercaseAndStripAccents(t *testing.T) {
	ns := normstring.FromString("CAFÉ")
	b := BertNormalizer{Lowercase: true, StripAccents: true, CleanText: true}
	require.NoError(t, b.Normalize(ns))
	assert.Equal(t, "cafe", ns.Get())
}

func TestSequenceChainsNormalizers(t *testing.T) {
	ns := normstring.FromString("CAFÉ")
	seq := Sequence{Normalizers: []tokenizer.Normalizer{StripAccents{}, Lowercase{}}}
	require.NoError(t, seq.Normalize(ns))
	assert.Equal(t, "cafe", ns.Get())
}

func TestNFCRoundTrip(t *testing.T) {
	ns := normstring.FromString("café")
	require.NoError(t, NFC.Normalize(ns))
	assert.Equal(t, "café", ns.Get())
}
