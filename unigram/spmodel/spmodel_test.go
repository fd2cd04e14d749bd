package spmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// encodePiece hand-builds the wire bytes of one ModelProto.SentencePiece
// message (piece=1 string, score=2 fixed32), the same shape Parse expects.
func encodePiece(text string, score float32) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, fieldPieceText, protowire.BytesType)
	buf = protowire.AppendString(buf, text)
	buf = protowire.AppendTag(buf, fieldPieceScore, protowire.Fixed32Type)
	buf = protowire.AppendFixed32(buf, math.Float32bits(score))
	return buf
}

// encodeModel hand-builds a ModelProto with only the repeated `pieces`
// field (field 1) set, skipping every other ModelProto field this package
// never reads (trainer_spec, normalizer_spec, ...).
func encodeModel(pieces [][2]any) []byte {
	var buf []byte
	for _, p := range pieces {
		text := p[0].(string)
		score := p[1].(float32)
		buf = protowire.AppendTag(buf, fieldPieces, protowire.BytesType)
		buf = protowire.AppendBytes(buf, encodePiece(text, score))
	}
	return buf
}

func TestParse(t *testing.T) {
	data := encodeModel([][2]any{
		{"<unk>", float32(0)},
		{"<s>", float32(0)},
		{"</s>", float32(0)},
		{"▁the", float32(-1.5)},
		{"▁a", float32(-2.25)},
	})

	pieces, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, pieces, 5)
	require.Equal(t, "<unk>", pieces[0].Text)
	require.Equal(t, "▁the", pieces[3].Text)
	require.InDelta(t, -1.5, pieces[3].Score, 1e-6)
	require.InDelta(t, -2.25, pieces[4].Score, 1e-6)
}

func TestParseSkipsUnknownFields(t *testing.T) {
	var buf []byte
	// field 2 (trainer_spec), a nested message this package has no use for.
	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendBytes(buf, []byte{0x01, 0x02, 0x03})
	buf = protowire.AppendTag(buf, fieldPieces, protowire.BytesType)
	buf = protowire.AppendBytes(buf, encodePiece("x", 0.5))

	pieces, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, pieces, 1)
	require.Equal(t, "x", pieces[0].Text)
}

func TestParseEmpty(t *testing.T) {
	pieces, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, pieces)
}
