// Package spmodel reads the piece/score table out of a serialized
// SentencePiece ModelProto without depending on the generated protobuf
// Go bindings for that schema — it walks the wire format directly with
// protowire, since only two of the proto's many fields are needed here.
package spmodel

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Piece is one entry of ModelProto.pieces.
type Piece struct {
	Text  string
	Score float32
}

const (
	fieldPieces     = 1 // ModelProto.pieces, repeated SentencePiece
	fieldPieceText  = 1 // SentencePiece.piece
	fieldPieceScore = 2 // SentencePiece.score
)

// Parse extracts the (piece, score) table from a serialized ModelProto.
func Parse(data []byte) ([]Piece, error) {
	var pieces []Piece
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "spmodel: reading top-level tag")
		}
		data = data[n:]

		if num == fieldPieces && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, errors.Wrap(protowire.ParseError(n), "spmodel: reading pieces entry")
			}
			data = data[n:]
			p, err := parsePiece(v)
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, p)
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "spmodel: skipping unrecognized field")
		}
		data = data[n:]
	}
	return pieces, nil
}

func parsePiece(data []byte) (Piece, error) {
	var p Piece
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return p, errors.Wrap(protowire.ParseError(n), "spmodel: reading piece tag")
		}
		data = data[n:]

		switch {
		case num == fieldPieceText && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return p, errors.Wrap(protowire.ParseError(n), "spmodel: reading piece text")
			}
			p.Text = v
			data = data[n:]
		case num == fieldPieceScore && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return p, errors.Wrap(protowire.ParseError(n), "spmodel: reading piece score")
			}
			p.Score = math.Float32frombits(v)
			data = data[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return p, errors.Wrap(protowire.ParseError(n), "spmodel: skipping unrecognized piece field")
			}
			data = data[n:]
		}
	}
	return p, nil
}
