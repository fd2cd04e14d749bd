// Package postprocessors implements the final assembly stage: splicing
// special tokens around the encoded sequence(s) and assigning type ids,
// following a template the way HuggingFace's TemplateProcessing does. The
// template is parsed into a small instruction list and actually executed
// here, unlike a parse-only configuration struct.
package postprocessors

import (
	"github.com/pkg/errors"

	"github.com/tokenpipe/subword/tokenizer"
)

// TemplateItem is one instruction of a template: either "splice in
// sequence N with this type id" or "splice in this named special token
// with this type id".
type TemplateItem struct {
	IsSpecialToken   bool
	SequenceIndex    int // 0 for $A, 1 for $B; meaningless if IsSpecialToken
	SpecialTokenName string
	TypeID           uint32
}

// SpecialTokenSpec is one entry of the special_tokens table a template
// references by name.
type SpecialTokenSpec struct {
	ID    uint32
	Token string
}

// TemplateProcessing assembles single- and pair-sequence encodings by
// executing Single/Pair against already-tokenized input.
type TemplateProcessing struct {
	Single        []TemplateItem
	Pair          []TemplateItem
	SpecialTokens map[string]SpecialTokenSpec
}

func retype(e *tokenizer.Encoding, typeID uint32) *tokenizer.Encoding {
	c := e.Clone()
	for i := range c.TypeIDs {
		c.TypeIDs[i] = typeID
	}
	return c
}

func appendEncoding(acc, next *tokenizer.Encoding) *tokenizer.Encoding {
	if acc == nil {
		return next
	}
	return acc.Merge(next)
}

// Process implements tokenizer.PostProcessor.
func (t TemplateProcessing) Process(first, second *tokenizer.Encoding, addSpecialTokens bool) (*tokenizer.Encoding, error) {
	template := t.Single
	if second != nil {
		template = t.Pair
	}

	var result *tokenizer.Encoding
	for _, item := range template {
		if item.IsSpecialToken {
			if !addSpecialTokens {
				continue
			}
			spec, ok := t.SpecialTokens[item.SpecialTokenName]
			if !ok {
				return nil, errors.Errorf("postprocessors: unknown special token %q", item.SpecialTokenName)
			}
			tok := tokenizer.TaggedToken{
				Token:     tokenizer.Token{ID: spec.ID, Value: spec.Token},
				IsSpecial: true,
			}
			result = appendEncoding(result, tokenizer.NewEncoding([]tokenizer.TaggedToken{tok}, item.TypeID))
			continue
		}

		var seq *tokenizer.Encoding
		switch item.SequenceIndex {
		case 0:
			seq = first
		case 1:
			seq = second
		}
		if seq == nil {
			continue
		}
		result = appendEncoding(result, retype(seq, item.TypeID))
	}
	if result == nil {
		result = &tokenizer.Encoding{}
	}
	return result, nil
}

// AddedTokens implements tokenizer.PostProcessor.
func (t TemplateProcessing) AddedTokens(isPair bool) int {
	template := t.Single
	if isPair {
		template = t.Pair
	}
	n := 0
	for _, item := range template {
		if item.IsSpecialToken {
			n++
		}
	}
	return n
}
