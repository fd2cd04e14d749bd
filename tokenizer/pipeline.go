package tokenizer

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/tokenpipe/subword/normstring"
)

// AddedTokenRouter splits a NormalizedString around any registered special
// or user-defined literal tokens before the configured PreTokenizer sees
// the remainder.
type AddedTokenRouter interface {
	Split(ns *normstring.NormalizedString) ([]Fragment, error)
	Lookup(content string) (TaggedToken, bool)
}

// Fragment is one piece of a Router.Split result: either literal text to
// continue through the pipeline (Token == nil) or an already-resolved
// added token, tagged with whether it came from the special-token set
// (special_tokens_mask = 1) as opposed to a plain user-added token.
type Fragment struct {
	Text  *normstring.NormalizedString
	Token *TaggedToken
}

// Pipeline wires together one stage of each kind into the full
// route-added-tokens -> normalize -> pre-tokenize -> model -> assemble ->
// post-process -> truncate -> pad sequence. Added tokens are matched
// against the raw input text before any normalization; only the residual
// text between matches is normalized. A nil Normalizer, Router or
// PostProcess is skipped, and with a nil Decoder, Decode joins tokens with
// single spaces; PreTokenizer and Model are always called and must be set.
type Pipeline struct {
	Normalizer   Normalizer
	Router       AddedTokenRouter
	PreTokenizer PreTokenizer
	Model        Model
	PostProcess  PostProcessor
	Decoder      Decoder

	Truncation *TruncationParams
	Padding    *PaddingParams

	guard taskGuard
}

// SetTruncation installs (or clears, if params is nil) truncation
// parameters. Refused while encode tasks are in flight.
func (p *Pipeline) SetTruncation(params *TruncationParams) error {
	if err := p.guard.tryLock(); err != nil {
		return err
	}
	p.Truncation = params
	return nil
}

// SetPadding installs (or clears) padding parameters. Refused while
// encode tasks are in flight.
func (p *Pipeline) SetPadding(params *PaddingParams) error {
	if err := p.guard.tryLock(); err != nil {
		return err
	}
	p.Padding = params
	return nil
}

// EncodeInput is one unit of work for Encode/EncodeBatch: Second is read
// only when IsPair is set.
type EncodeInput struct {
	First  string
	Second string
	IsPair bool
}

// Encode runs the full pipeline over one input, producing a single
// Encoding (pair-assembled, post-processed, truncated, and padded
// according to p.Truncation/p.Padding).
func (p *Pipeline) Encode(input EncodeInput, addSpecialTokens bool) (*Encoding, error) {
	p.guard.enter()
	defer p.guard.leave()

	klog.V(4).InfoS("encode", "first_len", len(input.First), "is_pair", input.IsPair)

	first, err := p.encodeSequence(input.First)
	if err != nil {
		return nil, errors.Wrap(err, "encoding first sequence")
	}

	var second *Encoding
	if input.IsPair {
		second, err = p.encodeSequence(input.Second)
		if err != nil {
			return nil, errors.Wrap(err, "encoding second sequence")
		}
	}

	result, err := p.postProcess(first, second, addSpecialTokens)
	if err != nil {
		return nil, err
	}

	numAdded := 0
	if p.PostProcess != nil {
		numAdded = p.PostProcess.AddedTokens(input.IsPair)
	}
	if !addSpecialTokens {
		numAdded = 0
	}

	if p.Truncation != nil {
		truncFirst, truncSecond, err := Truncate(first, second, p.Truncation, numAdded)
		if err != nil {
			return nil, errors.Wrap(err, "truncating")
		}
		result, err = p.postProcess(truncFirst, truncSecond, addSpecialTokens)
		if err != nil {
			return nil, err
		}
	}

	if p.Padding != nil && p.Padding.Strategy == Fixed {
		result = p.Padding.Pad(result, p.Padding.targetLength(result.Len()))
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) postProcess(first, second *Encoding, addSpecialTokens bool) (*Encoding, error) {
	if p.PostProcess == nil {
		if second == nil {
			return first, nil
		}
		return first.Clone().Merge(second), nil
	}
	return p.PostProcess.Process(first, second, addSpecialTokens)
}

// EncodeBatch runs Encode over every input concurrently, preserving input
// order in the result slice. Each worker still goes through the shared
// taskGuard, so a concurrent SetTruncation/SetPadding call is correctly
// refused while the batch is outstanding.
func (p *Pipeline) EncodeBatch(inputs []EncodeInput, addSpecialTokens bool) ([]*Encoding, error) {
	results := make([]*Encoding, len(inputs))
	errs := make([]error, len(inputs))

	var pending int
	done := make(chan int, len(inputs))
	for i, in := range inputs {
		pending++
		go func(i int, in EncodeInput) {
			r, err := p.Encode(in, addSpecialTokens)
			results[i] = r
			errs[i] = err
			done <- i
		}(i, in)
	}
	for ; pending > 0; pending-- {
		<-done
	}

	if p.Padding != nil {
		results = p.Padding.PadBatch(results)
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Decode renders an id sequence back to text, optionally skipping tokens
// flagged as special during encoding.
func (p *Pipeline) Decode(ids []uint32, skipSpecialTokens bool) (string, error) {
	p.guard.enter()
	defer p.guard.leave()

	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		tok, ok := p.Model.IDToToken(id)
		if !ok {
			return "", errors.Errorf("decode: unknown token id %d", id)
		}
		if skipSpecialTokens && p.Router != nil {
			if tt, found := p.Router.Lookup(tok); found && tt.IsSpecial {
				continue
			}
		}
		tokens = append(tokens, tok)
	}
	if p.Decoder != nil {
		return p.Decoder.Decode(tokens), nil
	}
	out := ""
	for i, tok := range tokens {
		if i > 0 {
			out += " "
		}
		out += tok
	}
	return out, nil
}

// encodeSequence runs route -> normalize -> pre-tokenize -> model over one
// raw input string, producing a flat (not yet post-processed) Encoding.
func (p *Pipeline) encodeSequence(text string) (*Encoding, error) {
	ns := normstring.FromString(text)
	fragments, err := p.splitFragments(ns)
	if err != nil {
		return nil, err
	}

	var tagged []TaggedToken
	word := uint32(0)
	for _, frag := range fragments {
		if frag.Token != nil {
			tok := *frag.Token
			tok.Word = word
			if cr, err := frag.Text.OriginalCharRange(normstring.Range{Start: 0, End: frag.Text.Len()}); err == nil {
				tok.Offset = Offset{Begin: cr.Begin, End: cr.End}
			}
			tagged = append(tagged, tok)
			word++
			continue
		}

		normalized := frag.Text
		if p.Normalizer != nil {
			if err := p.Normalizer.Normalize(normalized); err != nil {
				return nil, errors.Wrap(err, "normalizing")
			}
		}

		pretoks, err := p.PreTokenizer.PreTokenize(normalized)
		if err != nil {
			return nil, errors.Wrap(err, "pre-tokenizing")
		}
		for _, pt := range pretoks {
			pt.Word += word
			modelTokens, err := p.Model.Tokenize(pt)
			if err != nil {
				return nil, errors.Wrap(err, "tokenizing fragment")
			}
			for _, mt := range modelTokens {
				tagged = append(tagged, TaggedToken{Token: mt})
			}
		}
		maxWord := word
		for _, pt := range pretoks {
			if pt.Word > maxWord {
				maxWord = pt.Word
			}
		}
		word = maxWord + 1
	}

	return NewEncoding(tagged, 0), nil
}

func (p *Pipeline) splitFragments(ns *normstring.NormalizedString) ([]Fragment, error) {
	if p.Router == nil {
		return []Fragment{{Text: ns}}, nil
	}
	return p.Router.Split(ns)
}
