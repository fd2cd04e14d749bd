// Package addedtoken implements vocabulary-extension tokens (special tokens
// like [CLS] and [SEP], and user-added tokens) that are matched literally
// against the input before the normal Normalizer/PreTokenizer/Model chain
// ever sees it.
package addedtoken

import (
	"unicode"
	"unicode/utf8"

	"github.com/tokenpipe/subword/normstring"
	"github.com/tokenpipe/subword/trie"
)

// AddedToken is one entry in the vocabulary extension table.
type AddedToken struct {
	Content    string
	ID         uint32
	SingleWord bool
	LStrip     bool
	RStrip     bool
	Normalized bool
	Special    bool
}

// Fragment is one piece of a Split result: either a literal match of Token
// (Token != nil) or a residual span (Token == nil) that still needs to run
// through the Normalizer/PreTokenizer/Model chain.
type Fragment struct {
	Text  *normstring.NormalizedString
	Token *AddedToken
}

// Router matches added tokens against input text, longest match wins, ties
// broken in favor of whichever token was registered first.
type Router struct {
	order []AddedToken
	trie  *trie.Trie
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{trie: trie.New()}
}

// Add registers t. Tokens must be added before any Split call that should
// see them; Add is not safe to call concurrently with Split.
func (r *Router) Add(t AddedToken) {
	idx := len(r.order)
	_, seen := r.Lookup(t.Content)
	r.order = append(r.order, t)
	if !seen {
		r.trie.Insert(t.Content, idx)
	}
}

// Lookup returns the registered token with the given literal content, if
// any.
func (r *Router) Lookup(content string) (AddedToken, bool) {
	for _, t := range r.order {
		if t.Content == content {
			return t, true
		}
	}
	return AddedToken{}, false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Split partitions ns into a sequence of fragments alternating between
// plain-text residue and literal added-token matches. Matching scans
// left to right; at each position the longest matching token that
// satisfies its single_word constraint is chosen, then lstrip/rstrip
// extend the match over adjoining whitespace.
func (r *Router) Split(ns *normstring.NormalizedString) ([]Fragment, error) {
	text := ns.Get()
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	byteOffsets := make([]int, n+1)
	pos := 0
	for i, rr := range runes {
		byteOffsets[i] = pos
		pos += utf8.RuneLen(rr)
	}
	byteOffsets[n] = pos

	var frags []Fragment
	cursor := 0
	i := 0
	for i < n {
		matches := r.trie.CommonPrefixSearch(runes[i:])
		accepted := false
		for j := len(matches) - 1; j >= 0; j-- {
			m := matches[j]
			tok := &r.order[m.ID]
			start, end := i, i+m.Length
			if tok.SingleWord {
				if start > 0 && isWordRune(runes[start-1]) {
					continue
				}
				if end < n && isWordRune(runes[end]) {
					continue
				}
			}
			lstart := start
			if tok.LStrip {
				for lstart > 0 && unicode.IsSpace(runes[lstart-1]) {
					lstart--
				}
			}
			rend := end
			if tok.RStrip {
				for rend < n && unicode.IsSpace(runes[rend]) {
					rend++
				}
			}

			if lstart > cursor {
				frag, err := sliceFragment(ns, byteOffsets, cursor, lstart, nil)
				if err != nil {
					return nil, err
				}
				frags = append(frags, frag)
			}
			frag, err := sliceFragment(ns, byteOffsets, lstart, rend, tok)
			if err != nil {
				return nil, err
			}
			frags = append(frags, frag)

			cursor = rend
			i = rend
			accepted = true
			break
		}
		if !accepted {
			i++
		}
	}
	if cursor < n {
		frag, err := sliceFragment(ns, byteOffsets, cursor, n, nil)
		if err != nil {
			return nil, err
		}
		frags = append(frags, frag)
	}
	return frags, nil
}

func sliceFragment(ns *normstring.NormalizedString, byteOffsets []int, startRune, endRune int, tok *AddedToken) (Fragment, error) {
	sub, err := ns.Slice(normstring.Range{Start: byteOffsets[startRune], End: byteOffsets[endRune]})
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Text: sub, Token: tok}, nil
}
