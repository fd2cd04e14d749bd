// Package lattice implements the DAG of candidate subword spans used by
// the Unigram segmenter: a set of scored spans over a rune sequence, plus
// a single-pass Viterbi best-path search.
package lattice

import "math"

// Node is one candidate span: characters [Begin, Begin+Length) with the
// given score and vocabulary id.
type Node struct {
	Begin  int
	Length int
	Score  float64
	ID     int
}

// End returns the exclusive end position of the node's span.
func (n Node) End() int { return n.Begin + n.Length }

// Lattice is a DAG of candidate spans over Chars. It always conceptually
// carries a BOS sentinel ending at position 0 and an EOS sentinel
// starting at len(Chars); both are exposed via BOS/EOS for inspection but
// never participate in the Viterbi recursion itself (the recursion's base
// case, best[0] = 0, already encodes the BOS sentinel's effect).
type Lattice struct {
	Chars []rune

	nodes []Node
	// beginIndex[i] holds indices into nodes of every span starting at i.
	beginIndex [][]int
	// endIndex[i] holds indices into nodes of every span ending at i.
	endIndex [][]int
}

// sentinelID marks the BOS/EOS sentinel nodes, which never correspond to
// a real vocabulary entry.
const sentinelID = -1

// From builds an empty Lattice (no candidate spans yet) over chars, with
// its BOS/EOS sentinels in place.
func From(chars []rune) *Lattice {
	n := len(chars)
	lt := &Lattice{
		Chars:      chars,
		beginIndex: make([][]int, n+1),
		endIndex:   make([][]int, n+1),
	}
	return lt
}

// Len returns the number of characters in the lattice's string.
func (lt *Lattice) Len() int { return len(lt.Chars) }

// BOS returns the BOS sentinel node: begins at -1, ends at 0.
func (lt *Lattice) BOS() Node { return Node{Begin: -1, Length: 1, ID: sentinelID} }

// EOS returns the EOS sentinel node: begins and ends at len(Chars).
func (lt *Lattice) EOS() Node { return Node{Begin: len(lt.Chars), Length: 0, ID: sentinelID} }

// Insert adds a candidate span (begin, begin+length) with the given score
// and vocabulary id. Requires 0 <= begin and begin+length <= Len().
func (lt *Lattice) Insert(begin, length int, score float64, id int) {
	idx := len(lt.nodes)
	lt.nodes = append(lt.nodes, Node{Begin: begin, Length: length, Score: score, ID: id})
	lt.beginIndex[begin] = append(lt.beginIndex[begin], idx)
	end := begin + length
	lt.endIndex[end] = append(lt.endIndex[end], idx)
}

// NodesEndingAt returns every candidate span ending at position i, in the
// order they were inserted.
func (lt *Lattice) NodesEndingAt(i int) []Node {
	idxs := lt.endIndex[i]
	out := make([]Node, len(idxs))
	for k, idx := range idxs {
		out[k] = lt.nodes[idx]
	}
	return out
}

// NodesStartingAt returns every candidate span starting at position i, in
// the order they were inserted.
func (lt *Lattice) NodesStartingAt(i int) []Node {
	idxs := lt.beginIndex[i]
	out := make([]Node, len(idxs))
	for k, idx := range idxs {
		out[k] = lt.nodes[idx]
	}
	return out
}

// Viterbi runs the single forward pass described by the spec: for each
// position i it computes best[i] = max over nodes ending at i of
// best[node.Begin] + node.Score, with best[0] = 0 (the BOS sentinel).
// Ties are broken in favor of the node inserted first at that ending
// position (the loop only overwrites the incumbent on a strictly better
// score). It returns the winning path as a sequence of Nodes in left to
// right order, or nil if the string is empty.
func (lt *Lattice) Viterbi() []Node {
	n := len(lt.Chars)
	if n == 0 {
		return nil
	}

	best := make([]float64, n+1)
	// backNode[i] is the winning node ending at i; backNode[0] is unused
	// (the BOS sentinel is the implicit winner at position 0).
	backNode := make([]Node, n+1)
	reached := make([]bool, n+1)
	best[0] = 0
	reached[0] = true

	for i := 1; i <= n; i++ {
		bestScore := math.Inf(-1)
		var bestN Node
		found := false
		for _, idx := range lt.endIndex[i] {
			nd := lt.nodes[idx]
			if !reached[nd.Begin] {
				continue
			}
			cand := best[nd.Begin] + nd.Score
			if cand > bestScore {
				bestScore = cand
				bestN = nd
				found = true
			}
		}
		if found {
			best[i] = bestScore
			backNode[i] = bestN
			reached[i] = true
		}
	}

	if !reached[n] {
		return nil
	}

	var path []Node
	pos := n
	for pos > 0 {
		nd := backNode[pos]
		path = append(path, nd)
		pos = nd.Begin
	}
	// Reverse into left-to-right order.
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// Tokens runs Viterbi and returns the winning path as substrings of Chars.
func (lt *Lattice) Tokens() []string {
	path := lt.Viterbi()
	out := make([]string, len(path))
	for i, nd := range path {
		out[i] = string(lt.Chars[nd.Begin:nd.End()])
	}
	return out
}
