package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViterbiPicksHighestScore(t *testing.T) {
	// "abcd" with nodes: a(-0.3) b(-0.4) c(-0.5) d(-0.3) ab(0.0) cd(-0.1)
	// abc(-0.2) abcd(10.0) -> best path is the single "abcd" node.
	lt := From([]rune("abcd"))
	lt.Insert(0, 1, -0.3, 10)
	lt.Insert(1, 1, -0.4, 11)
	lt.Insert(2, 1, -0.5, 12)
	lt.Insert(3, 1, -0.3, 13)
	lt.Insert(0, 2, 0.0, 20)
	lt.Insert(2, 2, -0.1, 21)
	lt.Insert(0, 3, -0.2, 22)
	lt.Insert(0, 4, 10.0, 23)

	toks := lt.Tokens()
	assert.Equal(t, []string{"abcd"}, toks)
}

func TestViterbiTieBreakPrefersFirstInserted(t *testing.T) {
	lt := From([]rune("ab"))
	// Two different single-path decompositions with equal total score;
	// the one whose final node was inserted first at its ending position
	// wins.
	lt.Insert(0, 1, 0, 0) // "a"
	lt.Insert(1, 1, 0, 1) // "b" ending at 2, inserted first
	lt.Insert(0, 2, 0, 2) // "ab" ending at 2, inserted second, same score

	toks := lt.Tokens()
	assert.Equal(t, []string{"a", "b"}, toks)
}

func TestViterbiEmptyString(t *testing.T) {
	lt := From([]rune(""))
	assert.Empty(t, lt.Tokens())
}

func TestBOSEOSSentinels(t *testing.T) {
	lt := From([]rune("xy"))
	assert.Equal(t, Node{Begin: -1, Length: 1, ID: sentinelID}, lt.BOS())
	assert.Equal(t, Node{Begin: 2, Length: 0, ID: sentinelID}, lt.EOS())
}
