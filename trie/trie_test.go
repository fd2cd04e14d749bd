package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommonPrefixSearch(t *testing.T) {
	tr := New()
	tr.Insert("a", 0)
	tr.Insert("ab", 1)
	tr.Insert("abc", 2)
	tr.Insert("abcd", 3)
	tr.Insert("b", 4)

	matches := tr.CommonPrefixSearch([]rune("abcde"))
	require := []Match{
		{Length: 1, ID: 0},
		{Length: 2, ID: 1},
		{Length: 3, ID: 2},
		{Length: 4, ID: 3},
	}
	assert.Equal(t, require, matches)
}

func TestCommonPrefixSearchNoMatch(t *testing.T) {
	tr := New()
	tr.Insert("xyz", 0)
	matches := tr.CommonPrefixSearch([]rune("abc"))
	assert.Empty(t, matches)
}

func TestCommonPrefixSearchUnicode(t *testing.T) {
	tr := New()
	tr.Insert("東", 0)
	tr.Insert("東京", 1)
	matches := tr.CommonPrefixSearch([]rune("東京都"))
	assert.Equal(t, []Match{{Length: 1, ID: 0}, {Length: 2, ID: 1}}, matches)
}
