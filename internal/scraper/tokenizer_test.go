package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	raw := "#\n1\nv2\nCAT\n/\nWBNB\n$\n0.0123\n17h"
	parts, err := Tokenize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"#", "1", "v2", "CAT", "/", "WBNB", "$", "0.0123", "17h"}, parts)
}

func TestTokenize_PipeSeparatorAndWhitespace(t *testing.T) {
	raw := "# | 1 |v2\n CAT \n\n/\nWBNB|$|0.0123\n17h"
	parts, err := Tokenize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"#", "1", "v2", "CAT", "/", "WBNB", "$", "0.0123", "17h"}, parts)
}

func TestTokenize_TooFewFields(t *testing.T) {
	_, err := Tokenize("#\n1\nCAT")
	assert.ErrorIs(t, err, ErrTooFewFields)

	_, err = Tokenize("")
	assert.ErrorIs(t, err, ErrTooFewFields)

	// 空白片段不计数
	_, err = Tokenize("a\n \nb\n\t\nc\n\nd| |e")
	assert.ErrorIs(t, err, ErrTooFewFields)
}
