package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashHex_DeterministicAndPartsSensitive(t *testing.T) {
	a := HashHex("a", "b")
	aAgain := HashHex("a", "b")
	b := HashHex("a", "c")

	assert.Equal(t, a, aAgain)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}
