package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenEquals(t *testing.T) {
	assert.True(t, TokenEquals("secret", "secret"))
	assert.False(t, TokenEquals("secret", "Secret"))
	assert.False(t, TokenEquals("", "secret"))
	assert.False(t, TokenEquals("secret-but-longer", "secret"))
}
