package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estatehub-backend/pkg/security"
)

func TestGenerateNumericCode(t *testing.T) {
	code, err := security.GenerateNumericCode(security.CodeLength)
	require.NoError(t, err)
	require.Len(t, code, 6)
	assert.Equal(t, "", strings.Trim(code, "0123456789"))

	_, err = security.GenerateNumericCode(0)
	assert.Error(t, err)
}

func TestCodeMatches(t *testing.T) {
	hash := security.HashCode("123456")
	assert.Len(t, hash, 64)
	assert.NotContains(t, hash, "123456")
	assert.True(t, security.CodeMatches(" 123456 ", hash))
	assert.False(t, security.CodeMatches("654321", hash))
	assert.False(t, security.CodeMatches("123456", ""))
}
