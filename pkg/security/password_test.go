package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/security"
)

var cheap = config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", cheap)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"), hash)

	ok, err := security.VerifyPassword("very-secure-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("bogus-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = security.HashPassword("", cheap)
	assert.Error(t, err)
}

func TestVerifyPasswordStoredHashes(t *testing.T) {
	good, err := security.HashPassword("pw", cheap)
	require.NoError(t, err)

	cases := map[string]struct {
		stored  string
		wantErr bool
	}{
		"social login account": {stored: ""},
		"not a phc string":     {stored: "not-a-hash", wantErr: true},
		"bcrypt hash":          {stored: "$2a$10$abcdefghijklmnopqrstuv", wantErr: true},
		"unknown version":      {stored: strings.Replace(good, "v=19", "v=16", 1), wantErr: true},
		"truncated":            {stored: good[:strings.LastIndex(good, "$")], wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := security.VerifyPassword("pw", tc.stored)
			assert.False(t, ok)
			if tc.wantErr {
				assert.ErrorIs(t, err, security.ErrInvalidHash)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(12)
	require.NoError(t, err)
	assert.Len(t, pw, 12)
	assert.NotContainsf(t, pw, "0", "look-alike glyphs are excluded")

	_, err = security.GenerateTempPassword(0)
	assert.Error(t, err)
}
