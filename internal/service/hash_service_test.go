package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_RoundTrip(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("Sh0pOwner!Secret")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v="), "expected argon2id encoding, got %q", hash)

	match, err := svc.Verify("Sh0pOwner!Secret", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = svc.Verify("Sh0pOwner!Secre", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestArgon2HashService_SaltsDiffer(t *testing.T) {
	svc := NewArgon2HashService()

	first, err := svc.Hash("repeat-me")
	require.NoError(t, err)
	second, err := svc.Hash("repeat-me")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both still verify despite different encodings.
	for _, h := range []string{first, second} {
		match, err := svc.Verify("repeat-me", h)
		require.NoError(t, err)
		assert.True(t, match)
	}
}

func TestArgon2HashService_MalformedHash(t *testing.T) {
	svc := NewArgon2HashService()

	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536",       // truncated
		"$bcrypt$v=19$m=65536,t=1,p=4", // wrong algorithm
	} {
		_, err := svc.Verify("anything", bad)
		assert.Error(t, err, "hash %q should be rejected", bad)
	}
}

func TestArgon2HashService_ParamsEncoded(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("x")
	require.NoError(t, err)
	assert.Contains(t, hash, "m=65536,t=1,p=4")
}

func TestArgon2HashService_EdgeLengths(t *testing.T) {
	svc := NewArgon2HashService()

	for _, pw := range []string{"", strings.Repeat("長", 500)} {
		hash, err := svc.Hash(pw)
		require.NoError(t, err)

		match, err := svc.Verify(pw, hash)
		require.NoError(t, err)
		assert.True(t, match)
	}
}
