package qrtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.Sign(42, 7, TypeStudent, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := codec.Verify(raw, TypeStudent)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.SubjectID)
	assert.Equal(t, uint(7), claims.EventID)
	assert.Equal(t, TypeStudent, claims.Type)
	assert.NotEmpty(t, claims.Nonce)
}

func TestSignNonceMakesTokensUnique(t *testing.T) {
	codec := NewCodec("test-secret")

	a, err := codec.Sign(1, 1, TypeStall, time.Hour)
	require.NoError(t, err)
	b, err := codec.Sign(1, 1, TypeStall, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyExpired(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.Sign(42, 7, TypeStudent, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(raw, TypeStudent)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTypeMismatch(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.Sign(3, 7, TypeStall, time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(raw, TypeStudent)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestVerifyMalformed(t *testing.T) {
	codec := NewCodec("test-secret")

	_, err := codec.Verify("not-a-token", TypeStudent)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	// Signed with a different secret.
	other := NewCodec("other-secret")
	raw, err := other.Sign(1, 1, TypeStudent, time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(raw, TypeStudent)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTTLFor(t *testing.T) {
	assert.Equal(t, StudentTokenTTL, TTLFor(TypeStudent))
	assert.Equal(t, StallTokenTTL, TTLFor(TypeStall))
}
