package encryption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := New("test-encryption-key", "test-hashing-secret")
	require.NoError(t, err)
	return c
}

func TestNew_MissingKey(t *testing.T) {
	_, err := New("", "secret")
	assert.ErrorIs(t, err, ErrMissingKey)
	_, err = New("key", "")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestDeriveKey(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)
	assert.Equal(t, byte(0xab), deriveKey(hexKey)[0])
	assert.Len(t, deriveKey("short"), 32)
	assert.Equal(t, deriveKey("short"), deriveKey("short"))
}

func TestEncryptDecrypt(t *testing.T) {
	c := newCipher(t)

	sealed, err := c.Encrypt("alice@example.com")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "alice")
	assert.Equal(t, "alice@example.com", c.Decrypt(sealed))

	again, err := c.Encrypt("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	empty, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecrypt_PassesThroughUnreadableValues(t *testing.T) {
	c := newCipher(t)
	other, err := New("another-key", "test-hashing-secret")
	require.NoError(t, err)

	sealed, err := other.Encrypt("0812345678")
	require.NoError(t, err)

	tests := []string{
		"plain@example.com",
		"zz:zz",
		"abcd:1234",
		sealed,
	}
	for _, in := range tests {
		assert.Equal(t, in, c.Decrypt(in))
	}
}

func TestHash_Deterministic(t *testing.T) {
	c := newCipher(t)
	assert.Equal(t, c.Hash("alice@example.com"), c.Hash("alice@example.com"))
	assert.NotEqual(t, c.Hash("alice@example.com"), c.Hash("bob@example.com"))
	assert.Len(t, c.Hash("x"), 64)
	assert.Empty(t, c.Hash(""))
}

func TestVerifyHMAC(t *testing.T) {
	key := []byte("company-api-secret")
	msg := "ext-1:acme:1700000000000"
	sig := HMACHex(key, msg)

	assert.True(t, VerifyHMAC(key, msg, sig))
	assert.True(t, VerifyHMAC(key, msg, strings.ToUpper(sig)))
	assert.False(t, VerifyHMAC(key, msg+"1", sig))
	assert.False(t, VerifyHMAC([]byte("wrong"), msg, sig))
	assert.False(t, VerifyHMAC(key, msg, "not-hex"))
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(32)
	require.NoError(t, err)
	b, err := RandomHex(32)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret!"))
}
