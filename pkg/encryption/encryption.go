package encryption

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrMissingKey is returned when the encryption key or hashing secret is empty
var ErrMissingKey = errors.New("encryption key and hashing secret are required")

// Cipher encrypts PII fields and derives blind-index hashes for lookups
type Cipher struct {
	key           []byte
	hashingSecret []byte
}

// New builds a Cipher. Keys given as 64 hex chars are used as-is; anything else is
// stretched to 32 bytes with SHA-256.
func New(encryptionKey, hashingSecret string) (*Cipher, error) {
	if encryptionKey == "" || hashingSecret == "" {
		return nil, ErrMissingKey
	}
	return &Cipher{
		key:           deriveKey(encryptionKey),
		hashingSecret: deriveKey(hashingSecret),
	}, nil
}

func deriveKey(s string) []byte {
	if b, err := hex.DecodeString(s); err == nil && len(b) == chacha20poly1305.KeySize {
		return b
	}
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

// Encrypt seals plaintext with XChaCha20-Poly1305 as "nonce:ciphertext" in hex.
// Empty input is returned unchanged.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Values that are not in that format, or
// fail authentication, are returned unchanged so rows written before encryption stay readable.
func (c *Cipher) Decrypt(value string) string {
	nonceHex, sealedHex, ok := strings.Cut(value, ":")
	if !ok {
		return value
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return value
	}
	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return value
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return value
	}
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return value
	}
	return string(plain)
}

// Hash returns the deterministic HMAC-SHA256 blind index of value, hex encoded
func (c *Cipher) Hash(value string) string {
	if value == "" {
		return ""
	}
	return HMACHex(c.hashingSecret, value)
}

// HMACHex returns hex(HMAC-SHA256(key, message))
func HMACHex(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC compares signature against HMAC-SHA256(key, message) in constant time
func VerifyHMAC(key []byte, message, signature string) bool {
	expected, err := hex.DecodeString(HMACHex(key, message))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

// RandomHex returns n random bytes hex encoded
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the bcrypt hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
