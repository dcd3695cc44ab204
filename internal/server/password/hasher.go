// Package password derives and verifies salted PBKDF2-SHA512 password
// hashes. Records hold a base64 salt and a hex digest; the plaintext is
// never stored.
package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 round count.
	Iterations = 1000
	// KeyLength is the digest length in bytes (hex doubles it).
	KeyLength = 64
	// SaltBytes is the amount of randomness drawn per record.
	SaltBytes = 128
)

// randReader is a test seam for crypto/rand.
var randReader io.Reader = rand.Reader

// Derive draws a fresh salt and returns it together with the digest of
// password under that salt.
//
// The salt's base64 text, not the raw random bytes, is the PBKDF2 salt
// input. Stored records depend on this.
func Derive(password string) (salt, hash string, err error) {
	raw := make([]byte, SaltBytes)
	if _, err := io.ReadFull(randReader, raw); err != nil {
		return "", "", err
	}
	salt = base64.StdEncoding.EncodeToString(raw)
	return salt, Digest(password, salt), nil
}

// Digest is the deterministic transform: identical (password, salt) pairs
// always produce the same hex string.
func Digest(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), Iterations, KeyLength, sha512.New)
	return hex.EncodeToString(key)
}

// Verify re-derives the digest of attempt under salt and compares it with
// storedHash in constant time.
func Verify(attempt, salt, storedHash string) bool {
	candidate := Digest(attempt, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}
