// Package crypto provides AES-256-GCM encryption for protocol session
// credentials before they reach the database.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var gcmPrefix = []byte("aes-gcm:")

// Seal encrypts a credential blob using AES-256-GCM.
// Output is "aes-gcm:" + base64(nonce + ciphertext + tag).
// If key is empty, the blob is returned unchanged.
func Seal(blob []byte, key string) ([]byte, error) {
	if key == "" || len(blob) == 0 {
		return blob, nil
	}

	keyBytes, err := DeriveKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nonce, nonce, blob, nil)
	out := make([]byte, 0, len(gcmPrefix)+base64.StdEncoding.EncodedLen(len(ciphertext)))
	out = append(out, gcmPrefix...)
	enc := make([]byte, base64.StdEncoding.EncodedLen(len(ciphertext)))
	base64.StdEncoding.Encode(enc, ciphertext)
	return append(out, enc...), nil
}

// Open decrypts a blob produced by Seal.
// Blobs without the "aes-gcm:" prefix are returned as-is (backward
// compatibility with credentials stored before encryption was enabled).
// If key is empty, the blob is returned unchanged.
func Open(blob []byte, key string) ([]byte, error) {
	if key == "" || len(blob) == 0 {
		return blob, nil
	}

	if !IsSealed(blob) {
		return blob, nil
	}

	keyBytes, err := DeriveKey(key)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(string(blob[len(gcmPrefix):]))
	if err != nil {
		return blob, nil // not valid base64 → treat as plain blob
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return blob, nil // too short → treat as plain blob
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return nil, errors.New("decrypt failed: invalid key or corrupted data")
	}

	return plaintext, nil
}

// IsSealed returns true if the blob has the "aes-gcm:" prefix.
func IsSealed(blob []byte) bool {
	return bytes.HasPrefix(blob, gcmPrefix)
}

// DeriveKey converts the input string to a 32-byte AES key.
// Accepts: hex-encoded (64 chars), base64-encoded (44 chars), or raw 32 bytes.
func DeriveKey(input string) ([]byte, error) {
	// Hex-encoded: 64 hex chars = 32 bytes
	if len(input) == 64 {
		if b, err := hex.DecodeString(input); err == nil {
			return b, nil
		}
	}

	// Base64-encoded: 44 chars = 32 bytes
	if len(input) == 44 && strings.HasSuffix(input, "=") {
		if b, err := base64.StdEncoding.DecodeString(input); err == nil && len(b) == 32 {
			return b, nil
		}
	}

	// Raw 32 bytes
	if len(input) == 32 {
		return []byte(input), nil
	}

	return nil, errors.New("encryption key must be 32 bytes (hex-encoded 64 chars, base64 44 chars, or raw 32 bytes)")
}
