package token

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// KeySize is the required encryption key length in bytes (AES-256).
const KeySize = 32

var (
	// ErrBadFormat reports a payload that is not "ivHex:cipherHex".
	ErrBadFormat = errors.New("token: malformed encrypted payload")
	// ErrBadCiphertext reports ciphertext that cannot be decrypted with the
	// configured key (wrong key, truncation, or corruption).
	ErrBadCiphertext = errors.New("token: undecryptable ciphertext")
)

// Encrypt seals plaintext with AES-256-CBC under a fresh random IV and
// returns "ivHex:cipherHex". The ciphertext carries no authentication tag;
// integrity is only detected, probabilistically, as a padding error on
// decryption.
func Encrypt(key, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("token: cipher init: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("token: iv: %w", err)
	}

	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Format problems yield ErrBadFormat; a wrong key
// or corrupted ciphertext yields ErrBadCiphertext. Both are distinct from
// "record absent", which is the caller's concern.
func Decrypt(key []byte, payload string) ([]byte, error) {
	ivHex, cipherHex, ok := strings.Cut(payload, ":")
	if !ok || ivHex == "" || cipherHex == "" {
		return nil, ErrBadFormat
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return nil, ErrBadFormat
	}
	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrBadFormat
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("token: cipher init: %w", err)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	unpadded, err := unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, ErrBadCiphertext
	}
	return unpadded, nil
}

// pad applies PKCS#7 padding.
func pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad strips PKCS#7 padding, rejecting anything inconsistent.
func unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errors.New("invalid length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
