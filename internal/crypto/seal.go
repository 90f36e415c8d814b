package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// ============================================================================
// Sealed export bundles
// ============================================================================

// Sealing constants
const (
	SaltSize  = 16 // 128 bits
	NonceSize = 12 // 96 bits (standard GCM nonce size)
	tagSize   = 16

	// Argon2id parameters (per RFC 9106 recommendations)
	Argon2Time      = 1         // 1 iteration
	Argon2Memory    = 64 * 1024 // 64 MB
	Argon2Threads   = 4         // 4 parallel threads
	Argon2KeyLength = 32        // 32 bytes for AES-256
)

// Seal encrypts an export bundle with a passphrase-derived key (Argon2id + AES-256-GCM).
// Returns binary format: [16B salt][12B nonce][N bytes ciphertext + 16B auth tag]
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, SaltSize+NonceSize+len(ciphertext))
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)

	return result, nil
}

// Open decrypts a bundle produced by Seal.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	minSize := SaltSize + NonceSize + tagSize
	if len(sealed) < minSize {
		return nil, fmt.Errorf("sealed data too short: got %d bytes, need at least %d", len(sealed), minSize)
	}
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	salt := sealed[:SaltSize]
	nonce := sealed[SaltSize : SaltSize+NonceSize]
	ciphertext := sealed[SaltSize+NonceSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong passphrase or tampered data): %w", err)
	}

	return plaintext, nil
}

// DeriveKey derives a sealing key from passphrase and salt using Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(passphrase),
		salt,
		Argon2Time,
		Argon2Memory,
		Argon2Threads,
		Argon2KeyLength,
	)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
