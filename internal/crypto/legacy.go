package crypto

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
)

// ============================================================================
// Legacy password scheme (SQL Developer 4+)
// ============================================================================

// Key derivation constants
const (
	md5Rounds = 42
)

// legacySalt is appended to the machine identifier before hashing.
var legacySalt = []byte{0x05, 0x13, 0x99, 0x42, 0x93, 0x72, 0xe8, 0xad}

// DeriveKeyAndIV derives the DES key and CBC IV from a machine identifier.
// The identifier and salt are hashed with MD5, then the digest is re-hashed
// until 42 rounds have been applied. The first half of the final digest is the
// key, the second half the IV.
func DeriveKeyAndIV(machineID string) (key, iv []byte) {
	material := append([]byte(machineID), legacySalt...)
	digest := md5.Sum(material)
	for i := 1; i < md5Rounds; i++ {
		digest = md5.Sum(digest[:])
	}
	return digest[:des.BlockSize], digest[des.BlockSize:]
}

// Encrypt encrypts a plaintext password for the given machine identifier and
// returns it base64 encoded. An empty password encrypts to an empty string.
func Encrypt(plaintext, machineID string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	key, iv := DeriveKeyAndIV(machineID)
	block, err := des.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w: %w", errors.ErrCryption, err)
	}

	padded := pad([]byte(plaintext), block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. An empty ciphertext decrypts to an empty string.
func Decrypt(ciphertext, machineID string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed base64: %w", errors.ErrCryption, err)
	}
	if len(data) == 0 || len(data)%des.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d",
			errors.ErrCryption, len(data), des.BlockSize)
	}

	key, iv := DeriveKeyAndIV(machineID)
	block, err := des.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w: %w", errors.ErrCryption, err)
	}

	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, data)

	plain, err = unpad(plain, block.BlockSize())
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: decrypted password is not valid UTF-8 (wrong machine identifier?)", errors.ErrCryption)
	}

	return string(plain), nil
}

// pad applies PKCS#5 padding: always 1..blockSize bytes of value n.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: invalid padding byte %d (wrong machine identifier?)", errors.ErrCryption, n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: inconsistent padding (wrong machine identifier?)", errors.ErrCryption)
		}
	}
	return data[:len(data)-n], nil
}
