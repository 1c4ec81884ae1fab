package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

func MustGenerateSecureRandomKey(size int) []byte {
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}

// SecureEncryptedJsonValue serializes an arbitrary structure to json, encrypts the data using a symmetric key,
// then returns a base64 encoded value. This can be used to send values to the client in a way that cannot be
// manipulated, but allows for easy structured data. The encoding is URL safe and unpadded so the value
// round trips through query parameters without escaping.
//
// The key argument should be the AES key, either 16, 24, or 32 bytes to select AES-128, AES-192, or AES-256.
func SecureEncryptedJsonValue(key []byte, val interface{}) (string, error) {
	jsonData, err := json.Marshal(val)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	// AES-GCM needs a unique nonce for every encryption
	nonce := make([]byte, 12) // 12 bytes is the recommended nonce size for GCM
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nil, nonce, jsonData, nil)

	return base64.RawURLEncoding.EncodeToString(append(nonce, ciphertext...)), nil
}

// SecureDecryptedJsonValue reverses SecureEncryptedJsonValue, returning the decoded structure. Any tampering
// with the encoded value fails GCM authentication and surfaces as an error.
func SecureDecryptedJsonValue[T any](key []byte, encoded string) (*T, error) {
	combined, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		// Values issued before the switch to URL-safe encoding
		combined, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "failed to base64 decode value")
		}
	}

	if len(combined) < 12 {
		return nil, errors.New("encoded value too short")
	}

	nonce, ciphertext := combined[:12], combined[12:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	jsonData, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt value")
	}

	var val T
	if err := json.Unmarshal(jsonData, &val); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal decrypted value")
	}

	return &val, nil
}
