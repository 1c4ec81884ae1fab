package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecureEncryptedJsonValue(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	key := MustGenerateSecureRandomKey(32)

	t.Run("round trip", func(t *testing.T) {
		encoded, err := SecureEncryptedJsonValue(key, payload{Name: "abc123", Count: 7})
		require.NoError(t, err)
		require.NotEmpty(t, encoded)

		decoded, err := SecureDecryptedJsonValue[payload](key, encoded)
		require.NoError(t, err)
		require.Equal(t, "abc123", decoded.Name)
		require.Equal(t, 7, decoded.Count)
	})

	t.Run("distinct ciphertext per call", func(t *testing.T) {
		e1, err := SecureEncryptedJsonValue(key, payload{Name: "x"})
		require.NoError(t, err)
		e2, err := SecureEncryptedJsonValue(key, payload{Name: "x"})
		require.NoError(t, err)
		require.NotEqual(t, e1, e2)
	})

	t.Run("encoding is query parameter safe", func(t *testing.T) {
		// Values travel as page_token query parameters, where + would decode
		// to a space and corrupt the token.
		for i := 0; i < 64; i++ {
			encoded, err := SecureEncryptedJsonValue(key, payload{Name: "x", Count: i})
			require.NoError(t, err)
			require.NotContainsf(t, encoded, "+", "encoded value %q is not URL safe", encoded)
			require.NotContainsf(t, encoded, "/", "encoded value %q is not URL safe", encoded)
			require.NotContainsf(t, encoded, "=", "encoded value %q is not URL safe", encoded)
		}
	})

	t.Run("standard base64 values still decode", func(t *testing.T) {
		encoded, err := SecureEncryptedJsonValue(key, payload{Name: "legacy", Count: 1})
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(encoded)
		require.NoError(t, err)

		decoded, err := SecureDecryptedJsonValue[payload](key, base64.StdEncoding.EncodeToString(raw))
		require.NoError(t, err)
		require.Equal(t, "legacy", decoded.Name)
	})

	t.Run("tampering fails", func(t *testing.T) {
		encoded, err := SecureEncryptedJsonValue(key, payload{Name: "x"})
		require.NoError(t, err)

		tampered := "A" + encoded[1:]
		_, err = SecureDecryptedJsonValue[payload](key, tampered)
		require.Error(t, err)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		encoded, err := SecureEncryptedJsonValue(key, payload{Name: "x"})
		require.NoError(t, err)

		_, err = SecureDecryptedJsonValue[payload](MustGenerateSecureRandomKey(32), encoded)
		require.Error(t, err)
	})

	t.Run("garbage input fails", func(t *testing.T) {
		_, err := SecureDecryptedJsonValue[payload](key, "not-base64!!!")
		require.Error(t, err)

		_, err = SecureDecryptedJsonValue[payload](key, "YWJj") // too short
		require.Error(t, err)
	})
}
