package config

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/util"
)

// KeyDataType is key material that can be resolved to raw bytes.
type KeyDataType interface {
	GetData(ctx context.Context) ([]byte, error)
}

// KeyData is AES key material. When Base64Val is set the key is decoded from it; otherwise a random
// 32 byte key is generated once per process. Random keys mean cursors do not survive restarts, which
// is acceptable for single-node and test deployments.
type KeyData struct {
	Base64Val string `yaml:"base64" json:"base64"`

	mu     sync.Mutex
	random []byte
}

func (k *KeyData) GetData(ctx context.Context) ([]byte, error) {
	if k.Base64Val != "" {
		data, err := base64.StdEncoding.DecodeString(k.Base64Val)
		if err != nil {
			return nil, errors.Wrap(err, "failed to base64 decode key data")
		}

		switch len(data) {
		case 16, 24, 32:
			return data, nil
		default:
			return nil, errors.Errorf("key data must be 16, 24, or 32 bytes; got %d", len(data))
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.random == nil {
		k.random = util.MustGenerateSecureRandomKey(32)
	}

	return k.random, nil
}

var _ KeyDataType = (*KeyData)(nil)
