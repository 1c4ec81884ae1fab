package pagination

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/util"
)

// MakeCursor constructs a cursor string from the JSON encoding of the passed value. The cursor string is
// encrypted and base64 encoded so that it cannot be manipulated in the client.
func MakeCursor(ctx context.Context, secretKey config.KeyDataType, c interface{}) (string, error) {
	keyData, err := secretKey.GetData(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get secret key data to seal cursor")
	}
	return util.SecureEncryptedJsonValue(keyData, c)
}

// ParseCursor parses a cursor from the passed value. The passed value should be generated from MakeCursor.
func ParseCursor[C any](ctx context.Context, secretKey config.KeyDataType, c string) (*C, error) {
	keyData, err := secretKey.GetData(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get secret key data to open cursor")
	}
	return util.SecureDecryptedJsonValue[C](keyData, c)
}
