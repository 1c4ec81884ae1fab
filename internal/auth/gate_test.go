package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/database"
)

func signedToken(t *testing.T, subject string, key string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestGateResolve(t *testing.T) {
	cfg, db := database.MustApplyBlankTestDbConfig(t, nil)
	ctx := context.Background()

	owner := &database.Owner{
		UID:     uuid.New(),
		Subject: "user-123",
		ID:      "users/user-123",
	}
	require.NoError(t, db.CreateOwner(ctx, owner))

	t.Run("unverified mode", func(t *testing.T) {
		g := NewGate(cfg, db)

		resolved, err := g.Resolve(ctx, "Bearer "+signedToken(t, "user-123", "whatever"))
		require.NoError(t, err)
		assert.Equal(t, owner.UID, resolved.UID)
	})

	t.Run("missing or malformed header", func(t *testing.T) {
		g := NewGate(cfg, db)

		for _, header := range []string{"", "Bearer ", "Basic dXNlcjpwYXNz", "token-without-scheme"} {
			_, err := g.Resolve(ctx, header)
			require.Error(t, err, header)
			assert.True(t, api_common.HttpStatusErrorIsStatusCode(err, http.StatusUnauthorized), header)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		g := NewGate(cfg, db)

		_, err := g.Resolve(ctx, "Bearer not.a.jwt")
		require.Error(t, err)
		assert.True(t, api_common.HttpStatusErrorIsStatusCode(err, http.StatusUnauthorized))
	})

	t.Run("no subject", func(t *testing.T) {
		g := NewGate(cfg, db)

		_, err := g.Resolve(ctx, "Bearer "+signedToken(t, "", "whatever"))
		require.Error(t, err)
		assert.True(t, api_common.HttpStatusErrorIsStatusCode(err, http.StatusUnauthorized))
	})

	t.Run("unknown subject rejected like a missing resource", func(t *testing.T) {
		g := NewGate(cfg, db)

		_, err := g.Resolve(ctx, "Bearer "+signedToken(t, "nobody", "whatever"))
		require.Error(t, err)
		assert.True(t, api_common.HttpStatusErrorIsStatusCode(err, http.StatusNotFound))

		var he *api_common.HttpStatusError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, "resource not found", he.ResponseMsgOrDefault())
	})

	t.Run("signature verified when key configured", func(t *testing.T) {
		cfg.GetRoot().SystemAuth.JwtSigningKey = "test-signing-key"
		t.Cleanup(func() { cfg.GetRoot().SystemAuth.JwtSigningKey = "" })

		g := NewGate(cfg, db)

		resolved, err := g.Resolve(ctx, "Bearer "+signedToken(t, "user-123", "test-signing-key"))
		require.NoError(t, err)
		assert.Equal(t, owner.UID, resolved.UID)

		_, err = g.Resolve(ctx, "Bearer "+signedToken(t, "user-123", "wrong-key"))
		require.Error(t, err)
		assert.True(t, api_common.HttpStatusErrorIsStatusCode(err, http.StatusUnauthorized))
	})
}
