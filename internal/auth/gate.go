// Package auth resolves request credentials to an owner before any resource
// access happens. Tokens are verified upstream by the fronting gateway; this
// gate extracts the subject and resolves it against the owner table. When a
// signing key is configured the signature is checked as well.
package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/database"
)

// Gate is the interface for the authorization gate.
type Gate interface {
	// Resolve turns an Authorization header value into an owner. The error is
	// always an api_common.HttpStatusError ready to write to the response. An
	// unknown subject is rejected exactly like a missing resource so the public
	// surface does not reveal which principals exist.
	Resolve(ctx context.Context, authorizationHeader string) (*database.Owner, error)
}

type gate struct {
	cfg config.C
	db  database.DB
}

func NewGate(cfg config.C, db database.DB) Gate {
	return &gate{cfg: cfg, db: db}
}

func (g *gate) Resolve(ctx context.Context, authorizationHeader string) (*database.Owner, error) {
	rawToken, found := strings.CutPrefix(authorizationHeader, "Bearer ")
	if !found || rawToken == "" {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusUnauthorized().
			WithResponseMsg("missing bearer token").
			Build()
	}

	subject, err := g.subjectFromToken(rawToken)
	if err != nil {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusUnauthorized().
			WithResponseMsg("invalid bearer token").
			WithInternalErr(err).
			Build()
	}

	owner, err := g.db.GetOwnerBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api_common.NewHttpStatusErrorBuilder().
				WithStatusNotFound().
				WithResponseMsg("resource not found").
				Build()
		}

		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusInternalServerError().
			WithResponseMsg("failed to resolve owner").
			WithInternalErr(err).
			Build()
	}

	return owner, nil
}

func (g *gate) subjectFromToken(rawToken string) (string, error) {
	var claims jwt.RegisteredClaims

	signingKey := g.cfg.GetRoot().SystemAuth.JwtSigningKey
	if signingKey != "" {
		_, err := jwt.ParseWithClaims(rawToken, &claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(signingKey), nil
		})
		if err != nil {
			return "", errors.Wrap(err, "failed to verify token")
		}
	} else {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(rawToken, &claims); err != nil {
			return "", errors.Wrap(err, "failed to parse token")
		}
	}

	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}
