package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/database"
)

const ginContextOwnerKey = "connectorhub.owner"

// Middleware rejects requests whose credentials do not resolve to an owner and
// injects the owner into the gin context for handlers.
func Middleware(cfg config.C, gate Gate) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		owner, err := gate.Resolve(gctx.Request.Context(), gctx.GetHeader("Authorization"))
		if err != nil {
			api_common.AsHttpStatusError(err).WriteGinResponse(cfg, gctx)
			gctx.Abort()
			return
		}

		gctx.Set(ginContextOwnerKey, owner)
		gctx.Next()
	}
}

// MustGetOwner returns the owner resolved by the middleware. Panics if the
// route was not registered behind Middleware.
func MustGetOwner(gctx *gin.Context) *database.Owner {
	v, exists := gctx.Get(ginContextOwnerKey)
	if !exists {
		panic("owner not present in context; route is missing auth middleware")
	}
	return v.(*database.Owner)
}
