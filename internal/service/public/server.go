// Package public serves the tenant-facing HTTP API.
package public

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/service"
	"github.com/openpipe/connectorhub/internal/service/public/routes"
)

func GetGinServer(deps *service.Deps) *gin.Engine {
	router := api_common.GinForService("public", deps.Cfg.IsDebugMode())

	router.GET("/ping", func(gctx *gin.Context) {
		gctx.PureJSON(http.StatusOK, gin.H{
			"service": "public",
			"message": "pong",
		})
	})

	router.GET("/healthz", func(gctx *gin.Context) {
		dbOk := deps.DB.Ping(gctx.Request.Context())
		status := http.StatusOK
		if !dbOk {
			status = http.StatusServiceUnavailable
		}

		gctx.PureJSON(status, gin.H{
			"service": "public",
			"db":      dbOk,
			"ok":      dbOk,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/v1alpha")
	routes.NewConnectorsRoutes(deps.Cfg, deps.Connectors, deps.Gate).Register(v1)
	routes.NewDefinitionsRoutes(deps.Cfg, deps.Definitions, deps.Gate).Register(v1)

	return router
}

func Serve(deps *service.Deps) error {
	router := GetGinServer(deps)
	address := fmt.Sprintf(":%d", deps.Cfg.GetRoot().PublicApi.Port)

	deps.Logger.Info("starting public api", "address", address)
	return api_common.RunGin(router, address, deps.Logger)
}
