// Package admin serves the private operator API. It performs no owner
// resolution and must never be exposed on the public listener.
package admin

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/connector"
	"github.com/openpipe/connectorhub/internal/service"
	"github.com/openpipe/connectorhub/internal/view"
)

type adminRoutes struct {
	deps *service.Deps
}

type listConnectorsResponseJson struct {
	Connectors    []*connector.Connector `json:"connectors"`
	NextPageToken string                 `json:"next_page_token"`
	TotalSize     int64                  `json:"total_size"`
}

func (r *adminRoutes) writeError(gctx *gin.Context, err error) {
	api_common.AsHttpStatusError(err).WriteGinResponse(r.deps.Cfg, gctx)
}

func (r *adminRoutes) list(gctx *gin.Context) {
	var params struct {
		PageSize  int32  `form:"page_size"`
		PageToken string `form:"page_token"`
		View      string `form:"view"`
	}
	if err := gctx.ShouldBindQuery(&params); err != nil {
		r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build())
		return
	}

	result, err := r.deps.Connectors.ListConnectorsAdmin(gctx.Request.Context(), &connector.ListRequest{
		PageSize:  params.PageSize,
		PageToken: params.PageToken,
		View:      view.FromParam(params.View),
	})
	if err != nil {
		r.writeError(gctx, err)
		return
	}

	gctx.PureJSON(http.StatusOK, listConnectorsResponseJson{
		Connectors:    result.Connectors,
		NextPageToken: result.NextPageToken,
		TotalSize:     result.TotalSize,
	})
}

func (r *adminRoutes) get(gctx *gin.Context) {
	c, err := r.deps.Connectors.GetConnectorAdmin(gctx.Request.Context(), gctx.Param("id"), view.FromParam(gctx.Query("view")))
	if err != nil {
		r.writeError(gctx, err)
		return
	}

	gctx.PureJSON(http.StatusOK, c)
}

func (r *adminRoutes) lookUp(gctx *gin.Context) {
	uid, err := uuid.Parse(gctx.Param("id"))
	if err != nil {
		r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg("failed to parse uid as UUID").
			Build())
		return
	}

	c, lookUpErr := r.deps.Connectors.LookUpConnectorAdmin(gctx.Request.Context(), uid, view.FromParam(gctx.Query("view")))
	if lookUpErr != nil {
		r.writeError(gctx, lookUpErr)
		return
	}

	gctx.PureJSON(http.StatusOK, c)
}

func GetGinServer(deps *service.Deps) *gin.Engine {
	router := api_common.GinForService("admin", deps.Cfg.IsDebugMode())

	router.GET("/ping", func(gctx *gin.Context) {
		gctx.PureJSON(http.StatusOK, gin.H{
			"service": "admin",
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
			"service": "admin",
			"db":      dbOk,
			"ok":      dbOk,
		})
	})

	r := &adminRoutes{deps: deps}

	v1 := router.Group("/admin/v1alpha")
	v1.GET("/connectors", r.list)
	v1.GET("/connectors/:id", r.get)
	v1.GET("/connectors/:id/lookUp", r.lookUp)

	return router
}

func Serve(deps *service.Deps) error {
	router := GetGinServer(deps)
	address := fmt.Sprintf(":%d", deps.Cfg.GetRoot().AdminApi.Port)

	deps.Logger.Info("starting admin api", "address", address)
	return api_common.RunGin(router, address, deps.Logger)
}
