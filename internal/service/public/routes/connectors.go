package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/auth"
	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/connector"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/definition"
	"github.com/openpipe/connectorhub/internal/view"
)

type listRequestQueryParams struct {
	PageSize  int32  `form:"page_size"`
	PageToken string `form:"page_token"`
	View      string `form:"view"`
	Filter    string `form:"filter"`
}

type listConnectorsResponseJson struct {
	Connectors    []*connector.Connector `json:"connectors"`
	NextPageToken string                 `json:"next_page_token"`
	TotalSize     int64                  `json:"total_size"`
}

type renameRequestJson struct {
	NewConnectorID string `json:"new_connector_id"`
}

type testResponseJson struct {
	State database.ConnectorState `json:"state"`
}

// ConnectorsRoutes serves one connector namespace (source or destination) plus
// the unified listing.
type ConnectorsRoutes struct {
	cfg        config.C
	connectors connector.C
	gate       auth.Gate
}

func NewConnectorsRoutes(cfg config.C, connectors connector.C, gate auth.Gate) *ConnectorsRoutes {
	return &ConnectorsRoutes{
		cfg:        cfg,
		connectors: connectors,
		gate:       gate,
	}
}

func (r *ConnectorsRoutes) writeError(gctx *gin.Context, err error) {
	api_common.AsHttpStatusError(err).WriteGinResponse(r.cfg, gctx)
}

// parseConnectorTypeFilter handles filter=connector_type=CONNECTOR_TYPE_... on
// the unified listing.
func parseConnectorTypeFilter(filter string) (*database.ConnectorType, error) {
	if filter == "" {
		return nil, nil
	}

	key, value, found := strings.Cut(filter, "=")
	if !found || key != "connector_type" {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsgf("unsupported filter %q", filter).
			Build()
	}

	ct := database.ConnectorType(value)
	if !database.IsValidConnectorType(ct) {
		return nil, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsgf("invalid connector type %q", value).
			Build()
	}

	return &ct, nil
}

func (r *ConnectorsRoutes) create(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req connector.CreateRequest
		if err := gctx.ShouldBindJSON(&req); err != nil {
			r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
				WithStatusBadRequest().
				WithResponseMsg(err.Error()).
				Build())
			return
		}

		c, err := r.connectors.CreateConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), ct, &req)
		if err != nil {
			r.writeError(gctx, err)
			return
		}

		gctx.PureJSON(http.StatusCreated, c)
	}
}

// createUnified derives the connector namespace from the definition name so
// the unified surface can create either kind.
func (r *ConnectorsRoutes) createUnified(gctx *gin.Context) {
	var req connector.CreateRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build())
		return
	}

	ct, _, err := definition.ParseName(req.ConnectorDefinitionName)
	if err != nil {
		r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build())
		return
	}

	c, createErr := r.connectors.CreateConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), ct, &req)
	if createErr != nil {
		r.writeError(gctx, createErr)
		return
	}

	gctx.PureJSON(http.StatusCreated, c)
}

func (r *ConnectorsRoutes) list(ct *database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var params listRequestQueryParams
		if err := gctx.ShouldBindQuery(&params); err != nil {
			r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
				WithStatusBadRequest().
				WithResponseMsg(err.Error()).
				Build())
			return
		}

		req := &connector.ListRequest{
			PageSize:      params.PageSize,
			PageToken:     params.PageToken,
			View:          view.FromParam(params.View),
			ConnectorType: ct,
		}

		// The unified listing accepts a connector type filter
		if ct == nil {
			filterType, err := parseConnectorTypeFilter(params.Filter)
			if err != nil {
				r.writeError(gctx, err)
				return
			}
			req.ConnectorType = filterType
		}

		result, err := r.connectors.ListConnectors(gctx.Request.Context(), auth.MustGetOwner(gctx), req)
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
}

func (r *ConnectorsRoutes) get(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		c, err := r.connectors.GetConnector(
			gctx.Request.Context(),
			auth.MustGetOwner(gctx),
			ct,
			gctx.Param("id"),
			view.FromParam(gctx.Query("view")),
		)
		if err != nil {
			r.writeError(gctx, err)
			return
		}

		gctx.PureJSON(http.StatusOK, c)
	}
}

func (r *ConnectorsRoutes) lookUp(gctx *gin.Context) {
	uid, err := uuid.Parse(gctx.Param("id"))
	if err != nil {
		r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg("failed to parse uid as UUID").
			Build())
		return
	}

	c, lookUpErr := r.connectors.LookUpConnector(
		gctx.Request.Context(),
		auth.MustGetOwner(gctx),
		uid,
		view.FromParam(gctx.Query("view")),
	)
	if lookUpErr != nil {
		r.writeError(gctx, lookUpErr)
		return
	}

	gctx.PureJSON(http.StatusOK, c)
}

func (r *ConnectorsRoutes) update(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req connector.UpdateRequest
		if err := gctx.ShouldBindJSON(&req); err != nil {
			r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
				WithStatusBadRequest().
				WithResponseMsg(err.Error()).
				Build())
			return
		}

		c, err := r.connectors.UpdateConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), ct, gctx.Param("id"), &req)
		if err != nil {
			r.writeError(gctx, err)
			return
		}

		gctx.PureJSON(http.StatusOK, c)
	}
}

func (r *ConnectorsRoutes) rename(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var req renameRequestJson
		if err := gctx.ShouldBindJSON(&req); err != nil {
			r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
				WithStatusBadRequest().
				WithResponseMsg(err.Error()).
				Build())
			return
		}

		c, err := r.connectors.RenameConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), ct, gctx.Param("id"), req.NewConnectorID)
		if err != nil {
			r.writeError(gctx, err)
			return
		}

		gctx.PureJSON(http.StatusOK, c)
	}
}

func (r *ConnectorsRoutes) delete(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if err := r.connectors.DeleteConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), ct, gctx.Param("id")); err != nil {
			r.writeError(gctx, err)
			return
		}

		gctx.Status(http.StatusNoContent)
	}
}

func (r *ConnectorsRoutes) connect(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		c, err := r.connectors.ConnectConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), ct, gctx.Param("id"))
		if err != nil {
			r.writeError(gctx, err)
			return
		}

		gctx.PureJSON(http.StatusOK, c)
	}
}

func (r *ConnectorsRoutes) disconnect(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		c, err := r.connectors.DisconnectConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), ct, gctx.Param("id"))
		if err != nil {
			r.writeError(gctx, err)
			return
		}

		gctx.PureJSON(http.StatusOK, c)
	}
}

func (r *ConnectorsRoutes) test(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		state, err := r.connectors.TestConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), ct, gctx.Param("id"))
		if err != nil {
			r.writeError(gctx, err)
			return
		}

		gctx.PureJSON(http.StatusOK, testResponseJson{State: state})
	}
}

func (r *ConnectorsRoutes) write(gctx *gin.Context) {
	var req connector.WriteRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
			WithStatusBadRequest().
			WithResponseMsg(err.Error()).
			Build())
		return
	}

	result, err := r.connectors.WriteDestinationConnector(gctx.Request.Context(), auth.MustGetOwner(gctx), gctx.Param("id"), &req)
	if err != nil {
		r.writeError(gctx, err)
		return
	}

	gctx.PureJSON(http.StatusOK, result)
}

func (r *ConnectorsRoutes) registerNamespace(g gin.IRouter, collection string, ct database.ConnectorType) {
	required := auth.Middleware(r.cfg, r.gate)

	g.POST("/"+collection, required, r.create(ct))
	g.GET("/"+collection, required, r.list(&ct))
	g.GET("/"+collection+"/:id", required, r.get(ct))
	g.PATCH("/"+collection+"/:id", required, r.update(ct))
	g.DELETE("/"+collection+"/:id", required, r.delete(ct))
	g.POST("/"+collection+"/:id/rename", required, r.rename(ct))
	g.GET("/"+collection+"/:id/lookUp", required, r.lookUp)
	g.POST("/"+collection+"/:id/connect", required, r.connect(ct))
	g.POST("/"+collection+"/:id/disconnect", required, r.disconnect(ct))
	g.POST("/"+collection+"/:id/testConnection", required, r.test(ct))
}

func (r *ConnectorsRoutes) Register(g gin.IRouter) {
	required := auth.Middleware(r.cfg, r.gate)

	r.registerNamespace(g, "source-connectors", database.ConnectorTypeSource)
	r.registerNamespace(g, "destination-connectors", database.ConnectorTypeDestination)

	g.POST("/destination-connectors/:id/write", required, r.write)
	g.POST("/connectors", required, r.createUnified)
	g.GET("/connectors", required, r.list(nil))
}
