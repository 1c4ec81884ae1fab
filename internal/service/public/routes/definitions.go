package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/auth"
	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/definition"
	"github.com/openpipe/connectorhub/internal/util"
	"github.com/openpipe/connectorhub/internal/view"
)

type listDefinitionsResponseJson struct {
	Definitions   []*definition.Definition `json:"connector_definitions"`
	NextPageToken string                   `json:"next_page_token"`
	TotalSize     int64                    `json:"total_size"`
}

// DefinitionsRoutes serves the read-only definition catalog for both
// connector namespaces.
type DefinitionsRoutes struct {
	cfg  config.C
	defs definition.C
	gate auth.Gate
}

func NewDefinitionsRoutes(cfg config.C, defs definition.C, gate auth.Gate) *DefinitionsRoutes {
	return &DefinitionsRoutes{
		cfg:  cfg,
		defs: defs,
		gate: gate,
	}
}

func (r *DefinitionsRoutes) writeError(gctx *gin.Context, err error) {
	api_common.AsHttpStatusError(err).WriteGinResponse(r.cfg, gctx)
}

func (r *DefinitionsRoutes) list(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var params listRequestQueryParams
		if err := gctx.ShouldBindQuery(&params); err != nil {
			r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
				WithStatusBadRequest().
				WithResponseMsg(err.Error()).
				Build())
			return
		}

		ctx := gctx.Request.Context()

		var ex definition.ListDefinitionsExecutor
		if params.PageToken != "" {
			fromCursor, err := r.defs.ListDefinitionsFromCursor(ctx, params.PageToken)
			if err != nil {
				r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
					WithStatusBadRequest().
					WithResponseMsg("invalid page token").
					WithInternalErr(err).
					Build())
				return
			}
			ex = fromCursor
		} else {
			b := r.defs.ListDefinitionsBuilder().ForConnectorType(ct)
			if params.PageSize > 0 {
				b = b.Limit(params.PageSize)
			}
			ex = b
		}

		result := ex.FetchPage(ctx)
		if result.Error != nil {
			r.writeError(gctx, errors.Wrap(result.Error, "failed to list definitions"))
			return
		}

		v := view.FromParam(params.View)

		resp := listDefinitionsResponseJson{
			Definitions: util.Map(result.Results, func(d *definition.Definition) *definition.Definition {
				return definition.ProjectView(d, v)
			}),
			NextPageToken: result.Cursor,
		}
		if result.Total != nil {
			resp.TotalSize = *result.Total
		}

		gctx.PureJSON(http.StatusOK, resp)
	}
}

func (r *DefinitionsRoutes) get(ct database.ConnectorType) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		d, err := r.defs.GetByID(ct, gctx.Param("id"))
		if err != nil {
			if errors.Is(err, definition.ErrNotFound) {
				r.writeError(gctx, api_common.NewHttpStatusErrorBuilder().
					WithStatusNotFound().
					WithResponseMsg("resource not found").
					Build())
				return
			}
			r.writeError(gctx, err)
			return
		}

		gctx.PureJSON(http.StatusOK, definition.ProjectView(d, view.FromParam(gctx.Query("view"))))
	}
}

func (r *DefinitionsRoutes) Register(g gin.IRouter) {
	required := auth.Middleware(r.cfg, r.gate)

	g.GET("/source-connector-definitions", required, r.list(database.ConnectorTypeSource))
	g.GET("/source-connector-definitions/:id", required, r.get(database.ConnectorTypeSource))
	g.GET("/destination-connector-definitions", required, r.list(database.ConnectorTypeDestination))
	g.GET("/destination-connector-definitions/:id", required, r.get(database.ConnectorTypeDestination))
}
