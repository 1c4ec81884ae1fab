package connector

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/openpipe/connectorhub/internal/api_common"
	"github.com/openpipe/connectorhub/internal/database"
)

func (s *service) listExecutor(ctx context.Context, owner *database.Owner, req *ListRequest) (database.ListConnectorsExecutor, error) {
	if req.PageToken != "" {
		// The cursor captures the filters from the original request; a token
		// that fails to open is a client error.
		ex, err := s.db.ListConnectorsFromCursor(ctx, req.PageToken)
		if err != nil {
			return nil, api_common.NewHttpStatusErrorBuilder().
				WithStatusBadRequest().
				WithResponseMsg("invalid page token").
				WithInternalErr(err).
				Build()
		}

		// A token is bound to the owner it was issued to. Rejecting with the
		// uniform not found keeps another tenant's token indistinguishable
		// from a missing resource.
		if owner != nil {
			scope := ex.OwnerScope()
			if scope == nil || *scope != owner.UID {
				return nil, notFoundError()
			}
		}

		return ex, nil
	}

	builder := s.db.ListConnectorsBuilder()
	if owner != nil {
		builder = builder.ForOwner(owner.UID)
	}
	if req.ConnectorType != nil {
		builder = builder.ForConnectorType(*req.ConnectorType)
	}
	if req.PageSize > 0 {
		builder = builder.Limit(req.PageSize)
	}

	return builder, nil
}

func (s *service) list(ctx context.Context, owner *database.Owner, req *ListRequest, includeOwner bool) (*ListResult, error) {
	ex, err := s.listExecutor(ctx, owner, req)
	if err != nil {
		return nil, err
	}

	page := ex.FetchPage(ctx)
	if page.Error != nil {
		return nil, errors.Wrap(page.Error, "failed to list connectors")
	}

	ownerIDs := map[uuid.UUID]string{}

	result := &ListResult{
		Connectors:    make([]*Connector, 0, len(page.Results)),
		NextPageToken: page.Cursor,
	}
	if page.Total != nil {
		result.TotalSize = *page.Total
	}

	for i := range page.Results {
		c := s.wrapProjected(&page.Results[i], req.View)

		if includeOwner {
			ownerID, ok := ownerIDs[page.Results[i].OwnerUID]
			if !ok {
				if o, err := s.db.GetOwnerByUID(ctx, page.Results[i].OwnerUID); err == nil {
					ownerID = o.ID
				}
				ownerIDs[page.Results[i].OwnerUID] = ownerID
			}
			c.Owner = ownerID
		}

		result.Connectors = append(result.Connectors, c)
	}

	return result, nil
}

func (s *service) ListConnectors(ctx context.Context, owner *database.Owner, req *ListRequest) (*ListResult, error) {
	return s.list(ctx, owner, req, false)
}
