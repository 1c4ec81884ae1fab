// Package definition holds the immutable catalog of connector definitions.
// The catalog is seeded from documents embedded at build time; definitions
// have no write path.
package definition

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/view"
)

const (
	sourceCollection      = "source-connector-definitions"
	destinationCollection = "destination-connector-definitions"
)

// Definition describes one kind of connector the service can manage. The spec
// field is a JSON schema that connector configurations must satisfy.
type Definition struct {
	UID              uuid.UUID              `json:"uid"`
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	DocumentationURL string                 `json:"documentation_url"`
	ConnectorType    database.ConnectorType `json:"connector_type"`
	Public           bool                   `json:"public"`
	Tombstone        bool                   `json:"tombstone"`
	Spec             json.RawMessage        `json:"spec,omitempty"`
}

// Name returns the full resource name, e.g. "destination-connector-definitions/destination-csv".
func (d *Definition) Name() string {
	return fmt.Sprintf("%s/%s", collectionFor(d.ConnectorType), d.ID)
}

// MarshalJSON includes the derived resource name alongside the stored fields.
func (d *Definition) MarshalJSON() ([]byte, error) {
	type plain Definition
	return json.Marshal(struct {
		Name string `json:"name"`
		*plain
	}{
		Name:  d.Name(),
		plain: (*plain)(d),
	})
}

func collectionFor(ct database.ConnectorType) string {
	if ct == database.ConnectorTypeSource {
		return sourceCollection
	}
	return destinationCollection
}

// ParseName splits a definition resource name into its connector type and id.
func ParseName(name string) (database.ConnectorType, string, error) {
	collection, id, found := strings.Cut(name, "/")
	if !found || id == "" || strings.Contains(id, "/") {
		return "", "", fmt.Errorf("invalid definition name %q", name)
	}

	switch collection {
	case sourceCollection:
		return database.ConnectorTypeSource, id, nil
	case destinationCollection:
		return database.ConnectorTypeDestination, id, nil
	default:
		return "", "", fmt.Errorf("invalid definition collection %q", collection)
	}
}

// ProjectView returns a copy of the definition shaped for the requested view.
// The basic view omits the spec document.
func ProjectView(d *Definition, v view.View) *Definition {
	if d == nil {
		return nil
	}

	out := *d
	if !v.IsFull() {
		out.Spec = nil
	}
	return &out
}
