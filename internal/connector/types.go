// Package connector implements the connector lifecycle and the service layer
// behind the public and admin facades.
package connector

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openpipe/connectorhub/internal/database"
	"github.com/openpipe/connectorhub/internal/definition"
	"github.com/openpipe/connectorhub/internal/view"
)

const (
	sourceCollection      = "source-connectors"
	destinationCollection = "destination-connectors"
)

// Connector ids follow DNS label rules: lowercase alphanumerics and hyphens,
// starting with a letter, at most 63 characters.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,62}$`)

func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("id %q must match %s", id, idPattern.String())
	}
	return nil
}

func CollectionFor(ct database.ConnectorType) string {
	if ct == database.ConnectorTypeSource {
		return sourceCollection
	}
	return destinationCollection
}

// ParseName splits a connector resource name such as "destination-connectors/my-csv"
// into its connector type and id.
func ParseName(name string) (database.ConnectorType, string, error) {
	collection, id, found := strings.Cut(name, "/")
	if !found || id == "" || strings.Contains(id, "/") {
		return "", "", fmt.Errorf("invalid connector name %q", name)
	}

	switch collection {
	case sourceCollection:
		return database.ConnectorTypeSource, id, nil
	case destinationCollection:
		return database.ConnectorTypeDestination, id, nil
	default:
		return "", "", fmt.Errorf("invalid connector collection %q", collection)
	}
}

// Connector is the API representation of a stored connector.
type Connector struct {
	Name                    string                  `json:"name"`
	UID                     uuid.UUID               `json:"uid"`
	ID                      string                  `json:"id"`
	ConnectorDefinitionName string                  `json:"connector_definition_name"`
	ConnectorType           database.ConnectorType  `json:"connector_type"`
	Description             string                  `json:"description"`
	Configuration           json.RawMessage         `json:"configuration,omitempty"`
	State                   database.ConnectorState `json:"state"`
	Tombstone               bool                    `json:"tombstone"`
	Owner                   string                  `json:"owner,omitempty"`
	CreateTime              time.Time               `json:"create_time"`
	UpdateTime              time.Time               `json:"update_time"`
}

func wrap(c *database.Connector, def *definition.Definition) *Connector {
	definitionName := ""
	if def != nil {
		definitionName = def.Name()
	}

	return &Connector{
		Name:                    fmt.Sprintf("%s/%s", CollectionFor(c.ConnectorType), c.ID),
		UID:                     c.UID,
		ID:                      c.ID,
		ConnectorDefinitionName: definitionName,
		ConnectorType:           c.ConnectorType,
		Description:             c.Description,
		Configuration:           json.RawMessage(c.Configuration),
		State:                   c.State,
		Tombstone:               c.Tombstone,
		CreateTime:              c.CreatedAt,
		UpdateTime:              c.UpdatedAt,
	}
}

// ProjectView returns a copy of the connector shaped for the requested view.
// The basic view omits the configuration document.
func ProjectView(c *Connector, v view.View) *Connector {
	if c == nil {
		return nil
	}

	out := *c
	if !v.IsFull() {
		out.Configuration = nil
	}
	return &out
}
