package definition

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/openpipe/connectorhub/internal/config"
	"github.com/openpipe/connectorhub/internal/database"
)

//go:embed seed/*.json
var seedFS embed.FS

// ErrNotFound is returned when no definition matches the requested id, uid or name.
var ErrNotFound = errors.New("definition not found")

// C is the interface for the definition catalog.
type C interface {
	// GetByID returns the definition with the given id within the given connector type namespace.
	GetByID(ct database.ConnectorType, id string) (*Definition, error)

	// GetByUID returns the definition with the given uid. Tombstoned definitions resolve.
	GetByUID(uid uuid.UUID) (*Definition, error)

	// GetByName resolves a full resource name such as "source-connector-definitions/source-http".
	GetByName(name string) (*Definition, error)

	// ValidateConfiguration checks a connector configuration document against the
	// spec of the definition with the given uid.
	ValidateConfiguration(uid uuid.UUID, configuration json.RawMessage) error

	// ListDefinitionsBuilder returns a builder to list definitions matching certain criteria.
	ListDefinitionsBuilder() ListDefinitionsBuilder

	// ListDefinitionsFromCursor continues listing definitions from a cursor to support pagination.
	ListDefinitionsFromCursor(ctx context.Context, cursor string) (ListDefinitionsExecutor, error)
}

type registry struct {
	secretKey config.KeyDataType

	// ordered by id for stable listings
	ordered []*Definition
	byUID   map[uuid.UUID]*Definition
	schemas map[uuid.UUID]*jsonschema.Schema
}

// New loads the embedded catalog and compiles every definition spec. The secret
// key encrypts list cursors.
func New(secretKey config.KeyDataType) (C, error) {
	entries, err := seedFS.ReadDir("seed")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read definition seed")
	}

	r := &registry{
		secretKey: secretKey,
		byUID:     make(map[uuid.UUID]*Definition),
		schemas:   make(map[uuid.UUID]*jsonschema.Schema),
	}

	for _, entry := range entries {
		data, err := seedFS.ReadFile("seed/" + entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read definition seed %s", entry.Name())
		}

		var d Definition
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, errors.Wrapf(err, "failed to parse definition seed %s", entry.Name())
		}

		if d.UID == uuid.Nil || d.ID == "" || !database.IsValidConnectorType(d.ConnectorType) {
			return nil, fmt.Errorf("definition seed %s is incomplete", entry.Name())
		}

		if _, exists := r.byUID[d.UID]; exists {
			return nil, fmt.Errorf("duplicate definition uid %s", d.UID)
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(d.ID+".json", bytes.NewReader(d.Spec)); err != nil {
			return nil, errors.Wrapf(err, "invalid spec for definition %s", d.ID)
		}

		schema, err := compiler.Compile(d.ID + ".json")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to compile spec for definition %s", d.ID)
		}

		def := d
		r.ordered = append(r.ordered, &def)
		r.byUID[def.UID] = &def
		r.schemas[def.UID] = schema
	}

	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].ID < r.ordered[j].ID
	})

	return r, nil
}

func (r *registry) GetByID(ct database.ConnectorType, id string) (*Definition, error) {
	for _, d := range r.ordered {
		if d.ConnectorType == ct && d.ID == id {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

func (r *registry) GetByUID(uid uuid.UUID) (*Definition, error) {
	if d, ok := r.byUID[uid]; ok {
		return d, nil
	}
	return nil, ErrNotFound
}

func (r *registry) GetByName(name string) (*Definition, error) {
	ct, id, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ct, id)
}

func (r *registry) ValidateConfiguration(uid uuid.UUID, configuration json.RawMessage) error {
	schema, ok := r.schemas[uid]
	if !ok {
		return ErrNotFound
	}

	if len(configuration) == 0 {
		configuration = json.RawMessage(`{}`)
	}

	var doc interface{}
	if err := json.Unmarshal(configuration, &doc); err != nil {
		return errors.Wrap(err, "configuration is not valid JSON")
	}

	if err := schema.Validate(doc); err != nil {
		return errors.Wrap(err, "configuration does not match connector spec")
	}

	return nil
}
