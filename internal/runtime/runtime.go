// Package runtime implements the per-definition connector runtimes. A runtime
// knows how to verify that a configured connector can reach its backing system
// and, for destinations, how to persist a batch of records.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Record is one flattened output row handed to a destination. Index correlates
// the row back to the submitted data-mapping index; Task names the model task
// kind that produced the payload.
type Record struct {
	Index   string
	Task    string
	Payload json.RawMessage
}

// Runtime verifies connectivity for a configured connector.
type Runtime interface {
	// Check verifies the configuration can reach its backing system. A failed
	// check is an expected outcome, not an infrastructure error.
	Check(ctx context.Context, configuration json.RawMessage) error
}

// Destination is a runtime that can also persist records.
type Destination interface {
	Runtime
	Write(ctx context.Context, configuration json.RawMessage, batch []Record) error
}

// Registry maps definition ids to their runtimes.
type Registry struct {
	runtimes map[string]Runtime
}

// NewRegistry builds the registry with all built-in runtimes.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		runtimes: map[string]Runtime{
			"source-http":       &httpRuntime{logger: logger},
			"source-grpc":       &grpcRuntime{logger: logger},
			"destination-http":  &httpRuntime{logger: logger},
			"destination-grpc":  &grpcRuntime{logger: logger},
			"destination-csv":   &csvRuntime{logger: logger},
			"destination-mysql": &mysqlRuntime{logger: logger},
		},
	}
}

// ForDefinition returns the runtime for a definition id.
func (r *Registry) ForDefinition(definitionID string) (Runtime, error) {
	rt, ok := r.runtimes[definitionID]
	if !ok {
		return nil, fmt.Errorf("no runtime for definition %q", definitionID)
	}
	return rt, nil
}

// DestinationForDefinition returns the destination runtime for a definition id.
func (r *Registry) DestinationForDefinition(definitionID string) (Destination, error) {
	rt, err := r.ForDefinition(definitionID)
	if err != nil {
		return nil, err
	}

	d, ok := rt.(Destination)
	if !ok {
		return nil, fmt.Errorf("definition %q is not a destination", definitionID)
	}
	return d, nil
}
