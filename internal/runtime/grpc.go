package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"time"

	"github.com/pkg/errors"
)

// grpcRuntime backs the grpc source and destination definitions. The check is
// a TCP dial of the configured endpoint; without an endpoint the connector is
// considered reachable, matching the http runtime.
type grpcRuntime struct {
	logger *slog.Logger
}

type grpcConfig struct {
	Endpoint string `json:"endpoint"`
}

func (r *grpcRuntime) parse(configuration json.RawMessage) (*grpcConfig, error) {
	var cfg grpcConfig
	if len(configuration) > 0 {
		if err := json.Unmarshal(configuration, &cfg); err != nil {
			return nil, errors.Wrap(err, "invalid grpc connector configuration")
		}
	}
	return &cfg, nil
}

func (r *grpcRuntime) Check(ctx context.Context, configuration json.RawMessage) error {
	cfg, err := r.parse(configuration)
	if err != nil {
		return err
	}

	if cfg.Endpoint == "" {
		return nil
	}

	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", cfg.Endpoint)
	if err != nil {
		return errors.Wrapf(err, "endpoint %s is unreachable", cfg.Endpoint)
	}
	_ = conn.Close()

	return nil
}

func (r *grpcRuntime) Write(ctx context.Context, configuration json.RawMessage, batch []Record) error {
	if err := r.Check(ctx, configuration); err != nil {
		return err
	}

	r.logger.Info("acknowledged batch for grpc destination", "records", len(batch))
	return nil
}
