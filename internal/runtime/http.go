package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// httpRuntime backs the http source and destination definitions. Those
// definitions carry no required configuration; when an endpoint_url is present
// the check probes it, otherwise the connector is considered reachable.
type httpRuntime struct {
	logger *slog.Logger
}

type httpConfig struct {
	EndpointURL string `json:"endpoint_url"`
}

func (r *httpRuntime) parse(configuration json.RawMessage) (*httpConfig, error) {
	var cfg httpConfig
	if len(configuration) > 0 {
		if err := json.Unmarshal(configuration, &cfg); err != nil {
			return nil, errors.Wrap(err, "invalid http connector configuration")
		}
	}
	return &cfg, nil
}

func (r *httpRuntime) Check(ctx context.Context, configuration json.RawMessage) error {
	cfg, err := r.parse(configuration)
	if err != nil {
		return err
	}

	if cfg.EndpointURL == "" {
		return nil
	}

	resp, err := resty.New().
		SetTimeout(10 * time.Second).
		R().
		SetContext(ctx).
		Get(cfg.EndpointURL)
	if err != nil {
		return errors.Wrapf(err, "endpoint %s is unreachable", cfg.EndpointURL)
	}

	if resp.StatusCode() >= 500 {
		return fmt.Errorf("endpoint %s returned status %d", cfg.EndpointURL, resp.StatusCode())
	}

	return nil
}

func (r *httpRuntime) Write(ctx context.Context, configuration json.RawMessage, batch []Record) error {
	cfg, err := r.parse(configuration)
	if err != nil {
		return err
	}

	if cfg.EndpointURL == "" {
		// Nothing downstream to deliver to. The batch is acknowledged and logged
		// so the write path can be exercised end to end without a receiver.
		r.logger.Info("discarding batch for http destination without endpoint", "records", len(batch))
		return nil
	}

	payload := make([]map[string]interface{}, 0, len(batch))
	for _, rec := range batch {
		payload = append(payload, map[string]interface{}{
			"index": rec.Index,
			"task":  rec.Task,
			"data":  rec.Payload,
		})
	}

	resp, err := resty.New().
		SetTimeout(30 * time.Second).
		R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(cfg.EndpointURL)
	if err != nil {
		return errors.Wrapf(err, "failed to deliver batch to %s", cfg.EndpointURL)
	}

	if resp.IsError() {
		return fmt.Errorf("endpoint %s rejected batch with status %d", cfg.EndpointURL, resp.StatusCode())
	}

	return nil
}
