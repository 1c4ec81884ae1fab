package runtime

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const csvFileName = "records.csv"

// csvRuntime writes batches as rows of a CSV file under the configured
// destination path.
type csvRuntime struct {
	logger *slog.Logger
}

type csvConfig struct {
	DestinationPath string `json:"destination_path"`
}

func (r *csvRuntime) parse(configuration json.RawMessage) (*csvConfig, error) {
	var cfg csvConfig
	if err := json.Unmarshal(configuration, &cfg); err != nil {
		return nil, errors.Wrap(err, "invalid csv connector configuration")
	}

	if cfg.DestinationPath == "" {
		return nil, errors.New("destination_path is required")
	}

	return &cfg, nil
}

func (r *csvRuntime) Check(ctx context.Context, configuration json.RawMessage) error {
	cfg, err := r.parse(configuration)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DestinationPath, 0o755); err != nil {
		return errors.Wrapf(err, "destination path %s is not writable", cfg.DestinationPath)
	}

	probe, err := os.CreateTemp(cfg.DestinationPath, ".probe-*")
	if err != nil {
		return errors.Wrapf(err, "destination path %s is not writable", cfg.DestinationPath)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return nil
}

func (r *csvRuntime) Write(ctx context.Context, configuration json.RawMessage, batch []Record) error {
	cfg, err := r.parse(configuration)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DestinationPath, 0o755); err != nil {
		return errors.Wrapf(err, "destination path %s is not writable", cfg.DestinationPath)
	}

	path := filepath.Join(cfg.DestinationPath, csvFileName)

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if writeHeader {
		if err := w.Write([]string{"index", "task", "payload"}); err != nil {
			return errors.Wrap(err, "failed to write csv header")
		}
	}

	for _, rec := range batch {
		if err := w.Write([]string{rec.Index, rec.Task, string(rec.Payload)}); err != nil {
			return errors.Wrap(err, "failed to write csv record")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush csv records")
	}

	r.logger.Debug("wrote batch to csv destination", "path", path, "records", len(batch))
	return nil
}
