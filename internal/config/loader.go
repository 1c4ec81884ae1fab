package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadFromFile reads the configuration root from a YAML file and applies defaults.
func LoadFromFile(path string) (C, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file '%s'", path)
	}

	var root Root
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file '%s'", path)
	}

	applyDefaults(&root)

	return FromRoot(&root), nil
}

func applyDefaults(root *Root) {
	if root.Database.Provider == "" {
		root.Database.Provider = DatabaseProviderSqlite
	}

	if root.Database.Path == "" {
		root.Database.Path = "connectorhub.db"
	}

	if root.Redis.Addr == "" {
		root.Redis.Addr = "localhost:6379"
	}

	if root.PublicApi.Port == 0 {
		root.PublicApi.Port = 8080
	}

	if root.AdminApi.Port == 0 {
		root.AdminApi.Port = 3084
	}

	if root.Pipeline.TimeoutSeconds == 0 {
		root.Pipeline.TimeoutSeconds = 5
	}

	if root.SystemAuth.GlobalAESKey == nil {
		root.SystemAuth.GlobalAESKey = &KeyData{}
	}
}
