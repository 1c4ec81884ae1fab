package config

// Root is the top of the configuration tree for the service. All services (public api, admin api, worker)
// share a single root so that a deployment can run from one file.
type Root struct {
	// Debug enables verbose logging and error detail in responses.
	Debug bool `yaml:"debug" json:"debug"`

	Database  Database        `yaml:"database" json:"database"`
	Redis     Redis           `yaml:"redis" json:"redis"`
	PublicApi ServiceHttp     `yaml:"public_api" json:"public_api"`
	AdminApi  ServiceHttp     `yaml:"admin_api" json:"admin_api"`
	Pipeline  PipelineBackend `yaml:"pipeline" json:"pipeline"`

	SystemAuth SystemAuth `yaml:"system_auth" json:"system_auth"`
}

// Database configures the resource store. Sqlite is the only supported provider currently; the path may
// use ~ for home expansion.
type Database struct {
	Provider string `yaml:"provider" json:"provider"`
	Path     string `yaml:"path" json:"path"`
}

const DatabaseProviderSqlite = "sqlite"

// Redis configures the connection used by the background task queue.
type Redis struct {
	Addr string `yaml:"addr" json:"addr"`
	DB   int    `yaml:"db" json:"db"`
}

// ServiceHttp configures one HTTP listener.
type ServiceHttp struct {
	Port int `yaml:"port" json:"port"`
}

// PipelineBackend configures the collaborator service consulted for connector occupancy before
// delete/rename/disconnect.
type PipelineBackend struct {
	BaseUrl        string `yaml:"base_url" json:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// SystemAuth holds key material. GlobalAESKey secures page cursors. JwtSigningKey, when set, is used to
// verify inbound bearer tokens; when unset tokens are assumed pre-verified by the fronting gateway and
// only the subject claim is extracted.
type SystemAuth struct {
	GlobalAESKey  *KeyData `yaml:"global_aes_key" json:"global_aes_key"`
	JwtSigningKey string   `yaml:"jwt_signing_key" json:"jwt_signing_key"`
}
