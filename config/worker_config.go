package config

import "os"

// Config holds the gateway's runtime settings, loaded once at startup from
// the environment (plus a local .env file in development, loaded by
// main.go via godotenv), following the teacher's typed-struct +
// Load()-constructor pattern.
type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string // Postgres: devices, sync state, folders, principals
	MongoDBURL  string // Mongo: item body store (plain/HTML/raw MIME)
	MongoDBName string
	RedisURL    string // Ping pub/sub fanout + idempotent-resend response cache

	// ActiveSync protocol framing (spec.md §6.1/§6.4)
	ProtocolVersion  string // MS-Server-ActiveSync header value
	ProtocolVersions string // MS-ASProtocolVersions header value
	ProtocolCommands string // MS-ASProtocolCommands header value
}

// Load reads Config from the environment, following the teacher's getEnv
// helper pattern and sensible EAS defaults.
func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "easgateway"),
		RedisURL:    getEnv("REDIS_URL", ""),

		ProtocolVersion:  getEnv("EAS_PROTOCOL_VERSION", "14.1"),
		ProtocolVersions: getEnv("EAS_PROTOCOL_VERSIONS", "2.5,12.0,12.1,14.0,14.1,16.0,16.1"),
		ProtocolCommands: getEnv("EAS_PROTOCOL_COMMANDS", "Provision,FolderSync,Sync,GetItemEstimate,Ping,ItemOperations"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
