package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for a memnet client.
//
// It covers:
//   - Graph store backend (SQLite, PostgreSQL, or OceanBase)
//   - Embedding provider (optional; enables similarity-aware suggestions)
//   - Graph engine tuning (retry budget, search caps)
//
// Example:
//
//	config := &core.Config{
//	    Store: core.StoreConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./memnet.db",
//	        },
//	    },
//	}
type Config struct {
	// Store contains graph store backend configuration.
	Store StoreConfig `json:"store"`

	// Embedder contains embedding provider configuration (optional).
	// When absent, suggestions rank purely on network structure.
	Embedder *EmbedderConfig `json:"embedder,omitempty"`

	// Graph contains engine tuning (optional, defaults applied).
	Graph *GraphConfig `json:"graph,omitempty"`
}

// StoreConfig contains configuration for the graph store backend.
//
// Supported providers: sqlite, postgres, oceanbase.
type StoreConfig struct {
	// Provider is the backend name (sqlite, postgres, oceanbase).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path, edge_table, node_table
	// For PostgreSQL: host, port, user, password, db_name, edge_table, node_table, ssl_mode
	// For OceanBase: host, port, user, password, db_name, edge_table, node_table
	Config map[string]interface{} `json:"config"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai.
type EmbedderConfig struct {
	// Provider is the embedding provider name.
	Provider string `json:"provider"`

	// APIKey is the API key for the provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (e.g. "text-embedding-3-small").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the embedding vector dimension (e.g. 1536).
	Dimensions int `json:"dimensions,omitempty"`
}

// Unbounded disables a search cap that would otherwise default to a finite
// value. Use it deliberately; an uncapped search is worst-case exponential.
const Unbounded = -1

// GraphConfig contains tuning knobs for the graph engine.
//
// A zero (or omitted) field always selects the documented default, so a JSON
// config that names only some fields keeps the defaults for the rest. To
// switch a cap off entirely, set it to Unbounded.
type GraphConfig struct {
	// RetryBudget bounds the optimistic-concurrency retry loop of every
	// mutation (default 5).
	RetryBudget int `json:"retry_budget,omitempty"`

	// MaxVisitedNodes caps node visitations per path or cluster search
	// (default 100000, Unbounded disables).
	MaxVisitedNodes int `json:"max_visited_nodes,omitempty"`

	// MaxPaths caps the number of paths a traversal may collect
	// (default 10000, Unbounded disables).
	MaxPaths int `json:"max_paths,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for a .env file (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, oceanbase)
//   - SQLITE_PATH, SQLITE_EDGE_TABLE, SQLITE_NODE_TABLE
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - OCEANBASE_HOST, OCEANBASE_PORT, OCEANBASE_USER, OCEANBASE_PASSWORD,
//     OCEANBASE_DATABASE
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL,
//     EMBEDDING_BASE_URL, EMBEDDING_DIMS
//   - GRAPH_RETRY_BUDGET, GRAPH_MAX_VISITED_NODES, GRAPH_MAX_PATHS
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")

	storeConfig := make(map[string]interface{})
	switch provider {
	case "sqlite":
		storeConfig = map[string]interface{}{
			"db_path":    getEnvOrDefault("SQLITE_PATH", "./memnet.db"),
			"edge_table": getEnvOrDefault("SQLITE_EDGE_TABLE", "connections"),
			"node_table": getEnvOrDefault("SQLITE_NODE_TABLE", "experiences"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		storeConfig = map[string]interface{}{
			"host":       getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":       port,
			"user":       getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password":   os.Getenv("POSTGRES_PASSWORD"),
			"db_name":    getEnvOrDefault("POSTGRES_DATABASE", "memnet"),
			"edge_table": getEnvOrDefault("POSTGRES_EDGE_TABLE", "connections"),
			"node_table": getEnvOrDefault("POSTGRES_NODE_TABLE", "experiences"),
			"ssl_mode":   getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "oceanbase":
		port, _ := strconv.Atoi(getEnvOrDefault("OCEANBASE_PORT", "2881"))
		storeConfig = map[string]interface{}{
			"host":       getEnvOrDefault("OCEANBASE_HOST", "127.0.0.1"),
			"port":       port,
			"user":       getEnvOrDefault("OCEANBASE_USER", "root@sys"),
			"password":   os.Getenv("OCEANBASE_PASSWORD"),
			"db_name":    getEnvOrDefault("OCEANBASE_DATABASE", "memnet"),
			"edge_table": getEnvOrDefault("OCEANBASE_EDGE_TABLE", "connections"),
			"node_table": getEnvOrDefault("OCEANBASE_NODE_TABLE", "experiences"),
		}
	}

	config := &Config{
		Store: StoreConfig{
			Provider: provider,
			Config:   storeConfig,
		},
	}

	// Embedding is optional; only configure it when a provider is named.
	if embedderProvider := os.Getenv("EMBEDDING_PROVIDER"); embedderProvider != "" {
		dims, _ := strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMS", "1536"))
		config.Embedder = &EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
			BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
			Dimensions: dims,
		}
	}

	graphConfig := &GraphConfig{}
	graphConfig.RetryBudget, _ = strconv.Atoi(os.Getenv("GRAPH_RETRY_BUDGET"))
	graphConfig.MaxVisitedNodes = capFromEnv("GRAPH_MAX_VISITED_NODES")
	graphConfig.MaxPaths = capFromEnv("GRAPH_MAX_PATHS")
	config.Graph = graphConfig

	return config, nil
}

// capFromEnv parses a search-cap environment variable. An unset variable
// keeps the default (0); an explicit "0" means uncapped.
func capFromEnv(key string) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	if n == 0 {
		return Unbounded
	}
	return n
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewNetworkError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewNetworkError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// A store provider is required; the embedder section is optional but must
// name a provider when present.
func (c *Config) Validate() error {
	if c.Store.Provider == "" {
		return NewNetworkError("Validate", ErrInvalidConfig)
	}
	if c.Embedder != nil && c.Embedder.Provider == "" {
		return NewNetworkError("Validate", ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search checks the current directory, then walks up to 5 directory
// levels, returning the first match.
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
