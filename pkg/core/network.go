// Package core provides the main client interface for the memnet
// associative memory network.
//
// A Network ties together a graph store backend, an optional embedding
// provider, and the graph engine (connection management, traversal,
// clustering, centrality, co-occurrence reinforcement, and suggestions)
// behind one facade.
//
// Example:
//
//	config := &core.Config{
//	    Store: core.StoreConfig{
//	        Provider: "sqlite",
//	        Config:   map[string]interface{}{"db_path": "./memnet.db"},
//	    },
//	}
//
//	network, err := core.NewNetwork(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer network.Close()
//
//	a, _ := network.RegisterExperience(ctx, "learned Go generics")
//	b, _ := network.RegisterExperience(ctx, "rewrote the codec with generics")
//	network.Connect(ctx, a.ID, b.ID, core.TypeCausal, core.WithStrength(7))
package core

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/undermaind/memnet-go/pkg/embedder"
	openaiEmbedder "github.com/undermaind/memnet-go/pkg/embedder/openai"
	"github.com/undermaind/memnet-go/pkg/graph"
	"github.com/undermaind/memnet-go/pkg/storage"
	"github.com/undermaind/memnet-go/pkg/storage/oceanbase"
	postgresStore "github.com/undermaind/memnet-go/pkg/storage/postgres"
	sqliteStore "github.com/undermaind/memnet-go/pkg/storage/sqlite"
)

// Network is the main client for the associative memory network.
//
// It is safe for concurrent use.
type Network struct {
	config        *Config
	store         storage.GraphStore
	embedder      embedder.Provider
	manager       *graph.Manager
	pathFinder    *graph.PathFinder
	clusters      *graph.ClusterAnalyzer
	centrality    *graph.CentralityCalculator
	reinforcer    *graph.Reinforcer
	suggester     *graph.SuggestionEngine
	snowflakeNode *snowflake.Node

	mu sync.RWMutex
}

// NewNetwork creates a new Network from the given configuration.
//
// The function:
//  1. Validates the configuration
//  2. Initializes the graph store backend
//  3. Initializes the embedding provider (if configured)
//  4. Wires the graph engine components
//
// Returns an error if the configuration is invalid or a backend cannot
// be reached.
func NewNetwork(cfg *Config) (*Network, error) {
	if cfg == nil {
		return nil, NewNetworkError("NewNetwork", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := initStorage(cfg.Store)
	if err != nil {
		return nil, err
	}

	embedderProvider, err := initEmbedder(cfg.Embedder)
	if err != nil {
		store.Close()
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		store.Close()
		return nil, NewNetworkError("NewNetwork", err)
	}

	retryBudget := 0
	limits := graph.DefaultLimits()
	if cfg.Graph != nil {
		retryBudget = cfg.Graph.RetryBudget
		limits.MaxVisitedNodes = resolveSearchCap(cfg.Graph.MaxVisitedNodes, graph.DefaultMaxVisitedNodes)
		limits.MaxPaths = resolveSearchCap(cfg.Graph.MaxPaths, graph.DefaultMaxPaths)
	}

	manager := graph.NewManager(store, retryBudget)

	return &Network{
		config:        cfg,
		store:         store,
		embedder:      embedderProvider,
		manager:       manager,
		pathFinder:    graph.NewPathFinder(manager, limits),
		clusters:      graph.NewClusterAnalyzer(manager, limits),
		centrality:    graph.NewCentralityCalculator(manager),
		reinforcer:    graph.NewReinforcer(manager),
		suggester:     graph.NewSuggestionEngine(manager),
		snowflakeNode: node,
	}, nil
}

// RegisterExperience stores a new experience node in the network.
//
// When an embedder is configured, the content is embedded so the
// suggestion engine can rank candidates by semantic similarity.
// Embedding failures do not fail registration; the node is stored
// without a vector.
//
// Parameters:
//   - ctx: Context for cancellation
//   - content: Experience content (text string)
//   - opts: Optional parameters (ContextID, Timestamp)
//
// Returns the stored Experience.
//
// Example:
//
//	exp, err := network.RegisterExperience(ctx, "debugged the flaky test",
//	    core.WithContext(sessionID),
//	)
func (n *Network) RegisterExperience(ctx context.Context, content string, opts ...RegisterOption) (*Experience, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	options := applyRegisterOptions(opts)

	createdAt := options.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var embedding []float64
	if n.embedder != nil && !options.SkipEmbedding {
		vec, err := n.embedder.Embed(ctx, content)
		if err == nil {
			embedding = vec
		}
	}

	exp := &storage.Node{
		ID:        n.snowflakeNode.Generate().Int64(),
		ContextID: options.ContextID,
		Content:   content,
		Embedding: embedding,
		CreatedAt: createdAt,
	}

	if err := n.store.PutNode(ctx, exp); err != nil {
		return nil, NewNetworkError("RegisterExperience", err)
	}

	return exp, nil
}

// Experience retrieves an experience by ID.
func (n *Network) Experience(ctx context.Context, id int64) (*Experience, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	exp, err := n.manager.Node(ctx, id)
	if err != nil {
		return nil, NewNetworkError("Experience", err)
	}
	return exp, nil
}

// ExperiencesByContext retrieves all experiences sharing a context ID.
func (n *Network) ExperiencesByContext(ctx context.Context, contextID int64) ([]*Experience, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	exps, err := n.manager.NodesByContext(ctx, contextID)
	if err != nil {
		return nil, NewNetworkError("ExperiencesByContext", err)
	}
	return exps, nil
}

// Connect creates a connection between two experiences, or updates the
// existing one when a connection of the same type already links them.
//
// Parameters:
//   - ctx: Context for cancellation
//   - sourceID, targetID: Endpoint experience IDs (must exist)
//   - typ: Connection type (semantic, causal, temporal, ...)
//   - opts: Optional parameters (Strength, Bidirectional, Conscious,
//     Description, Attributes)
//
// Returns the created or updated Connection.
//
// Example:
//
//	conn, err := network.Connect(ctx, a.ID, b.ID, core.TypeSemantic,
//	    core.WithStrength(8),
//	    core.WithBidirectional(),
//	    core.WithDescription("both about error handling"),
//	)
func (n *Network) Connect(ctx context.Context, sourceID, targetID int64, typ ConnectionType, opts ...ConnectOption) (*Connection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	edge, err := n.manager.CreateOrUpdate(ctx, sourceID, targetID, typ, opts...)
	if err != nil {
		return nil, NewNetworkError("Connect", err)
	}
	return edge, nil
}

// Connection retrieves a connection by ID.
func (n *Network) Connection(ctx context.Context, id int64) (*Connection, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	edge, err := n.manager.Get(ctx, id)
	if err != nil {
		return nil, NewNetworkError("Connection", err)
	}
	return edge, nil
}

// Neighbors lists the experiences adjacent to the given one, strongest
// connections first.
//
// Example:
//
//	neighbors, err := network.Neighbors(ctx, exp.ID,
//	    core.WithTypes(core.TypeSemantic, core.TypeCausal),
//	    core.WithMinStrength(5),
//	    core.WithLimit(10),
//	)
func (n *Network) Neighbors(ctx context.Context, nodeID int64, opts ...NeighborOption) ([]*Neighbor, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	neighbors, err := n.manager.Neighbors(ctx, nodeID, opts...)
	if err != nil {
		return nil, NewNetworkError("Neighbors", err)
	}
	return neighbors, nil
}

// Activate records a traversal of the connection, bumping its activation
// count and last-activated time.
func (n *Network) Activate(ctx context.Context, id int64) (*Connection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	edge, err := n.manager.Activate(ctx, id)
	if err != nil {
		return nil, NewNetworkError("Activate", err)
	}
	return edge, nil
}

// Strengthen increases a connection's strength by amount, saturating at
// the maximum.
func (n *Network) Strengthen(ctx context.Context, id int64, amount int) (*Connection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	edge, err := n.manager.Strengthen(ctx, id, amount)
	if err != nil {
		return nil, NewNetworkError("Strengthen", err)
	}
	return edge, nil
}

// Weaken decreases a connection's strength by amount, saturating at the
// minimum.
func (n *Network) Weaken(ctx context.Context, id int64, amount int) (*Connection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	edge, err := n.manager.Weaken(ctx, id, amount)
	if err != nil {
		return nil, NewNetworkError("Weaken", err)
	}
	return edge, nil
}

// SetStrength sets a connection's strength to an exact value.
func (n *Network) SetStrength(ctx context.Context, id int64, value int) (*Connection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	edge, err := n.manager.SetStrength(ctx, id, value)
	if err != nil {
		return nil, NewNetworkError("SetStrength", err)
	}
	return edge, nil
}

// FindPaths enumerates cycle-free paths between two experiences.
//
// Parameters:
//   - ctx: Context for cancellation
//   - start, end: Endpoint experience IDs (must exist)
//   - maxDepth: Maximum number of hops per path (must be >= 1)
//   - minStrength: Connections below this strength are ignored
//
// Returns the discovered paths, which may be empty.
func (n *Network) FindPaths(ctx context.Context, start, end int64, maxDepth, minStrength int) ([]*Path, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	paths, err := n.pathFinder.FindPaths(ctx, start, end, maxDepth, minStrength)
	if err != nil {
		return nil, NewNetworkError("FindPaths", err)
	}
	return paths, nil
}

// FindClusters groups highly connected experiences into clusters.
//
// An experience qualifies as a hub when it touches at least
// minConnections connections; clusters are the connected components of
// the hub-induced subgraph.
func (n *Network) FindClusters(ctx context.Context, minConnections int) ([][]int64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	clusters, err := n.clusters.FindClusters(ctx, minConnections)
	if err != nil {
		return nil, NewNetworkError("FindClusters", err)
	}
	return clusters, nil
}

// Centrality computes the centrality metrics of an experience.
func (n *Network) Centrality(ctx context.Context, nodeID int64) (*Centrality, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	c, err := n.centrality.Compute(ctx, nodeID)
	if err != nil {
		return nil, NewNetworkError("Centrality", err)
	}
	return c, nil
}

// ReinforceCooccurrence strengthens temporal connections between
// experiences of one context that were created within the given window
// of each other. Pairs with no temporal connection get a new one.
//
// Returns the number of connections created or strengthened.
func (n *Network) ReinforceCooccurrence(ctx context.Context, contextID int64, window time.Duration, minIncrease float64) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	count, err := n.reinforcer.StrengthenByCooccurrence(ctx, contextID, window, minIncrease)
	if err != nil {
		return count, NewNetworkError("ReinforceCooccurrence", err)
	}
	return count, nil
}

// SuggestConnections proposes new connections for an experience based on
// 2-hop network structure and, when embeddings are available, semantic
// similarity.
//
// Parameters:
//   - ctx: Context for cancellation
//   - nodeID: Experience to suggest connections for (must exist)
//   - minSimilarity: Candidates below this cosine similarity are dropped
//     (only applied when both embeddings exist)
//   - maxSuggestions: Maximum number of suggestions to return (must be > 0)
func (n *Network) SuggestConnections(ctx context.Context, nodeID int64, minSimilarity float64, maxSuggestions int) ([]*Suggestion, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	suggestions, err := n.suggester.Suggest(ctx, nodeID, minSimilarity, maxSuggestions)
	if err != nil {
		return nil, NewNetworkError("SuggestConnections", err)
	}
	return suggestions, nil
}

// TypeDistribution counts connections by type across the whole network.
func (n *Network) TypeDistribution(ctx context.Context) (map[ConnectionType]int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	dist, err := n.manager.TypeDistribution(ctx)
	if err != nil {
		return nil, NewNetworkError("TypeDistribution", err)
	}
	return dist, nil
}

// Stats computes network-wide statistics.
func (n *Network) Stats(ctx context.Context) (*NetworkStats, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	stats, err := n.manager.Stats(ctx)
	if err != nil {
		return nil, NewNetworkError("Stats", err)
	}
	return stats, nil
}

// Close closes the network and releases resources.
func (n *Network) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var firstErr error
	if n.embedder != nil {
		if err := n.embedder.Close(); err != nil {
			firstErr = err
		}
	}
	if err := n.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return NewNetworkError("Close", firstErr)
	}
	return nil
}

// initStorage initializes the graph store backend.
func initStorage(cfg StoreConfig) (storage.GraphStore, error) {
	switch cfg.Provider {
	case "sqlite":
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath:    stringOption(cfg.Config, "db_path", "./memnet.db"),
			EdgeTable: stringOption(cfg.Config, "edge_table", ""),
			NodeTable: stringOption(cfg.Config, "node_table", ""),
		})
	case "postgres":
		return postgresStore.NewClient(&postgresStore.Config{
			Host:      stringOption(cfg.Config, "host", "localhost"),
			Port:      intOption(cfg.Config, "port", 5432),
			User:      stringOption(cfg.Config, "user", "postgres"),
			Password:  stringOption(cfg.Config, "password", ""),
			DBName:    stringOption(cfg.Config, "db_name", "memnet"),
			EdgeTable: stringOption(cfg.Config, "edge_table", ""),
			NodeTable: stringOption(cfg.Config, "node_table", ""),
			SSLMode:   stringOption(cfg.Config, "ssl_mode", "disable"),
		})
	case "oceanbase":
		return oceanbase.NewClient(&oceanbase.Config{
			Host:      stringOption(cfg.Config, "host", "127.0.0.1"),
			Port:      intOption(cfg.Config, "port", 2881),
			User:      stringOption(cfg.Config, "user", "root@sys"),
			Password:  stringOption(cfg.Config, "password", ""),
			DBName:    stringOption(cfg.Config, "db_name", "memnet"),
			EdgeTable: stringOption(cfg.Config, "edge_table", ""),
			NodeTable: stringOption(cfg.Config, "node_table", ""),
		})
	default:
		return nil, NewNetworkError("initStorage", ErrInvalidConfig)
	}
}

// initEmbedder initializes the embedding provider. A nil or "none"
// configuration disables embeddings.
func initEmbedder(cfg *EmbedderConfig) (embedder.Provider, error) {
	if cfg == nil || cfg.Provider == "" || cfg.Provider == "none" {
		return nil, nil
	}
	switch cfg.Provider {
	case "openai":
		return openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, NewNetworkError("initEmbedder", ErrInvalidConfig)
	}
}

// resolveSearchCap maps a GraphConfig cap onto the graph layer's convention,
// where 0 already means "no cap". Zero selects the default so a JSON config
// that omits the field does not accidentally disable the cap; Unbounded (or
// any negative value) disables it.
func resolveSearchCap(configured, defaultValue int) int {
	if configured == 0 {
		return defaultValue
	}
	if configured < 0 {
		return 0
	}
	return configured
}

// stringOption reads a string key from a provider config map.
func stringOption(config map[string]interface{}, key, defaultValue string) string {
	if s, ok := config[key].(string); ok && s != "" {
		return s
	}
	return defaultValue
}

// intOption reads an integer key from a provider config map. JSON
// unmarshals numbers as float64, so both forms are accepted.
func intOption(config map[string]interface{}, key string, defaultValue int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}
