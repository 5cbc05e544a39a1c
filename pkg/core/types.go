package core

import (
	"github.com/undermaind/memnet-go/pkg/graph"
	"github.com/undermaind/memnet-go/pkg/storage"
)

// The core package exposes the graph and storage vocabulary under a single
// import so callers rarely need the lower-level packages directly.

// Experience is a memory node in the network.
type Experience = storage.Node

// Connection is a typed, weighted edge between two experiences.
type Connection = storage.Edge

// ConnectionType classifies a connection.
type ConnectionType = storage.ConnectionType

// Connection type values.
const (
	TypeTemporal    = storage.TypeTemporal
	TypeCausal      = storage.TypeCausal
	TypeSemantic    = storage.TypeSemantic
	TypeContextual  = storage.TypeContextual
	TypeThematic    = storage.TypeThematic
	TypeEmotional   = storage.TypeEmotional
	TypeAnalogy     = storage.TypeAnalogy
	TypeContrast    = storage.TypeContrast
	TypeElaboration = storage.TypeElaboration
	TypeReference   = storage.TypeReference
	TypeAssociation = storage.TypeAssociation
	TypeOther       = storage.TypeOther
)

// Strength bounds for connections.
const (
	MinStrength = storage.MinStrength
	MaxStrength = storage.MaxStrength
)

// Neighbor pairs an adjacent experience with the connection reaching it.
type Neighbor = graph.Neighbor

// Path is a cycle-free route between two experiences.
type Path = graph.Path

// Centrality holds the centrality metrics of an experience.
type Centrality = graph.Centrality

// Suggestion is a candidate connection proposed by the suggestion engine.
type Suggestion = graph.Suggestion

// NetworkStats aggregates network-wide statistics.
type NetworkStats = graph.NetworkStats

// ConnectOption configures Connect.
type ConnectOption = graph.ConnectOption

// NeighborOption configures Neighbors.
type NeighborOption = graph.NeighborOption

// Connect options, re-exported from the graph package.
var (
	WithStrength      = graph.WithStrength
	WithBidirectional = graph.WithBidirectional
	WithConscious     = graph.WithConscious
	WithDescription   = graph.WithDescription
	WithAttributes    = graph.WithAttributes
)

// Neighbor options, re-exported from the graph package.
var (
	WithTypes         = graph.WithTypes
	WithMinStrength   = graph.WithMinStrength
	WithConsciousOnly = graph.WithConsciousOnly
	WithLimit         = graph.WithLimit
)
