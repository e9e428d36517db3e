// Package uid generates unique identifiers for reload audit records and
// request correlation.
package uid

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Strategy selects the generation algorithm.
type Strategy string

const (
	StrategySnowflake Strategy = "snowflake"
	StrategyUUIDv7    Strategy = "uuidv7"
)

// Options configures the generator.
type Options struct {
	Strategy Strategy

	// NodeID identifies this node in a distributed system (snowflake only).
	// Valid range: 0 to 1023.
	NodeID int64
}

// Generator is the interface consumers depend on for unique identifiers.
// Implementations must be safe for concurrent use.
type Generator interface {
	// Generate returns a new unique identifier as a string.
	Generate(ctx context.Context) (string, error)
}

// New creates a Generator for the selected strategy.
func New(opts Options) (Generator, error) {
	switch opts.Strategy {
	case StrategySnowflake:
		node, err := snowflake.NewNode(opts.NodeID)
		if err != nil {
			return nil, fmt.Errorf("uid: failed to create snowflake node %d: %w", opts.NodeID, err)
		}
		return &snowflakeGenerator{node: node}, nil
	case StrategyUUIDv7:
		return &uuidv7Generator{}, nil
	default:
		return nil, fmt.Errorf("uid: unknown strategy %q", opts.Strategy)
	}
}

var _ Generator = (*snowflakeGenerator)(nil)

type snowflakeGenerator struct {
	node *snowflake.Node
}

func (g *snowflakeGenerator) Generate(_ context.Context) (string, error) {
	return g.node.Generate().String(), nil
}

var _ Generator = (*uuidv7Generator)(nil)

type uuidv7Generator struct{}

func (g *uuidv7Generator) Generate(_ context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("uid: failed to generate uuid v7: %w", err)
	}
	return id.String(), nil
}
