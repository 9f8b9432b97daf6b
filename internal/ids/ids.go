// Package ids mints time-ordered message identifiers.
package ids

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator produces Snowflake ids. IDs are time-ordered and unique across
// instances configured with distinct node ids.
type Generator struct {
	node *snowflake.Node
}

// New creates a generator for the given node id (0-1023).
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// NewID returns a new id in its decimal string form.
func (g *Generator) NewID() string {
	return g.node.Generate().String()
}
