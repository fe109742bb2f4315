package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node. Each server instance must use a
// distinct node ID so connection identifiers never collide across the
// fleet. Message IDs are not generated here; those come from the store.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered int64 ID, unique across instances.
func New() int64 {
	return node.Generate().Int64()
}
