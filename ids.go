package bankoffice

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type IDGenerator interface {
	NextID() snowflake.ID
}

type snowflakeIDs struct {
	node *snowflake.Node
}

func NewIDGenerator(nodeID int64) (IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node failed: %w", err)
	}
	return &snowflakeIDs{node: node}, nil
}

func (s *snowflakeIDs) NextID() snowflake.ID {
	return s.node.Generate()
}

type Clock interface {
	NowUTC() time.Time
}

type systemClock struct{}

func NewClock() Clock {
	return systemClock{}
}

// Store columns keep microseconds, so times are truncated before they are
// written and compared with read-back rows.
func (systemClock) NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
