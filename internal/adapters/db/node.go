package db

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/makit/internal/adapters/logger"
	"go.trai.ch/makit/internal/core/ports"
)

// NodeID is the unique identifier for the database opener Graft node.
const NodeID graft.ID = "adapter.db"

func init() {
	graft.Register(graft.Node[ports.DataBaseOpener]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.DataBaseOpener, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewOpener(log), nil
		},
	})
}
