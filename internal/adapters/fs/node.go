package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/makit/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the file system Graft node.
	NodeID graft.ID = "adapter.fs"
	// WalkerNodeID is the unique identifier for the walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
)

func init() {
	graft.Register(graft.Node[ports.FileSystem]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FileSystem, error) {
			return NewOS(), nil
		},
	})

	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})
}
