package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/makit/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/adapters/db"        //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			shell.NodeID,
			logger.NodeID,
			db.NodeID,
			fs.NodeID,
			fs.WalkerNodeID,
			telemetry.TracerNodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewComponents(app, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	opener, err := graft.Dep[ports.DataBaseOpener](ctx)
	if err != nil {
		return nil, err
	}

	fsys, err := graft.Dep[ports.FileSystem](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, executor, log, opener, fsys, tracer, w, walker), nil
}
