package cli

import (
	"checkdocs/pkg/config"
	"checkdocs/pkg/services"

	"go.uber.org/zap"
)

// catalog is the set of services opened for one catalog root.
type catalog struct {
	cfg    *config.Config
	ws     *services.Workspace
	store  *services.ManifestStore
	index  *services.IndexCache
	engine *services.Engine
}

func openCatalog(cfg *config.Config, log *zap.Logger) (*catalog, error) {
	ws, err := services.OpenWorkspace(cfg.ChecksPath(), cfg.ManifestFile())
	if err != nil {
		return nil, err
	}
	store := services.NewManifestStore(cfg.ManifestFile(), log)
	index := services.NewIndexCache(services.NewIndexer(cfg.ChecksPath(), store, cfg.Root))
	docs := services.NewDocuments(services.NetHTMLCodec{}, cfg.SiteLabel, log)
	engine := services.NewEngine(ws, store, docs, log,
		services.WithDefaults(cfg.DefaultLevel, cfg.DefaultScript),
		services.WithChangeHook(index.Invalidate))

	return &catalog{cfg: cfg, ws: ws, store: store, index: index, engine: engine}, nil
}

// openForWrite opens the catalog and takes the workspace grant. Running a
// write command is the operator's explicit request for access.
func openForWrite(cfg *config.Config, log *zap.Logger) (*catalog, error) {
	cat, err := openCatalog(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := cat.grant(); err != nil {
		return nil, err
	}
	return cat, nil
}

// grant swaps the catalog's engine for one allowed to write.
func (cat *catalog) grant() error {
	engine, err := cat.engine.Grant()
	if err != nil {
		return err
	}
	cat.engine = engine
	cat.ws = engine.Workspace()
	return nil
}
