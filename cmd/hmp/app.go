package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/assets"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/bincache"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/blob"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/config"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/engine"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/logging"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/remote"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/session"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/store"
)

// app bundles the wired-up components a command needs. Local-only commands
// use openLocal; commands that talk to the shared database use openSynced.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	store  *store.Store
	cache  *bincache.Cache
	guard  *session.Guard

	remote *remote.DB
	engine *engine.Engine

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Printf("WARNING: close: %v", err)
		}
	}
}

// openLocal wires config, logging, the local store, the photo cache, and the
// session guard. No remote connection is made.
func openLocal(cmd *cobra.Command) (*app, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}

	logger := logging.New("[hmp] ", cfg.LogPath(), verbose)

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, store: st}
	a.closers = append(a.closers, st.Close)

	if err := st.InitSchema(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}

	cache, err := bincache.Open(cfg.PhotoCacheDir())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = cache

	a.guard = session.NewGuard(&session.FileSource{Path: cfg.SessionPath()}, logger)
	return a, nil
}

// openSynced extends openLocal with the remote connection, blob storage, and
// the sync engine.
func openSynced(cmd *cobra.Command) (*app, error) {
	a, err := openLocal(cmd)
	if err != nil {
		return nil, err
	}

	if a.cfg.Remote.URL == "" {
		a.Close()
		return nil, fmt.Errorf("no remote configured; set remote.url in %s/config.yaml", a.cfg.DataDir)
	}

	rdb, err := remote.Open(a.cfg.Remote.URL, a.cfg.Remote.AuthToken, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.remote = rdb
	a.closers = append(a.closers, rdb.Close)

	if err := rdb.InitSchema(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}

	var blobs blob.Store = blob.Disabled{}
	if a.cfg.Storage.Bucket != "" {
		gcs, err := blob.NewGCSStore(context.Background(), a.cfg.Storage.Bucket, a.cfg.Storage.CredentialsFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		blobs = gcs
		a.closers = append(a.closers, gcs.Close)
	} else {
		a.logger.Println("WARNING: no storage bucket configured; photo and PDF uploads disabled")
	}

	uploader := assets.NewUploader(blobs, a.cache, a.logger)

	schedCfg := engine.DefaultSchedulerConfig()
	schedCfg.Debounce = a.cfg.Sync.Debounce
	schedCfg.Logger = a.logger
	a.engine = engine.New(a.store, rdb, uploader, a.guard, &engine.Config{
		Scheduler: schedCfg,
		Logger:    a.logger,
	})

	return a, nil
}

// currentProject resolves the current project ID or fails with guidance.
func (a *app) currentProject(ctx context.Context) (string, error) {
	id, err := a.store.CurrentProjectID(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("no current project; run 'hmp project use <id>' first")
	}
	return id, nil
}
