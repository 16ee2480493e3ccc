// Package app assembles a running plan store from resolved configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alexanderramin/planningtree/internal/config"
	"github.com/alexanderramin/planningtree/internal/db"
	"github.com/alexanderramin/planningtree/internal/filestore"
	"github.com/alexanderramin/planningtree/internal/repository"
	"github.com/alexanderramin/planningtree/internal/service"
)

// Runtime is a loaded plan store plus the resources it holds open.
type Runtime struct {
	Config config.Config
	Store  service.PlanStore

	closers []io.Closer
}

// Open builds the storage backend named by cfg, wires operation logging and
// loads the store. A store whose load failed is still returned; the failure
// is available from Store.LoadErr and Store.State. Errors are only returned
// when the backend or log file cannot be opened.
func Open(ctx context.Context, cfg config.Config) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	storage, err := rt.openStorage(cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}

	opts := []service.Option{}
	if cfg.LogFile != "" {
		w, err := openLogFile(cfg.LogFile)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, w)
		opts = append(opts, service.WithObserver(service.NewLogUseCaseObserver(w, cfg.LogLevel)))
	}
	if cfg.ResetOnCorrupt {
		opts = append(opts, service.WithResetOnFailedLoad())
	}

	rt.Store = service.NewPlanStore(storage, opts...)
	// A load failure is recorded on the store itself.
	_ = rt.Store.Load(ctx)
	return rt, nil
}

func (rt *Runtime) openStorage(cfg config.Config) (repository.Storage, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		database, err := db.OpenDB(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database %s: %w", cfg.DBPath, err)
		}
		rt.closers = append(rt.closers, database)
		return repository.NewSQLiteStorage(database, db.NewSQLiteUnitOfWork(database)), nil
	case config.BackendYAML:
		return filestore.New(cfg.DBPath), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}

// Close releases everything Open acquired, most recent first.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
