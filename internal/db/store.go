package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/posetouch/internal/config"
	"github.com/udisondev/posetouch/internal/score"
)

// Store is a score.Store that owns a connection.
type Store interface {
	score.Store
	Close() error
}

type postgresStore struct {
	*ResultRepository
	db *DB
}

func (p postgresStore) Close() error {
	p.db.Close()
	return nil
}

// Open connects the store selected by cfg. It returns nil, nil for the none driver.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	dsn := cfg.ConnString()
	switch cfg.Driver {
	case config.DriverNone, "":
		return nil, nil
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		slog.Info("result store opened", "driver", cfg.Driver, "path", dsn)
		return s, nil
	case config.DriverPostgres:
		if err := RunMigrations(ctx, dsn); err != nil {
			return nil, err
		}
		database, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		slog.Info("result store opened", "driver", cfg.Driver)
		return postgresStore{ResultRepository: NewResultRepository(database.Pool()), db: database}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
