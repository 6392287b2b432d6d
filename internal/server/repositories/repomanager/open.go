package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/logging"
)

// Open returns the manager for the requested backend.
func Open(ctx context.Context, p Persistence, dataDir, dsn string, logger logging.Logger) (RepositoryManager, error) {
	switch p {
	case PersistenceFile:
		m, err := NewFileRepositoryManager(dataDir, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	case PersistencePostgres:
		m, err := OpenPostgres(ctx, dsn, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown persistence %q", p)
	}
}
