package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"BillsMonitor/internal/config"
	"BillsMonitor/internal/ports"
)

const defaultSQLiteDSN = "seen_bills.db"

// ErrUnknownDriver is returned for an unsupported ledger driver name.
var ErrUnknownDriver = errors.New("unknown ledger driver")

// Open builds the ledger selected in cfg. The returned closer releases the backing
// connection and is never nil.
func Open(ctx context.Context, cfg config.LedgerConfig) (ports.Ledger, io.Closer, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", config.LedgerFile:
		return NewFileLedger(cfg.Path), nopCloser{}, nil

	case config.LedgerPostgres:
		db, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		ledger := NewPostgresLedger(db)
		if err := ledger.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return ledger, db, nil

	case config.LedgerSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		ledger := NewSQLiteLedger(db)
		if err := ledger.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return ledger, db, nil

	case config.LedgerRedis:
		client, err := OpenRedis(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisLedger(client, cfg.Key), client, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
