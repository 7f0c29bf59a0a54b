// Package ledger is the durable audit trail for DEX paper trades and
// portfolio snapshots: a single-file SQLite database, append-only, kept
// separate from the JSON AgentState blob so trade history can grow without
// bound without bloating every state save/load (SPEC_FULL.md 1 ambient
// stack), grounded on the teacher's controlplane server's own
// database/sql-over-modernc.org/sqlite setup (internal/controlplane/server).
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// Ledger appends DEX trade and portfolio rows to a SQLite file. A single
// connection is kept open for the process lifetime, matching SQLite's own
// single-writer model.
type Ledger struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS dex_trades (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  symbol TEXT NOT NULL,
  token_address TEXT NOT NULL,
  entry_price REAL NOT NULL,
  exit_price REAL NOT NULL,
  entry_stake_sol REAL NOT NULL,
  entry_time TEXT NOT NULL,
  exit_time TEXT NOT NULL,
  pnl_pct REAL NOT NULL,
  pnl_sol REAL NOT NULL,
  exit_reason TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS dex_portfolio_snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp TEXT NOT NULL,
  paper_balance_sol REAL NOT NULL,
  positions_value REAL NOT NULL,
  total_value_sol REAL NOT NULL,
  open_positions INTEGER NOT NULL,
  realized_pnl_sol REAL NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_dex_trades_exit_time ON dex_trades(exit_time);`,
		`CREATE INDEX IF NOT EXISTS idx_dex_snapshots_timestamp ON dex_portfolio_snapshots(timestamp);`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// AppendTrades inserts every record passed. The actor calls this only with
// the oldest state.DexTradeHistory rows past its in-memory cap, right before
// trimming them, so a record is written to SQLite once, when it leaves
// memory.
func (l *Ledger) AppendTrades(ctx context.Context, records []domain.DexTradeRecord) error {
	for _, r := range records {
		_, err := l.db.ExecContext(ctx, `
			INSERT INTO dex_trades
				(symbol, token_address, entry_price, exit_price, entry_stake_sol, entry_time, exit_time, pnl_pct, pnl_sol, exit_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Symbol, r.TokenAddress, r.EntryPrice, r.ExitPrice, r.EntryStakeSOL,
			r.EntryTime.UTC().Format(time.RFC3339Nano), r.ExitTime.UTC().Format(time.RFC3339Nano),
			r.PnLPct, r.PnLSOL, string(r.ExitReason))
		if err != nil {
			return fmt.Errorf("append trade: %w", err)
		}
	}
	return nil
}

// AppendSnapshots inserts every portfolio snapshot not yet durably stored.
func (l *Ledger) AppendSnapshots(ctx context.Context, snapshots []domain.DexPortfolioSnapshot) error {
	for _, s := range snapshots {
		_, err := l.db.ExecContext(ctx, `
			INSERT INTO dex_portfolio_snapshots
				(timestamp, paper_balance_sol, positions_value, total_value_sol, open_positions, realized_pnl_sol)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.Timestamp.UTC().Format(time.RFC3339Nano), s.PaperBalanceSOL, s.PositionsValue,
			s.TotalValueSOL, s.OpenPositions, s.RealizedPnLSOL)
		if err != nil {
			return fmt.Errorf("append snapshot: %w", err)
		}
	}
	return nil
}

// TradeCount returns the total number of durably stored trade rows. No
// admin handler calls it; /status reports only the in-memory, trimmed
// slice.
func (l *Ledger) TradeCount(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dex_trades`).Scan(&n)
	return n, err
}
