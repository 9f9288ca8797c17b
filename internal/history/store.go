package history

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"llm-trader/internal/types"
)

// Store persists the run's history: every trade record and a per-cycle
// valuation snapshot. Both tables are append-only and exportable as CSV
// on shutdown.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS trades (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  action TEXT NOT NULL,
  symbol TEXT NOT NULL,
  side TEXT NOT NULL,
  qty INTEGER NOT NULL,
  price REAL NOT NULL,
  reasoning TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts);

CREATE TABLE IF NOT EXISTS valuations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  total_value REAL NOT NULL,
  cash REAL NOT NULL,
  roi_percent REAL NOT NULL,
  approximate INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_valuations_ts ON valuations(ts);
`)
	return err
}

func (s *Store) InsertTrade(ctx context.Context, rec types.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades(ts, action, symbol, side, qty, price, reasoning)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, rec.Time, rec.Action, rec.Symbol, rec.Side, rec.Qty, rec.Price, rec.Reasoning)
	return err
}

func (s *Store) InsertValuation(ctx context.Context, v types.Valuation) error {
	approx := 0
	if v.Approximate {
		approx = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO valuations(ts, total_value, cash, roi_percent, approximate)
		VALUES(?, ?, ?, ?, ?)
	`, v.Time, v.TotalValue, v.Cash, v.ROIPercent, approx)
	return err
}

// TradeCount returns the number of persisted trade records.
func (s *Store) TradeCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n)
	return n, err
}

// ExportCSV writes both tables as CSV files under dir and returns the
// written paths.
func (s *Store) ExportCSV(ctx context.Context, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tradesPath := filepath.Join(dir, "trades.csv")
	if err := s.exportTrades(ctx, tradesPath); err != nil {
		return nil, fmt.Errorf("export trades: %w", err)
	}
	valuationsPath := filepath.Join(dir, "valuations.csv")
	if err := s.exportValuations(ctx, valuationsPath); err != nil {
		return nil, fmt.Errorf("export valuations: %w", err)
	}
	return []string{tradesPath, valuationsPath}, nil
}

func (s *Store) exportTrades(ctx context.Context, path string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT ts, action, symbol, side, qty, price, reasoning FROM trades ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"time", "action", "symbol", "side", "qty", "price", "reasoning"}); err != nil {
		return err
	}
	for rows.Next() {
		var ts, action, symbol, side, reasoning string
		var qty int
		var price float64
		if err := rows.Scan(&ts, &action, &symbol, &side, &qty, &price, &reasoning); err != nil {
			return err
		}
		rec := []string{ts, action, symbol, side, strconv.Itoa(qty), fmt.Sprintf("%.4f", price), reasoning}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) exportValuations(ctx context.Context, path string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT ts, total_value, cash, roi_percent, approximate FROM valuations ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"time", "total_value", "cash", "roi_percent", "approximate"}); err != nil {
		return err
	}
	for rows.Next() {
		var ts string
		var total, cash, roi float64
		var approx int
		if err := rows.Scan(&ts, &total, &cash, &roi, &approx); err != nil {
			return err
		}
		rec := []string{ts, fmt.Sprintf("%.2f", total), fmt.Sprintf("%.2f", cash), fmt.Sprintf("%.4f", roi), strconv.Itoa(approx)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
