package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/sirily11/argo-backtest-core/internal/engine"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// ParquetResultWriter exports an engine.Result's equity series, fills,
// rejections, and closed trades to Parquet files: an in-memory DuckDB
// staging table per result slice, then COPY ... TO ... FORMAT PARQUET.
type ParquetResultWriter struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewParquetResultWriter opens a fresh in-memory DuckDB database and
// creates the staging tables for one result.
func NewParquetResultWriter() (*ParquetResultWriter, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to open duckdb result store", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to connect to duckdb result store", err)
	}

	w := &ParquetResultWriter{db: db, sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}

	if err := w.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return w, nil
}

func (w *ParquetResultWriter) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS equity_curve (
			bar_index INTEGER,
			t_as_of TIMESTAMP,
			equity DOUBLE,
			cash DOUBLE,
			drawdown DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS fills (
			order_id TEXT,
			venue TEXT,
			base TEXT,
			quote TEXT,
			side TEXT,
			fill_quantity DOUBLE,
			fill_price DOUBLE,
			fee_amount DOUBLE,
			tax_amount DOUBLE,
			leverage DOUBLE,
			t_fill TIMESTAMP,
			fill_bar_index INTEGER,
			reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS rejections (
			order_id TEXT,
			venue TEXT,
			base TEXT,
			quote TEXT,
			bar_index INTEGER,
			reason TEXT,
			message TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			venue TEXT,
			base TEXT,
			quote TEXT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			quantity DOUBLE,
			fee_amount DOUBLE,
			tax_amount DOUBLE,
			realized_pnl DOUBLE,
			opened_at TIMESTAMP,
			closed_at TIMESTAMP,
			open_bar_index INTEGER,
			close_bar_index INTEGER
		)`,
	}

	for _, statement := range statements {
		if _, err := w.db.Exec(statement); err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create result staging table", err)
		}
	}

	return nil
}

// Stage loads one engine.Result into the staging tables, ready for
// WriteParquet.
func (w *ParquetResultWriter) Stage(result engine.Result) error {
	for _, point := range result.EquitySeries {
		_, err := w.sq.
			Insert("equity_curve").
			Columns("bar_index", "t_as_of", "equity", "cash", "drawdown").
			Values(point.BarIndex, point.TAsOf, point.Equity.InexactFloat64(), point.Cash.InexactFloat64(), point.Drawdown.InexactFloat64()).
			RunWith(w.db).
			Exec()
		if err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to stage equity point", err)
		}
	}

	for _, fill := range result.Fills {
		_, err := w.sq.
			Insert("fills").
			Columns("order_id", "venue", "base", "quote", "side", "fill_quantity", "fill_price", "fee_amount", "tax_amount", "leverage", "t_fill", "fill_bar_index", "reason").
			Values(fill.OrderID, fill.Instrument.Venue, fill.Instrument.Base, fill.Instrument.Quote, string(fill.Side), fill.FillQuantity.InexactFloat64(), fill.FillPrice.InexactFloat64(), fill.FeeAmount.InexactFloat64(), fill.TaxAmount.InexactFloat64(), fill.Leverage.InexactFloat64(), fill.TFill, fill.FillBarIndex, fill.Reason).
			RunWith(w.db).
			Exec()
		if err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to stage fill", err)
		}
	}

	for _, rejection := range result.Rejections {
		_, err := w.sq.
			Insert("rejections").
			Columns("order_id", "venue", "base", "quote", "bar_index", "reason", "message").
			Values(rejection.OrderID, rejection.Instrument.Venue, rejection.Instrument.Base, rejection.Instrument.Quote, rejection.BarIndex, rejection.Reason, rejection.Message).
			RunWith(w.db).
			Exec()
		if err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to stage rejection", err)
		}
	}

	for _, trade := range result.Trades {
		_, err := w.sq.
			Insert("trades").
			Columns("venue", "base", "quote", "entry_price", "exit_price", "quantity", "fee_amount", "tax_amount", "realized_pnl", "opened_at", "closed_at", "open_bar_index", "close_bar_index").
			Values(trade.Instrument.Venue, trade.Instrument.Base, trade.Instrument.Quote, trade.EntryPrice.InexactFloat64(), trade.ExitPrice.InexactFloat64(), trade.Quantity.InexactFloat64(), trade.FeeAmount.InexactFloat64(), trade.TaxAmount.InexactFloat64(), trade.RealizedPnL.InexactFloat64(), trade.OpenedAt, trade.ClosedAt, trade.OpenBarIndex, trade.CloseBarIndex).
			RunWith(w.db).
			Exec()
		if err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to stage trade", err)
		}
	}

	return nil
}

// WriteParquet exports every staged table to <dir>/<table>.parquet.
func (w *ParquetResultWriter) WriteParquet(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create result export directory", err)
	}

	for _, table := range []string{"equity_curve", "fills", "rejections", "trades"} {
		path := filepath.Join(dir, table+".parquet")

		if _, err := w.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, path)); err != nil {
			return coreerrors.Wrapf(coreerrors.ErrCodeWriteFailed, err, "failed to export %s to parquet", table)
		}
	}

	return nil
}

// Close releases the underlying DuckDB connection.
func (w *ParquetResultWriter) Close() error {
	return w.db.Close()
}
