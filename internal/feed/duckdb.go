package feed

import (
	"database/sql"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// LoadParquetSource reads one instrument's bar history from a Parquet
// file (t_open, open, high, low, close, volume columns) via an in-memory
// DuckDB connection's read_parquet table function, and returns it as a
// Source sorted ascending by TOpen. This is the read-side counterpart to
// internal/writer's DuckDB-backed COPY ... TO ... FORMAT PARQUET export.
func LoadParquetSource(path string, instrument types.InstrumentID, timeframe types.Timeframe) (*InMemorySource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeLoadFailed, "failed to open duckdb for parquet read", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT t_open, open, high, low, close, volume FROM read_parquet(?) ORDER BY t_open`, path)
	if err != nil {
		return nil, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to read parquet bar file %s", path)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var (
			tOpen                          time.Time
			open, high, low, close, volume float64
		)

		if err := rows.Scan(&tOpen, &open, &high, &low, &close, &volume); err != nil {
			return nil, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to scan parquet bar row in %s", path)
		}

		bars = append(bars, types.Bar{
			Instrument: instrument,
			Timeframe:  timeframe,
			TOpen:      tOpen,
			Open:       decimal.NewFromFloat(open),
			High:       decimal.NewFromFloat(high),
			Low:        decimal.NewFromFloat(low),
			Close:      decimal.NewFromFloat(close),
			Volume:     decimal.NewFromFloat(volume),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed reading parquet bar file %s", path)
	}

	return NewInMemorySource(instrument, timeframe, bars), nil
}
